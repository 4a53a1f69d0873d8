package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Printer handles formatted output to a writer.
// Human status lines are suppressed in JSON mode; results go through WriteJSON.
type Printer struct {
	w      io.Writer
	errW   io.Writer
	json   bool
	isTTY  bool
	styles *Styles
}

// Styles holds lipgloss styles for human-readable output.
type Styles struct {
	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Bold    lipgloss.Style
	Dim     lipgloss.Style
	Title   lipgloss.Style
}

// NewPrinter creates a new Printer. Colors are only used when isTTY is true.
func NewPrinter(writer io.Writer, jsonMode bool, isTTY bool) *Printer {
	styles := &Styles{
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		Bold:    lipgloss.NewStyle().Bold(true),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
	}
	if !isTTY {
		plain := lipgloss.NewStyle()
		styles = &Styles{
			Error: plain, Success: plain, Warning: plain, Info: plain,
			Bold: plain, Dim: plain, Title: plain,
		}
	}
	return &Printer{
		w:      writer,
		errW:   writer,
		json:   jsonMode,
		isTTY:  isTTY,
		styles: styles,
	}
}

// WithStderr sets a separate writer for errors and warnings.
func (p *Printer) WithStderr(w io.Writer) *Printer {
	p.errW = w
	return p
}

// IsJSON returns true if the printer is in JSON mode.
func (p *Printer) IsJSON() bool { return p.json }

// IsTTY returns true if the printer output is a TTY.
func (p *Printer) IsTTY() bool { return p.isTTY }

// Styles exposes the active styles for callers composing their own lines.
func (p *Printer) Styles() *Styles { return p.styles }

// Title prints a bold section header.
func (p *Printer) Title(format string, args ...any) {
	if p.json {
		return
	}
	mustWrite(fmt.Fprintln(p.w, p.styles.Title.Render(fmt.Sprintf(format, args...))))
}

// Success prints a green confirmation line.
func (p *Printer) Success(format string, args ...any) {
	p.line(p.styles.Success, "✔ ", format, args...)
}

// Info prints a neutral status line.
func (p *Printer) Info(format string, args ...any) {
	p.line(p.styles.Info, "• ", format, args...)
}

// Step prints an unstyled progress line.
func (p *Printer) Step(format string, args ...any) {
	p.line(lipgloss.NewStyle(), "", format, args...)
}

// Warn writes a warning to the error writer. Warnings are kept in JSON mode
// because they go to stderr, not the structured stream.
func (p *Printer) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	mustWrite(fmt.Fprintf(p.errW, "%s %s\n", p.styles.Warning.Render("⚠"), msg))
}

// Error writes a styled error, and its hint if any, to the error writer.
func (p *Printer) Error(err error) {
	exitErr := &ExitError{}
	if !errors.As(err, &exitErr) {
		exitErr = &ExitError{Code: ExitUserError, Message: err.Error()}
	}
	if p.json {
		mustWrite(p.w.Write(ErrorJSON(exitErr.Error(), exitErr.Code)))
		mustWrite(fmt.Fprintln(p.w))
		return
	}
	mustWrite(fmt.Fprintf(p.errW, "%s %s\n", p.styles.Error.Render("✖"), exitErr.Error()))
	if exitErr.Hint != "" {
		mustWrite(fmt.Fprintf(p.errW, "  %s\n", p.styles.Dim.Render(exitErr.Hint)))
	}
}

// Print formats and writes to the output without a newline.
func (p *Printer) Print(format string, args ...any) {
	mustWrite(fmt.Fprintf(p.w, format, args...))
}

// Println writes a line to the output.
func (p *Printer) Println(args ...any) {
	mustWrite(fmt.Fprintln(p.w, args...))
}

// WriteJSON encodes data as indented JSON.
func (p *Printer) WriteJSON(data any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ErrorJSON returns {"error": "...", "code": N} bytes.
func ErrorJSON(message string, code int) []byte {
	result, _ := json.Marshal(map[string]any{"error": message, "code": code})
	return result
}

func (p *Printer) line(style lipgloss.Style, prefix, format string, args ...any) {
	if p.json {
		return
	}
	mustWrite(fmt.Fprintln(p.w, style.Render(prefix+fmt.Sprintf(format, args...))))
}

// mustWrite panics if a write to stdout, stderr or a buffer fails.
func mustWrite(_ int, err error) {
	if err != nil {
		panic(fmt.Sprintf("write failed: %v", err))
	}
}
