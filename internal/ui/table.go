package ui

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

// Table renders rows of data in aligned columns.
type Table struct {
	out     io.Writer
	buf     bytes.Buffer
	w       *tabwriter.Writer
	headers []string
	styled  bool
	rows    int
}

// NewTable creates a table writer with the given column headers. Headers are
// printed in bold when styled is true.
func NewTable(out io.Writer, styled bool, headers ...string) *Table {
	t := &Table{out: out, headers: headers, styled: styled}
	t.w = tabwriter.NewWriter(&t.buf, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(t.w, strings.Join(headers, "\t"))
	return t
}

// Row appends a row of values. Missing trailing cells are left blank.
func (t *Table) Row(values ...any) {
	n := max(len(values), len(t.headers))
	parts := make([]string, n)
	for i, v := range values {
		parts[i] = fmt.Sprintf("%v", v)
	}
	_, _ = fmt.Fprintln(t.w, strings.Join(parts, "\t"))
	t.rows++
}

// Len returns the number of rows written.
func (t *Table) Len() int { return t.rows }

// Flush aligns the buffered rows and writes them out. Styling is applied to
// the already padded header so escape codes do not count as column width.
func (t *Table) Flush() error {
	if err := t.w.Flush(); err != nil {
		return err
	}
	data := t.buf.Bytes()
	if t.styled {
		data = boldHeaders(data, t.headers)
	}
	t.buf.Reset()
	_, err := t.out.Write(data)
	return err
}

func boldHeaders(data []byte, headers []string) []byte {
	end := bytes.IndexByte(data, '\n')
	if end < 0 {
		end = len(data)
	}
	line := string(data[:end])
	bold := lipgloss.NewStyle().Bold(true)

	var b strings.Builder
	pos := 0
	for _, h := range headers {
		i := strings.Index(line[pos:], h)
		if h == "" || i < 0 {
			continue
		}
		b.WriteString(line[pos : pos+i])
		b.WriteString(bold.Render(h))
		pos += i + len(h)
	}
	b.WriteString(line[pos:])
	return append([]byte(b.String()), data[end:]...)
}
