package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/diverso-lab/splent-cli/internal/output"
)

var (
	questionStyle = lipgloss.NewStyle().Bold(true)
	problemStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
)

var errAborted = output.NewUserError("aborted")

// stdinIsTerminal reports whether prompts can be shown.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // fd fits in int
}

// question is the single bubbletea model behind every splent prompt. With a
// field it reads free text; otherwise it picks one of choices, laid out on
// one line when inline is set. keys maps shortcut keys to choice indexes.
type question struct {
	title   string
	field   *textinput.Model
	check   func(string) error
	choices []string
	keys    map[string]int
	inline  bool

	cursor   int
	problem  string
	answered bool
	aborted  bool
}

func (q question) Init() tea.Cmd {
	if q.field != nil {
		return textinput.Blink
	}
	return nil
}

func (q question) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if ok {
		switch k := key.String(); {
		case k == "ctrl+c" || k == "esc" || (k == "q" && q.field == nil):
			q.aborted = true
			return q, tea.Quit
		case k == "enter":
			if q.field != nil && q.check != nil {
				if err := q.check(q.field.Value()); err != nil {
					q.problem = err.Error()
					return q, nil
				}
			}
			q.answered = true
			return q, tea.Quit
		case q.field == nil:
			if i, hit := q.keys[k]; hit {
				q.cursor = i
				q.answered = true
				return q, tea.Quit
			}
			q.move(k)
			return q, nil
		}
	}
	if q.field == nil {
		return q, nil
	}
	q.problem = ""
	var cmd tea.Cmd
	*q.field, cmd = q.field.Update(msg)
	return q, cmd
}

// move steps the cursor, wrapping for inline choices.
func (q *question) move(key string) {
	n := len(q.choices)
	switch key {
	case "up", "k", "left", "h", "shift+tab":
		switch {
		case q.cursor > 0:
			q.cursor--
		case q.inline:
			q.cursor = n - 1
		}
	case "down", "j", "right", "l", "tab":
		switch {
		case q.cursor < n-1:
			q.cursor++
		case q.inline:
			q.cursor = 0
		}
	}
}

func (q question) View() string {
	if q.answered {
		return ""
	}
	var b strings.Builder
	b.WriteString(questionStyle.Render(q.title))
	switch {
	case q.field != nil:
		b.WriteString("\n" + q.field.View() + "\n")
		if q.problem != "" {
			b.WriteString(problemStyle.Render(q.problem) + "\n")
		}
	case q.inline:
		for i, c := range q.choices {
			if i > 0 {
				b.WriteString(" /")
			}
			if i == q.cursor {
				c = cursorStyle.Render(c)
			}
			b.WriteString(" " + c)
		}
		b.WriteString("\n")
	default:
		b.WriteString("\n")
		for i, c := range q.choices {
			if i == q.cursor {
				fmt.Fprintf(&b, "> %s\n", cursorStyle.Render(c))
				continue
			}
			fmt.Fprintf(&b, "  %s\n", c)
		}
	}
	return b.String()
}

// ask runs q on the terminal and returns the finished model. hint names the
// non-interactive alternative, if any.
func ask(q question, hint string) (question, error) {
	if !stdinIsTerminal() {
		err := output.NewUserError("%s: stdin is not a terminal", q.title)
		if hint != "" {
			err = err.WithHint("%s", hint)
		}
		return q, err
	}
	result, err := tea.NewProgram(q).Run()
	if err != nil {
		return q, err
	}
	done := result.(question)
	if done.aborted {
		return done, errAborted
	}
	return done, nil
}

func newField(placeholder string, secret bool) *textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	ti.Focus()
	return &ti
}

func promptInput(title, placeholder string, validate func(string) error) (string, error) {
	q, err := ask(question{title: title, field: newField(placeholder, false), check: validate},
		"pass the value with a flag instead")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(q.field.Value()), nil
}

// promptSecret reads a value without echoing it.
func promptSecret(title string, validate func(string) error) (string, error) {
	q, err := ask(question{title: title, field: newField("", true), check: validate},
		"pass the value with a flag instead")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(q.field.Value()), nil
}

// yesNoQuestion is the inline Yes / No pair with No preselected.
func yesNoQuestion(title string) question {
	return question{
		title:   title,
		choices: []string{"Yes", "No"},
		keys:    map[string]int{"y": 0, "Y": 0, "n": 1, "N": 1},
		inline:  true,
		cursor:  1,
	}
}

func promptConfirm(title string) (bool, error) {
	q, err := ask(yesNoQuestion(title), "")
	if err != nil {
		return false, err
	}
	return q.cursor == 0, nil
}

func promptSelect(title string, options []string) (int, error) {
	q, err := ask(question{title: title, choices: options}, "")
	if err != nil {
		return 0, err
	}
	return q.cursor, nil
}

// confirm asks title unless skip is set. Without a terminal it refuses
// rather than block, naming the bypass flag.
func confirm(skip bool, bypass, title string) (bool, error) {
	if skip {
		return true, nil
	}
	if !stdinIsTerminal() {
		return false, output.NewUserError("confirmation required: %s", title).
			WithHint("rerun with %s to proceed without prompting", bypass)
	}
	return promptConfirm(title)
}

func requireNonEmpty(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}
