package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func press(q question, keys ...string) question {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ := q.Update(msg)
		q = m.(question)
	}
	return q
}

func TestQuestion_choices(t *testing.T) {
	menu := question{title: "mode", choices: []string{"dev", "prod", "Exit"}}
	tests := []struct {
		name        string
		q           question
		keys        []string
		wantCursor  int
		wantAborted bool
	}{
		{"menu enter", menu, []string{"enter"}, 0, false},
		{"menu down", menu, []string{"down", "j", "enter"}, 2, false},
		{"menu stops at end", menu, []string{"down", "down", "down", "enter"}, 2, false},
		{"menu stops at start", menu, []string{"up", "enter"}, 0, false},
		{"menu quit", menu, []string{"q"}, 0, true},
		{"confirm default", yesNoQuestion("ok?"), []string{"enter"}, 1, false},
		{"confirm y", yesNoQuestion("ok?"), []string{"y"}, 0, false},
		{"confirm N", yesNoQuestion("ok?"), []string{"N"}, 1, false},
		{"confirm wraps", yesNoQuestion("ok?"), []string{"tab", "enter"}, 0, false},
		{"confirm esc", yesNoQuestion("ok?"), []string{"esc"}, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := press(tt.q, tt.keys...)
			if got.aborted != tt.wantAborted {
				t.Fatalf("aborted = %v, want %v", got.aborted, tt.wantAborted)
			}
			if !tt.wantAborted && (!got.answered || got.cursor != tt.wantCursor) {
				t.Errorf("answered = %v, cursor = %d, want %d", got.answered, got.cursor, tt.wantCursor)
			}
		})
	}
}

func TestQuestion_fieldValidates(t *testing.T) {
	q := question{title: "GitHub username", field: newField("", false), check: requireNonEmpty("username")}

	q = press(q, "enter")
	if q.answered || q.problem != "username is required" {
		t.Fatalf("answered = %v, problem = %q", q.answered, q.problem)
	}
	if !strings.Contains(q.View(), "username is required") {
		t.Errorf("view = %q", q.View())
	}

	q = press(q, "q", "enter")
	if !q.answered || q.field.Value() != "q" {
		t.Errorf("answered = %v, value = %q", q.answered, q.field.Value())
	}
	if q.View() != "" {
		t.Errorf("view after answer = %q", q.View())
	}
}

func TestPrompts_needTerminal(t *testing.T) {
	if _, err := promptInput("GitHub username", "", nil); err == nil {
		t.Error("promptInput succeeded without a terminal")
	}
	if _, err := promptSelect("mode", []string{"dev"}); err == nil {
		t.Error("promptSelect succeeded without a terminal")
	}
	ok, err := confirm(false, "--yes", "Delete?")
	assertExitCode(t, err, 1)
	if ok {
		t.Error("confirm returned true without a terminal")
	}
	if ok, err := confirm(true, "--yes", "Delete?"); err != nil || !ok {
		t.Errorf("confirm with skip = %v, %v", ok, err)
	}
}
