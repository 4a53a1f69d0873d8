package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTable_render(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, false, "FEATURE", "VERSION", "LINK")
	tbl.Row("splent_feature_auth", "v1.2.0", "ok")
	tbl.Row("notes", "(editable)")
	if err := tbl.Flush(); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines (header + 2 rows), got %d", len(lines))
	}
	if lines[0] != "FEATURE              VERSION     LINK" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "notes                (editable)") {
		t.Errorf("short row = %q", lines[2])
	}
	if tbl.Len() != 2 {
		t.Errorf("Len = %d", tbl.Len())
	}
}

func TestTable_emptyTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, false, "A", "B")
	if err := tbl.Flush(); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Errorf("expected 1 line (header only), got %d", len(lines))
	}
}

func TestTable_styledHeadersKeepAlignment(t *testing.T) {
	var plain, styled bytes.Buffer
	for _, tc := range []struct {
		buf    *bytes.Buffer
		styled bool
	}{{&plain, false}, {&styled, true}} {
		tbl := NewTable(tc.buf, tc.styled, "FEATURE", "LINK")
		tbl.Row("splent_feature_auth", "ok")
		if err := tbl.Flush(); err != nil {
			t.Fatal(err)
		}
	}

	bold := lipgloss.NewStyle().Bold(true)
	want := strings.Replace(plain.String(), "FEATURE", bold.Render("FEATURE"), 1)
	want = strings.Replace(want, "LINK", bold.Render("LINK"), 1)
	if styled.String() != want {
		t.Errorf("styled table:\n%q\nwant\n%q", styled.String(), want)
	}
	rows := strings.Split(styled.String(), "\n")
	if rows[1] != strings.Split(plain.String(), "\n")[1] {
		t.Errorf("data row changed by styling: %q", rows[1])
	}
}
