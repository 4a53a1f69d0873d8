package ui

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestProgress_outcomes(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 3)

	p.OK("auth@v1.0.0")
	p.Skip("notes", "editable")
	p.Fail("public@v1.0.0", errors.New("clone failed"))

	out := buf.String()
	for _, want := range []string{
		"[1/3] auth@v1.0.0 ok",
		"[2/3] notes skipped: editable",
		"[3/3] public@v1.0.0 failed: clone failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	s := p.Summary()
	if s.OK != 1 || s.Skipped != 1 || len(s.Failed) != 1 || s.Failed[0] != "public@v1.0.0" {
		t.Errorf("summary = %+v", s)
	}
}

func TestProgress_concurrent(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 20)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.OK("x")
		}()
	}
	wg.Wait()
	if got := p.Summary().OK; got != 20 {
		t.Errorf("OK = %d, want 20", got)
	}
	if !strings.Contains(buf.String(), "[20/20]") {
		t.Error("last line should read [20/20]")
	}
}

func TestProgress_Log(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 1)
	p.Log("hello %s", "world")
	if !strings.Contains(buf.String(), "hello world") {
		t.Errorf("missing log message: %s", buf.String())
	}
}
