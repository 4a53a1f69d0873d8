package ui

import (
	"fmt"
	"io"
	"sync"
)

// Progress counts per-feature outcomes and prints one [n/total] line each.
// It is safe for use from a worker pool.
type Progress struct {
	out   io.Writer
	total int

	mu      sync.Mutex
	done    int
	ok      int
	skipped int
	failed  []string
}

// NewProgress creates a progress tracker for total items.
func NewProgress(out io.Writer, total int) *Progress {
	return &Progress{out: out, total: total}
}

// OK records a success.
func (p *Progress) OK(label string) {
	p.record(label, "ok", func() { p.ok++ })
}

// Skip records an item that needed no work.
func (p *Progress) Skip(label, reason string) {
	p.record(label, "skipped: "+reason, func() { p.skipped++ })
}

// Fail records a failure. Failed labels are kept for the summary.
func (p *Progress) Fail(label string, err error) {
	p.record(label, "failed: "+err.Error(), func() { p.failed = append(p.failed, label) })
}

func (p *Progress) record(label, status string, count func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	count()
	_, _ = fmt.Fprintf(p.out, "[%d/%d] %s %s\n", p.done, p.total, label, status)
}

// Log prints an informational message within the progress context.
func (p *Progress) Log(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// Summary is the final tally.
type Summary struct {
	OK      int      `json:"ok"`
	Skipped int      `json:"skipped"`
	Failed  []string `json:"failed"`
}

// Summary returns the counts so far.
func (p *Progress) Summary() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Summary{OK: p.ok, Skipped: p.skipped, Failed: append([]string(nil), p.failed...)}
}
