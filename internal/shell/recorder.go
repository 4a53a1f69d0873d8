package shell

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Response is a scripted reply for Recorder.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Recorder is a Runner that records invocations and replies from a script.
// Responses are matched by the longest command-line prefix; unmatched calls
// succeed with empty output.
type Recorder struct {
	mu        sync.Mutex
	Calls     []Cmd
	responses map[string]Response
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{responses: map[string]Response{}}
}

// On scripts the response for commands starting with prefix.
func (r *Recorder) On(prefix string, resp Response) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[prefix] = resp
	return r
}

// Run records c and returns the scripted response.
func (r *Recorder) Run(_ context.Context, c Cmd) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, c)

	line := c.String()
	best := ""
	for prefix := range r.responses {
		if strings.HasPrefix(line, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	resp := r.responses[best]
	if c.Stdout != nil && resp.Stdout != "" {
		_, _ = fmt.Fprint(c.Stdout, resp.Stdout)
	}
	res := Result{Stdout: []byte(resp.Stdout), Stderr: []byte(resp.Stderr), ExitCode: resp.ExitCode}
	if resp.ExitCode != 0 {
		return res, &Error{Cmd: line, ExitCode: resp.ExitCode, Stderr: resp.Stderr, Err: fmt.Errorf("exit status %d", resp.ExitCode)}
	}
	return res, nil
}

// Start records c like Run. A scripted non-zero exit fails the start.
func (r *Recorder) Start(c Cmd) error {
	_, err := r.Run(context.Background(), Cmd{Name: c.Name, Args: c.Args, Dir: c.Dir, Env: c.Env})
	return err
}

// Lines returns the recorded command lines.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		out[i] = c.String()
	}
	return out
}
