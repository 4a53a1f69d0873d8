// Package envfile reads, edits and writes KEY=VALUE .env files.
//
// Comments, blank lines and the quoting of untouched entries survive a
// read/modify/write cycle.
package envfile

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one line of a .env file. Comment and blank lines have an empty Key.
type Entry struct {
	Key   string
	Value string
	raw   string
}

// File is an ordered .env document.
type File struct {
	entries []Entry
	index   map[string]int
}

// New returns an empty file.
func New() *File {
	return &File{index: map[string]int{}}
}

// maxLine bounds a single .env line, enough for inlined certificates.
const maxLine = 1 << 20

// Parse reads .env content. Malformed lines are kept verbatim.
func Parse(data []byte) (*File, error) {
	f := New()
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			f.entries = append(f.entries, Entry{raw: line})
			continue
		}
		key, value, ok := parseEnvLine(trimmed)
		if !ok {
			f.entries = append(f.entries, Entry{raw: line})
			continue
		}
		if i, dup := f.index[key]; dup {
			// Last assignment wins, as with shell sourcing.
			f.entries[i] = Entry{Key: key, Value: value, raw: line}
			continue
		}
		f.index[key] = len(f.entries)
		f.entries = append(f.entries, Entry{Key: key, Value: value, raw: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parsing env file: %w", err)
	}
	return f, nil
}

// Read parses the file at path. The returned error wraps fs.ErrNotExist
// when the file is missing.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // env file inside the workspace
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ReadOrEmpty parses path, returning an empty file when it does not exist.
func ReadOrEmpty(path string) (*File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}
	return Read(path)
}

// Get returns the value for key.
func (f *File) Get(key string) (string, bool) {
	i, ok := f.index[key]
	if !ok {
		return "", false
	}
	return f.entries[i].Value, true
}

// Set updates key in place or appends it.
func (f *File) Set(key, value string) {
	if i, ok := f.index[key]; ok {
		f.entries[i] = Entry{Key: key, Value: value}
		return
	}
	f.index[key] = len(f.entries)
	f.entries = append(f.entries, Entry{Key: key, Value: value})
}

// Keys returns the defined keys in file order.
func (f *File) Keys() []string {
	keys := make([]string, 0, len(f.index))
	for _, e := range f.entries {
		if e.Key != "" {
			keys = append(keys, e.Key)
		}
	}
	return keys
}

// Map returns the key/value pairs.
func (f *File) Map() map[string]string {
	m := make(map[string]string, len(f.index))
	for _, e := range f.entries {
		if e.Key != "" {
			m[e.Key] = e.Value
		}
	}
	return m
}

// Len returns the number of defined keys.
func (f *File) Len() int { return len(f.index) }

// Bytes renders the file.
func (f *File) Bytes() []byte {
	var b bytes.Buffer
	for _, e := range f.entries {
		switch {
		case e.raw != "":
			b.WriteString(e.raw)
		case e.Key != "":
			b.WriteString(e.Key + "=" + e.Value)
		}
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// Write saves the file, creating parent directories.
func (f *File) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, f.Bytes(), 0o644); err != nil { //nolint:gosec // .env files are read by docker compose
		return fmt.Errorf("writing env file %s: %w", path, err)
	}
	return nil
}

// Merge copies src keys into dst. With overwrite, src values replace
// existing ones; without it, only missing keys are added. It returns the
// number of keys written.
func Merge(dst, src *File, overwrite bool) int {
	n := 0
	for _, e := range src.entries {
		if e.Key == "" {
			continue
		}
		if _, exists := dst.index[e.Key]; exists && !overwrite {
			continue
		}
		dst.Set(e.Key, e.Value)
		n++
	}
	return n
}

// parseEnvLine extracts KEY=VALUE from a line.
// Handles an optional export prefix and matching quotes around the value.
func parseEnvLine(line string) (key, value string, ok bool) {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}

	key = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[0]), "export "))
	value = strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", false
	}

	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return key, value, true
}
