package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw    string
		want   zerolog.Level
		wantOK bool
	}{
		{"", zerolog.WarnLevel, false},
		{"debug", zerolog.DebugLevel, true},
		{" INFO ", zerolog.InfoLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.WarnLevel, false},
	}
	for _, tt := range tests {
		got, ok := parseLevel(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseLevel(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDefaults(t *testing.T) {
	if lvl, _ := defaults(ProfileTest); lvl != zerolog.Disabled {
		t.Errorf("test profile level = %v, want disabled", lvl)
	}
	if lvl, _ := defaults(ProfileRuntime); lvl != zerolog.WarnLevel {
		t.Errorf("runtime profile level = %v, want warn", lvl)
	}
}
