// Package logging configures the process-wide zerolog logger.
//
// Diagnostic logs go to stderr and stay at warn level unless SPLENT_LOG_LEVEL
// or --verbose raises them. User-facing status output does not go through
// here; see package output.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel   = "SPLENT_LOG_LEVEL"
	EnvLogNoColor = "SPLENT_LOG_NOCOLOR"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

var configureOnce sync.Once

// ConfigureRuntime sets up logging for the CLI binary.
func ConfigureRuntime() {
	Configure(ProfileRuntime, os.Stderr)
}

// ConfigureTests sets up logging for test binaries.
func ConfigureTests() {
	Configure(ProfileTest, os.Stderr)
}

// Configure installs the global logger. Only the first call has an effect.
func Configure(profile Profile, out io.Writer) {
	configureOnce.Do(func() {
		level, noColor := defaults(profile)
		if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
			level = lvl
		}
		if v, err := strconv.ParseBool(os.Getenv(EnvLogNoColor)); err == nil {
			noColor = v
		}

		writer := zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    noColor,
		}
		log.Logger = zerolog.New(writer).With().Timestamp().Str("app", "splent").Logger()
		zerolog.SetGlobalLevel(level)
	})
}

// SetVerbose lowers the global level to debug.
func SetVerbose(verbose bool) {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func defaults(profile Profile) (zerolog.Level, bool) {
	switch profile {
	case ProfileTest:
		return zerolog.Disabled, true
	default:
		return zerolog.WarnLevel, false
	}
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.WarnLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "off", "disabled", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.WarnLevel, false
	}
}
