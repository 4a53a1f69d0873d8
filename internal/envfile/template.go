package envfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Placeholder marks values the operator must fill in before deploying.
const Placeholder = "<SET>"

var sensitiveMarkers = []string{"TOKEN", "SECRET", "PASSWORD", "KEY"}

// IsSensitive reports whether a key holds a credential.
func IsSensitive(key string) bool {
	upper := strings.ToUpper(key)
	for _, m := range sensitiveMarkers {
		if strings.Contains(upper, m) {
			return true
		}
	}
	return false
}

// Mask hides credential values, keeping a short prefix and suffix of long ones.
func Mask(key, value string) string {
	if !IsSensitive(key) {
		return value
	}
	if len(value) > 10 {
		return value[:6] + "..." + value[len(value)-4:]
	}
	return "********"
}

// FirstExisting returns the first of names that exists as a file in dir.
func FirstExisting(dir string, names ...string) (string, bool) {
	for _, name := range names {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// TemplateNames lists the env templates tried for env, most specific first.
func TemplateNames(env string) []string {
	return []string{".env." + env + ".example", ".env.example"}
}

// CopyIfMissing copies src to dst unless dst already exists.
// It reports whether a copy happened.
func CopyIfMissing(src, dst string) (bool, error) {
	if _, err := os.Stat(dst); err == nil {
		return false, nil
	}
	in, err := os.Open(src) //nolint:gosec // template inside the workspace
	if err != nil {
		return false, fmt.Errorf("opening template %s: %w", src, err)
	}
	defer in.Close() //nolint:errcheck // read-only

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644) //nolint:gosec // .env is read by docker compose
	if err != nil {
		return false, fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return false, fmt.Errorf("copying %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return false, fmt.Errorf("closing %s: %w", dst, err)
	}
	return true, nil
}

// Unset returns the keys whose value is still the deploy placeholder.
func (f *File) Unset() []string {
	var keys []string
	for _, e := range f.entries {
		if e.Key != "" && strings.TrimSpace(e.Value) == Placeholder {
			keys = append(keys, e.Key)
		}
	}
	return keys
}
