package feature

import (
	"fmt"
	"strings"
)

// Ref identifies a feature, optionally pinned to a version.
type Ref struct {
	Namespace string
	Name      string
	Version   string
}

// Parse reads "ns/name@ver", "ns/name", "name@ver" or "name". A missing
// namespace is filled with defaultNS.
func Parse(s, defaultNS string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, fmt.Errorf("empty feature reference")
	}

	ns := defaultNS
	rest := s
	if i := strings.Index(s, "/"); i >= 0 {
		ns, rest = s[:i], s[i+1:]
		if ns == "" {
			return Ref{}, fmt.Errorf("feature %q: empty namespace", s)
		}
	}

	name, version, pinned := strings.Cut(rest, "@")
	switch {
	case name == "":
		return Ref{}, fmt.Errorf("feature %q: empty name", s)
	case strings.ContainsAny(name, `/\`):
		return Ref{}, fmt.Errorf("feature %q: name must not contain path separators", s)
	case name == "." || name == "..":
		return Ref{}, fmt.Errorf("feature %q: invalid name", s)
	case pinned && version == "":
		return Ref{}, fmt.Errorf("feature %q: empty version after @", s)
	case strings.ContainsAny(version, `/\@`):
		return Ref{}, fmt.Errorf("feature %q: invalid version %q", s, version)
	}
	if ns == "" {
		return Ref{}, fmt.Errorf("feature %q: no namespace and no default namespace", s)
	}

	return Ref{Namespace: ns, Name: name, Version: version}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s, defaultNS string) Ref {
	r, err := Parse(s, defaultNS)
	if err != nil {
		panic(err)
	}
	return r
}

// NamespaceSafe escapes a namespace for use as a directory or Python package.
func NamespaceSafe(ns string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(ns)
}

// SafeNamespace returns the escaped namespace of r.
func (r Ref) SafeNamespace() string { return NamespaceSafe(r.Namespace) }

// Editable reports whether r is unpinned.
func (r Ref) Editable() bool { return r.Version == "" }

// DirName returns the cache and link directory name: name or name@version.
func (r Ref) DirName() string {
	if r.Version == "" {
		return r.Name
	}
	return r.Name + "@" + r.Version
}

// String renders the pyproject entry form.
func (r Ref) String() string {
	return r.Namespace + "/" + r.DirName()
}

// WithVersion returns r pinned to v.
func (r Ref) WithVersion(v string) Ref {
	r.Version = v
	return r
}

// Unversioned returns the editable form of r.
func (r Ref) Unversioned() Ref {
	r.Version = ""
	return r
}

// SameFeature reports whether a and b name the same feature, ignoring the
// version and namespace escaping.
func SameFeature(a, b Ref) bool {
	return a.Name == b.Name && a.SafeNamespace() == b.SafeNamespace()
}

// Equal reports whether a and b are the same feature at the same version.
func Equal(a, b Ref) bool {
	return SameFeature(a, b) && a.Version == b.Version
}
