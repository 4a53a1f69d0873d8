package manifest

import (
	"slices"

	"github.com/diverso-lab/splent-cli/internal/feature"
)

// FileName is the product manifest file name.
const FileName = "pyproject.toml"

// Project is the subset of a product pyproject.toml the CLI cares about.
type Project struct {
	Name         string
	Version      string
	Dependencies []string
	Features     []string

	// FeaturesDefined is true when [project.optional-dependencies].features
	// is present in the file, even if empty.
	FeaturesDefined bool
	// Fallback is true when strict decoding failed and the features array
	// was recovered by pattern matching.
	Fallback bool
}

// Refs parses every feature entry. Entries without a namespace get defaultNS.
func (p *Project) Refs(defaultNS string) ([]feature.Ref, error) {
	refs := make([]feature.Ref, 0, len(p.Features))
	for _, entry := range p.Features {
		r, err := feature.Parse(entry, defaultNS)
		if err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, nil
}

// Find returns the first entry naming the same feature as r, at any version.
func (p *Project) Find(r feature.Ref, defaultNS string) (feature.Ref, bool) {
	for _, entry := range p.Features {
		got, err := feature.Parse(entry, defaultNS)
		if err == nil && feature.SameFeature(got, r) {
			return got, true
		}
	}
	return feature.Ref{}, false
}

// FindByName returns the first entry whose feature name is name, in any
// namespace.
func (p *Project) FindByName(name, defaultNS string) (feature.Ref, bool) {
	for _, entry := range p.Features {
		got, err := feature.Parse(entry, defaultNS)
		if err == nil && got.Name == name {
			return got, true
		}
	}
	return feature.Ref{}, false
}

// HasEntry reports whether entry is declared verbatim.
func (p *Project) HasEntry(entry string) bool {
	return slices.Contains(p.Features, entry)
}

// AddFeature appends entry unless it is already declared.
func (p *Project) AddFeature(entry string) bool {
	if p.HasEntry(entry) {
		return false
	}
	p.Features = append(p.Features, entry)
	p.FeaturesDefined = true
	return true
}

// RemoveFeature drops the entries naming r. With anyVersion the version of r
// is ignored; otherwise only exact matches go. Returns the removed entries.
func (p *Project) RemoveFeature(r feature.Ref, defaultNS string, anyVersion bool) []string {
	var kept, removed []string
	for _, entry := range p.Features {
		got, err := feature.Parse(entry, defaultNS)
		match := err == nil && feature.SameFeature(got, r) && (anyVersion || got.Version == r.Version)
		if match {
			removed = append(removed, entry)
			continue
		}
		kept = append(kept, entry)
	}
	p.Features = kept
	return removed
}

// ReplaceFeature swaps the exact entry old for repl. Returns false when old
// is not declared.
func (p *Project) ReplaceFeature(old, repl string) bool {
	i := slices.Index(p.Features, old)
	if i < 0 {
		return false
	}
	p.Features[i] = repl
	p.Features = dedupe(p.Features)
	return true
}

// UpsertFeature rewrites the first entry naming the same feature as r to
// r.String() and drops any further duplicates, or appends r when no entry
// matches. Returns the previous entry, if any.
func (p *Project) UpsertFeature(r feature.Ref, defaultNS string) (string, bool) {
	var prev string
	var found bool
	out := make([]string, 0, len(p.Features)+1)
	for _, entry := range p.Features {
		got, err := feature.Parse(entry, defaultNS)
		if err == nil && feature.SameFeature(got, r) {
			if !found {
				prev, found = entry, true
				out = append(out, r.String())
			}
			continue
		}
		out = append(out, entry)
	}
	if !found {
		out = append(out, r.String())
	}
	p.Features = out
	p.FeaturesDefined = true
	return prev, found
}

func dedupe(entries []string) []string {
	seen := make(map[string]bool, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
