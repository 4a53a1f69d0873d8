package feature

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LinkState describes a product symlink relative to its expected target.
type LinkState int

const (
	LinkOK LinkState = iota
	LinkMissing
	LinkNotSymlink
	LinkBroken
	LinkWrongTarget
)

func (s LinkState) String() string {
	switch s {
	case LinkOK:
		return "ok"
	case LinkMissing:
		return "missing"
	case LinkNotSymlink:
		return "not a symlink"
	case LinkBroken:
		return "broken"
	case LinkWrongTarget:
		return "wrong target"
	default:
		return "unknown"
	}
}

// Link points link at target, replacing whatever was there.
// Parent directories are created as needed.
func Link(target, link string) error {
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(link), err)
	}
	if info, err := os.Lstat(link); err == nil {
		if info.IsDir() && info.Mode()&os.ModeSymlink == 0 {
			return fmt.Errorf("%s is a directory, not a symlink", link)
		}
		if err := os.Remove(link); err != nil {
			return fmt.Errorf("removing old link %s: %w", link, err)
		}
	}
	if err := os.Symlink(target, link); err != nil {
		return fmt.Errorf("linking %s -> %s: %w", link, target, err)
	}
	return nil
}

// Unlink removes a symlink. It is a no-op when nothing is there and refuses
// to remove real directories.
func Unlink(link string) (bool, error) {
	info, err := os.Lstat(link)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return false, fmt.Errorf("%s is not a symlink", link)
	}
	if err := os.Remove(link); err != nil {
		return false, fmt.Errorf("removing link %s: %w", link, err)
	}
	return true, nil
}

// CheckLink classifies link against the expected target.
func CheckLink(link, target string) LinkState {
	info, err := os.Lstat(link)
	if err != nil {
		return LinkMissing
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return LinkNotSymlink
	}
	resolved, err := filepath.EvalSymlinks(link)
	if err != nil {
		return LinkBroken
	}
	want, err := filepath.EvalSymlinks(target)
	if err != nil {
		return LinkBroken
	}
	if resolved != want {
		return LinkWrongTarget
	}
	return LinkOK
}

// Resolve returns the real directory a product link points to.
func Resolve(link string) (string, error) {
	p, err := filepath.EvalSymlinks(link)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", link, err)
	}
	return p, nil
}

// Cached is a feature checkout found in the cache.
type Cached struct {
	Ref Ref
	Dir string
}

// ScanCache lists every cached feature, sorted by namespace then directory.
// The namespace in the returned refs is the escaped directory name.
func ScanCache(workspace string) ([]Cached, error) {
	return scanTwoLevels(CacheRoot(workspace), func(path string, d fs.DirEntry) bool {
		return d.IsDir()
	})
}

// ScanLinks lists the feature links of a product, including broken ones.
func ScanLinks(productDir string) ([]Cached, error) {
	return scanTwoLevels(LinksRoot(productDir), func(path string, d fs.DirEntry) bool {
		return d.Type()&os.ModeSymlink != 0
	})
}

// RemoveBrokenLinks deletes dangling symlinks under <product>/features and
// returns how many were removed.
func RemoveBrokenLinks(productDir string) (int, error) {
	links, err := ScanLinks(productDir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, l := range links {
		if _, err := os.Stat(l.Dir); err == nil {
			continue
		}
		if err := os.Remove(l.Dir); err != nil {
			return removed, fmt.Errorf("removing broken link %s: %w", l.Dir, err)
		}
		removed++
	}
	return removed, nil
}

func scanTwoLevels(root string, keep func(string, fs.DirEntry) bool) ([]Cached, error) {
	namespaces, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}

	var out []Cached
	for _, ns := range namespaces {
		if !ns.IsDir() {
			continue
		}
		nsDir := filepath.Join(root, ns.Name())
		entries, err := os.ReadDir(nsDir)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", nsDir, err)
		}
		for _, e := range entries {
			p := filepath.Join(nsDir, e.Name())
			if strings.HasPrefix(e.Name(), ".") || !keep(p, e) {
				continue
			}
			name, version, _ := strings.Cut(e.Name(), "@")
			out = append(out, Cached{
				Ref: Ref{Namespace: ns.Name(), Name: name, Version: version},
				Dir: p,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dir < out[j].Dir })
	return out, nil
}
