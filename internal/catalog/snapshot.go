// Package catalog reconciles the files under a deck root with the files a
// table has already ingested.
package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileRef is a file under a root directory. RelPath is slash separated and is
// the value stored as file_desc.
type FileRef struct {
	Root    string
	RelPath string
}

// Path returns the absolute path of the file.
func (r FileRef) Path() string {
	return filepath.Join(r.Root, filepath.FromSlash(r.RelPath))
}

// FileDate extracts the file's nominal date.
func (r FileRef) FileDate() (string, error) {
	return ExtractFileDate(r.RelPath)
}

func (r FileRef) String() string {
	return r.RelPath
}

// ScanOptions filters what Scan lists.
type ScanOptions struct {
	// Match reports whether a relative path should be listed. Nil lists
	// every regular file.
	Match func(relPath string) bool
}

// Snapshot is one listing of a root directory. New and deleted files are both
// computed from the same snapshot so a file replaced between two listings
// cannot be reported inconsistently.
//
// Files holds only what the scan options select. Every entry seen on disk is
// also recorded, unfiltered, so a cataloged file that the filter excludes is
// never mistaken for a deleted one.
type Snapshot struct {
	TakenAt time.Time
	index   map[string]struct{}
	present map[string]struct{}
	Root    string
	Files   []FileRef
}

// NormalizeRoot makes root absolute and clean so "/data/" and "/data" key
// the same files.
func NormalizeRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", fmt.Errorf("root directory is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	return filepath.Clean(abs), nil
}

// NormalizeDesc puts a stored file_desc in the same form Scan produces.
func NormalizeDesc(desc string) string {
	d := strings.ReplaceAll(strings.TrimSpace(desc), `\`, "/")
	d = path.Clean("/" + d)
	return strings.TrimPrefix(d, "/")
}

// Scan lists the regular files under root. Hidden entries and spreadsheet
// lock files (~$name.xlsx) are left out of Files, as is anything opts.Match
// rejects, but they still count as present on disk.
func Scan(ctx context.Context, root string, opts ScanOptions) (*Snapshot, error) {
	normRoot, err := NormalizeRoot(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(normRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", normRoot)
	}

	snap := &Snapshot{
		Root:    normRoot,
		TakenAt: time.Now(),
		index:   make(map[string]struct{}),
		present: make(map[string]struct{}),
	}

	walkErr := filepath.WalkDir(normRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(normRoot, p)
		if err != nil {
			return fmt.Errorf("failed to relativize %s: %w", p, err)
		}
		rel = filepath.ToSlash(rel)
		snap.present[rel] = struct{}{}

		if !d.Type().IsRegular() || isHidden(rel) || strings.HasPrefix(d.Name(), "~$") {
			return nil
		}
		if opts.Match != nil && !opts.Match(rel) {
			return nil
		}

		snap.Files = append(snap.Files, FileRef{Root: normRoot, RelPath: rel})
		snap.index[rel] = struct{}{}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", normRoot, walkErr)
	}

	sort.Slice(snap.Files, func(i, j int) bool { return snap.Files[i].RelPath < snap.Files[j].RelPath })
	return snap, nil
}

// Has reports whether the snapshot lists relPath.
func (s *Snapshot) Has(relPath string) bool {
	_, ok := s.index[NormalizeDesc(relPath)]
	return ok
}

// OnDisk reports whether relPath existed under the root when the snapshot
// was taken, whether or not it was listed.
func (s *Snapshot) OnDisk(relPath string) bool {
	_, ok := s.present[NormalizeDesc(relPath)]
	return ok
}

// HasPath reports whether the snapshot lists the absolute path p.
func (s *Snapshot) HasPath(p string) bool {
	rel, err := filepath.Rel(s.Root, filepath.Clean(p))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return s.Has(filepath.ToSlash(rel))
}

// isHidden reports whether any element of the slash separated path starts
// with a dot.
func isHidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
