package catalog

import "sort"

// Cataloged is the set of file_desc values a table already holds. A nil
// Cataloged means the table does not exist yet.
type Cataloged map[string]struct{}

// NewCataloged builds a set from stored file_desc values.
func NewCataloged(descs []string) Cataloged {
	c := make(Cataloged, len(descs))
	for _, d := range descs {
		if n := NormalizeDesc(d); n != "" {
			c[n] = struct{}{}
		}
	}
	return c
}

// Has reports whether desc is cataloged.
func (c Cataloged) Has(desc string) bool {
	_, ok := c[NormalizeDesc(desc)]
	return ok
}

// Sorted returns the cataloged descs in order.
func (c Cataloged) Sorted() []string {
	out := make([]string, 0, len(c))
	for d := range c {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// NewFiles returns the files in snap whose relative path is not cataloged.
// When the table does not exist every file is new.
func NewFiles(snap *Snapshot, cataloged Cataloged) []FileRef {
	if cataloged == nil {
		return append([]FileRef(nil), snap.Files...)
	}

	var out []FileRef
	for _, f := range snap.Files {
		if !cataloged.Has(f.RelPath) {
			out = append(out, f)
		}
	}
	return out
}

// DeletedFiles re-roots every cataloged desc under the snapshot root and
// returns those no longer on disk. Presence ignores the scan filter: a file
// that is still there but no longer selected is not deleted.
func DeletedFiles(snap *Snapshot, cataloged Cataloged) []FileRef {
	var out []FileRef
	for _, desc := range cataloged.Sorted() {
		if !snap.OnDisk(desc) {
			out = append(out, FileRef{Root: snap.Root, RelPath: desc})
		}
	}
	return out
}

// Plan is the result of one catalog sync: what to load and what to retract.
type Plan struct {
	Snapshot *Snapshot
	New      []FileRef
	Deleted  []FileRef
	// Held are uncataloged files left out of New because their last load
	// failed on their content and they have not changed since.
	Held      []FileRef
	Bootstrap bool
}

// Diff computes both sides of a sync from a single snapshot.
func Diff(snap *Snapshot, cataloged Cataloged) *Plan {
	return &Plan{
		Snapshot:  snap,
		New:       NewFiles(snap, cataloged),
		Deleted:   DeletedFiles(snap, cataloged),
		Bootstrap: cataloged == nil,
	}
}

// Empty reports whether the plan has nothing to do.
func (p *Plan) Empty() bool {
	return len(p.New) == 0 && len(p.Deleted) == 0
}

// Descs returns the relative paths of refs.
func Descs(refs []FileRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.RelPath
	}
	return out
}
