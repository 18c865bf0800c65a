package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/deckflow/internal/common"
)

// DevEnv selects the development table set.
const DevEnv = "dev"

// DefaultHeaderTruncate is the length period headers are cut to; it turns
// "2024-03-31 00:00:00" into "2024-03-31".
const DefaultHeaderTruncate = 10

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// RowRange is a half-open range of positional row indexes, [Start, End).
type RowRange struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Len returns the number of rows covered.
func (r RowRange) Len() int {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Contains reports whether i falls inside the range.
func (r RowRange) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

// HierarchyRule marks a row as the start of a top-level category. An empty
// Pattern matches when the benchmark contains Label; otherwise Pattern is a
// regular expression tested against the benchmark.
type HierarchyRule struct {
	Label   string `yaml:"label"`
	Pattern string `yaml:"pattern,omitempty"`
}

// TableSet names the dependent tables a flavor writes to.
type TableSet struct {
	Wide string `yaml:"wide"`
	Long string `yaml:"long"`
}

// All returns every table in the set, wide first.
func (t TableSet) All() []string {
	return []string{t.Wide, t.Long}
}

// Flavor holds the layout constants of one spreadsheet family. Everything
// layout specific lives here so the normalizer stays generic.
type Flavor struct {
	Tables         TableSet        `yaml:"tables"`
	Name           string          `yaml:"name"`
	Version        string          `yaml:"version"`
	Sheet          string          `yaml:"sheet"`
	SeedLabel      string          `yaml:"seed_label"`
	Extensions     []string        `yaml:"extensions"`
	Hierarchy      []HierarchyRule `yaml:"hierarchy"`
	SkipRows       RowRange        `yaml:"skip_rows"`
	HeaderRow      int             `yaml:"header_row"`
	HeaderTruncate int             `yaml:"header_truncate"`
	Timeout        time.Duration   `yaml:"timeout"`
}

// TablesFor returns the table set for env. The dev environment writes to
// dev_ prefixed tables.
func (f *Flavor) TablesFor(env string) TableSet {
	if strings.EqualFold(strings.TrimSpace(env), DevEnv) {
		return TableSet{Wide: DevEnv + "_" + f.Tables.Wide, Long: DevEnv + "_" + f.Tables.Long}
	}
	return f.Tables
}

// Validate checks the flavor for values the pipeline cannot run with.
func (f *Flavor) Validate() error {
	var errs []error
	if strings.TrimSpace(f.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if strings.TrimSpace(f.Sheet) == "" {
		errs = append(errs, errors.New("sheet is required"))
	}
	if f.HeaderRow < 0 {
		errs = append(errs, fmt.Errorf("header_row %d is negative", f.HeaderRow))
	}
	if f.HeaderTruncate <= 0 {
		errs = append(errs, fmt.Errorf("header_truncate %d must be positive", f.HeaderTruncate))
	}
	if f.SkipRows.Start < 0 || f.SkipRows.End < f.SkipRows.Start {
		errs = append(errs, fmt.Errorf("skip_rows [%d,%d) is not a valid range", f.SkipRows.Start, f.SkipRows.End))
	}
	if f.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout %s must be positive", f.Timeout))
	}
	for _, name := range f.Tables.All() {
		if !tableNameRe.MatchString(name) {
			errs = append(errs, fmt.Errorf("table name %q is not a plain identifier", name))
		}
	}
	if f.Tables.Wide == f.Tables.Long {
		errs = append(errs, errors.New("wide and long tables must differ"))
	}
	for i, rule := range f.Hierarchy {
		if strings.TrimSpace(rule.Label) == "" {
			errs = append(errs, fmt.Errorf("hierarchy rule %d has no label", i))
		}
		if rule.Pattern != "" {
			if _, err := regexp.Compile(rule.Pattern); err != nil {
				errs = append(errs, fmt.Errorf("hierarchy rule %q: %w", rule.Label, err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: flavor %q: %w", common.ErrInvalidConfig, f.Name, errors.Join(errs...))
	}
	return nil
}

// MatchesExtension reports whether path has one of the flavor's extensions.
// A flavor without extensions accepts every file.
func (f *Flavor) MatchesExtension(path string) bool {
	if len(f.Extensions) == 0 {
		return true
	}
	lower := strings.ToLower(path)
	for _, ext := range f.Extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// Registry holds the known flavors keyed by lower-cased name.
type Registry struct {
	flavors map[string]Flavor
}

// NewRegistry builds a registry from flavors, validating each one.
func NewRegistry(flavors ...Flavor) (*Registry, error) {
	r := &Registry{flavors: make(map[string]Flavor, len(flavors))}
	for _, f := range flavors {
		if err := r.Put(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Put adds or replaces a flavor.
func (r *Registry) Put(f Flavor) error {
	if f.HeaderTruncate == 0 {
		f.HeaderTruncate = DefaultHeaderTruncate
	}
	if err := f.Validate(); err != nil {
		return err
	}
	r.flavors[strings.ToLower(f.Name)] = f
	return nil
}

// Lookup returns the flavor called name, ignoring case.
func (r *Registry) Lookup(name string) (Flavor, error) {
	f, ok := r.flavors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Flavor{}, fmt.Errorf("%w: %q (known: %s)", common.ErrUnknownFlavor, name, strings.Join(r.Names(), ", "))
	}
	return f, nil
}

// Names returns the registered flavor names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.flavors))
	for _, f := range r.flavors {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered flavors sorted by name.
func (r *Registry) All() []Flavor {
	out := make([]Flavor, 0, len(r.flavors))
	for _, name := range r.Names() {
		out = append(out, r.flavors[strings.ToLower(name)])
	}
	return out
}

type flavorFile struct {
	Flavors []Flavor `yaml:"flavors"`
}

// LoadRegistry returns the built-in flavors overlaid with the definitions in
// path. An empty path yields the built-ins alone.
func LoadRegistry(path string) (*Registry, error) {
	reg, err := NewRegistry(DefaultFlavors()...)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return reg, nil
	}

	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read flavors file: %w", err)
	}
	return reg, reg.Merge(data)
}

// Merge overlays YAML flavor definitions onto the registry. A definition whose
// name matches an existing flavor starts from that flavor, so a file only has
// to list the fields it changes.
func (r *Registry) Merge(data []byte) error {
	var raw struct {
		Flavors []yaml.Node `yaml:"flavors"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: flavors file: %w", common.ErrInvalidConfig, err)
	}

	for i := range raw.Flavors {
		var probe struct {
			Name string `yaml:"name"`
		}
		if err := raw.Flavors[i].Decode(&probe); err != nil {
			return fmt.Errorf("%w: flavor %d: %w", common.ErrInvalidConfig, i, err)
		}

		f := Flavor{}
		if existing, ok := r.flavors[strings.ToLower(probe.Name)]; ok {
			f = existing
		}
		if err := raw.Flavors[i].Decode(&f); err != nil {
			return fmt.Errorf("%w: flavor %q: %w", common.ErrInvalidConfig, probe.Name, err)
		}
		if err := r.Put(f); err != nil {
			return err
		}
	}
	return nil
}

// Dump renders the registry in the flavors file format.
func (r *Registry) Dump() ([]byte, error) {
	return yaml.Marshal(flavorFile{Flavors: r.All()})
}
