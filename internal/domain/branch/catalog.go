package branch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk YAML shape.
type catalogFile struct {
	Branches []catalogBranch `yaml:"branches"`
}

type catalogBranch struct {
	Name       string      `yaml:"name"`
	Kind       string      `yaml:"kind"`
	Questions  []Question  `yaml:"questions"`
	TextBlocks []TextBlock `yaml:"textBlocks"`
}

// Definition is a catalog entry: a branch's kind and questions without a schedule.
type Definition struct {
	Kind Kind
	Base
}

// Catalog is the immutable, ordered set of branch definitions. Its order is
// the canonical branch order.
type Catalog struct {
	defs []Definition
}

// NewCatalog validates defs and returns a catalog preserving their order.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	seen := make(map[string]struct{}, len(defs))
	for i, d := range defs {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: branch %d has no name", ErrInvalidCatalog, i)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: duplicate branch %q", ErrInvalidCatalog, name)
		}
		seen[key] = struct{}{}
		if err := validateQuestions(name, d.Questions); err != nil {
			return nil, err
		}
	}
	return &Catalog{defs: append([]Definition(nil), defs...)}, nil
}

func validateQuestions(branchName string, qs []Question) error {
	seen := make(map[string]struct{}, len(qs))
	for _, q := range qs {
		if q.Name == "" {
			return fmt.Errorf("%w: branch %q has a question without a name", ErrInvalidCatalog, branchName)
		}
		if _, dup := seen[q.Name]; dup {
			return fmt.Errorf("%w: branch %q repeats question %q", ErrInvalidCatalog, branchName, q.Name)
		}
		seen[q.Name] = struct{}{}
		if q.IsChoice() && len(q.Options) == 0 && !q.HasOther {
			return fmt.Errorf("%w: question %q in %q has no options", ErrInvalidCatalog, q.Name, branchName)
		}
	}
	return nil
}

// LoadCatalog parses a YAML catalog.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadCatalog, err)
	}
	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrLoadCatalog, err)
	}
	defs := make([]Definition, 0, len(file.Branches))
	for _, b := range file.Branches {
		kind, ok := ParseKind(b.Kind)
		if !ok {
			return nil, fmt.Errorf("%w: branch %q has unknown kind %q", ErrInvalidCatalog, b.Name, b.Kind)
		}
		defs = append(defs, Definition{
			Kind: kind,
			Base: Base{Name: strings.TrimSpace(b.Name), Questions: b.Questions, TextBlocks: b.TextBlocks},
		})
	}
	return NewCatalog(defs...)
}

// LoadCatalogFile reads the YAML catalog at path.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadCatalog, err)
	}
	defer func() { _ = f.Close() }()
	return LoadCatalog(f)
}

// Definitions returns the definitions in canonical order.
func (c *Catalog) Definitions() []Definition {
	return append([]Definition(nil), c.defs...)
}

// Names returns branch names in canonical order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.defs))
	for i, d := range c.defs {
		out[i] = d.Name
	}
	return out
}

// Len returns the number of configured branches.
func (c *Catalog) Len() int { return len(c.defs) }

// Join attaches schedules (keyed by exact branch name) to the catalog.
// Branches without a schedule get a zero window, which is always closed and
// reports Scheduled() == false.
func (c *Catalog) Join(schedules map[string]Schedule) *Set {
	all := make([]Branch, 0, len(c.defs))
	for _, d := range c.defs {
		s := schedules[d.Name]
		var b Branch
		switch d.Kind {
		case KindApplication:
			b = &ApplicationBranch{Base: d.Base, Open: s.Open, Close: s.Close, AllowAnonymous: s.AllowAnonymous, AutoAccept: s.AutoAccept}
		case KindConfirmation:
			b = &ConfirmationBranch{
				Base: d.Base, Open: s.Open, Close: s.Close,
				UsesRollingDeadline: s.UsesRollingDeadline, AutoConfirm: s.AutoConfirm, IsAcceptance: s.IsAcceptance,
			}
		default:
			b = &NoopBranch{Base: d.Base}
		}
		all = append(all, b)
	}
	return NewSet(all...)
}
