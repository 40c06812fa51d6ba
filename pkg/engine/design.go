package engine

import (
	"sort"

	"github.com/chazu/strata/pkg/kernel"
)

// Design is the result of evaluating a script: the named solids it defined
// and the solid to build.
type Design struct {
	solids   map[string]kernel.Solid
	order    []string
	root     kernel.Solid
	rootName string

	Warnings []EvalWarning
}

func newDesign() *Design {
	return &Design{solids: make(map[string]kernel.Solid)}
}

func (d *Design) define(name string, s kernel.Solid) {
	if _, ok := d.solids[name]; ok {
		d.Warnings = append(d.Warnings, EvalWarning{Message: "solid redefined", Solid: name})
	} else {
		d.order = append(d.order, name)
	}
	d.solids[name] = s
}

// finish picks the root when the script did not call build: the union of
// every named solid in definition order.
func (d *Design) finish(k kernel.Kernel) {
	if d.root != nil || len(d.order) == 0 {
		return
	}
	root := d.solids[d.order[0]]
	for _, name := range d.order[1:] {
		root = k.Union(root, d.solids[name])
	}
	d.root = root
	if len(d.order) == 1 {
		d.rootName = d.order[0]
	}
}

// Len returns the number of named solids.
func (d *Design) Len() int {
	return len(d.order)
}

// Names returns the solid names in definition order.
func (d *Design) Names() []string {
	return append([]string(nil), d.order...)
}

// SortedNames returns the solid names alphabetically.
func (d *Design) SortedNames() []string {
	names := d.Names()
	sort.Strings(names)
	return names
}

// Solid returns the solid defined under name.
func (d *Design) Solid(name string) (kernel.Solid, bool) {
	s, ok := d.solids[name]
	return s, ok
}

// Root returns the solid to build, or nil for an empty design.
func (d *Design) Root() kernel.Solid {
	return d.root
}

// RootName returns the name of the root solid when it is a single named
// solid, and "" otherwise.
func (d *Design) RootName() string {
	return d.rootName
}
