package route

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type entry struct {
	desc    Descriptor
	literal string
	prefix  bool
}

func (e entry) matches(p string) bool {
	if !e.prefix {
		return p == e.literal
	}
	if e.literal == "/" {
		return true
	}
	return p == e.literal || strings.HasPrefix(p, e.literal+"/")
}

// Registry is an immutable lookup from path to Descriptor.
type Registry struct {
	declared []Descriptor
	// byLength is sorted longest literal first so the first match wins.
	byLength []entry
}

// NewRegistry validates every descriptor and rejects any two patterns that
// could match the same path with equal specificity. All problems are
// reported together.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	var errs []error
	seen := make(map[string]string, len(descriptors))
	entries := make([]entry, 0, len(descriptors))

	for _, d := range descriptors {
		e, err := compile(d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if other, ok := seen[e.literal]; ok {
			errs = append(errs, fmt.Errorf("%w: %q and %q are equally specific", ErrAmbiguousRoute, other, d.Path))
			continue
		}
		seen[e.literal] = d.Path
		entries = append(entries, e)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		return len(b.literal) - len(a.literal)
	})
	return &Registry{declared: slices.Clone(descriptors), byLength: entries}, nil
}

func compile(d Descriptor) (entry, error) {
	raw := strings.TrimSpace(d.Path)
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return entry{}, fmt.Errorf("%w: path %q must start with /", ErrInvalidRoute, d.Path)
	}
	if d.View == "" {
		return entry{}, fmt.Errorf("%w: %q has no view", ErrInvalidRoute, d.Path)
	}
	if d.Required > UnauthenticatedOnly {
		return entry{}, fmt.Errorf("%w: %q has unknown requirement %s", ErrInvalidRoute, d.Path, d.Required)
	}
	prefix := d.IsPrefix()
	literal := raw
	if prefix {
		literal = strings.TrimSuffix(raw, "/*")
	}
	if strings.ContainsAny(literal, "*?#") {
		return entry{}, fmt.Errorf("%w: %q may only use a trailing /*", ErrInvalidRoute, d.Path)
	}
	literal = Normalize(literal)
	return entry{desc: d, literal: literal, prefix: prefix}, nil
}

// Lookup returns the most specific descriptor matching path.
func (r *Registry) Lookup(path string) (Descriptor, bool) {
	p := Normalize(path)
	for _, e := range r.byLength {
		if e.matches(p) {
			return e.desc, true
		}
	}
	return Descriptor{}, false
}

// Descriptors returns the routes in declaration order.
func (r *Registry) Descriptors() []Descriptor {
	return slices.Clone(r.declared)
}

// exactPaths lists the literal paths of exact routes admitted by pred.
func (r *Registry) exactPaths(pred func(Descriptor) bool) []string {
	out := make([]string, 0, len(r.byLength))
	for _, e := range r.byLength {
		if e.prefix || !pred(e.desc) {
			continue
		}
		out = append(out, e.literal)
	}
	return out
}
