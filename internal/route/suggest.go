package route

import (
	"cmp"
	"slices"

	"github.com/agnivade/levenshtein"

	"github.com/jask/ideacrowd/internal/session"
)

const maxSuggestions = 3

type candidate struct {
	path string
	dist int
}

// suggest returns up to three registered exact paths close to p that are
// reachable in state, nearest first.
func (g *Guard) suggest(p string, state session.State) []string {
	paths := g.registry.exactPaths(func(d Descriptor) bool { return d.Required.Admits(state) })
	limit := max(2, len(p)/3)
	found := make([]candidate, 0, len(paths))
	for _, known := range paths {
		d := levenshtein.ComputeDistance(p, known)
		if d == 0 || d > limit {
			continue
		}
		found = append(found, candidate{path: known, dist: d})
	}
	slices.SortFunc(found, func(a, b candidate) int {
		if c := cmp.Compare(a.dist, b.dist); c != 0 {
			return c
		}
		return cmp.Compare(a.path, b.path)
	})
	if len(found) > maxSuggestions {
		found = found[:maxSuggestions]
	}
	if len(found) == 0 {
		return nil
	}
	out := make([]string, len(found))
	for i, c := range found {
		out[i] = c.path
	}
	return out
}
