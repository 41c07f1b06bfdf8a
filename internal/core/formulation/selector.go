package formulation

import (
	"sort"
	"strings"

	"feed-formulator/internal/core/catalog"
)

// SelectedIngredient is one resolved catalog entry. Excluded entries stay in
// the selection so the constraint builder can pin them to a zero bound and
// reporting keeps a stable order.
type SelectedIngredient struct {
	Ingredient *catalog.Ingredient
	Index      int // catalog index, the stable ordering key
	Excluded   bool
}

// Selection is the deduplicated result of resolving the requested and
// excluded name fragments against the catalog.
type Selection struct {
	Items     []SelectedIngredient
	Unmatched []string // requested fragments that matched nothing
}

// ActiveCount returns the number of selected, non-excluded ingredients.
func (s *Selection) ActiveCount() int {
	n := 0
	for _, item := range s.Items {
		if !item.Excluded {
			n++
		}
	}
	return n
}

// Select resolves requested name fragments (substring, case-insensitive,
// against display names and aliases) into a concrete catalog subset.
// Exclusion is applied after inclusion and always wins: an ingredient
// matching any exclusion fragment is marked excluded even when explicitly
// requested. Two fragments resolving to the same underlying ingredient via
// different aliases yield a single entry.
func Select(cat *catalog.Catalog, requested, excluded []string) *Selection {
	sel := &Selection{}

	included := make(map[int]bool)
	for _, fragment := range requested {
		matches := cat.Match(fragment)
		if len(matches) == 0 {
			sel.Unmatched = append(sel.Unmatched, fragment)
			continue
		}
		for _, i := range matches {
			included[i] = true
		}
	}

	excludedIdx := make(map[int]bool)
	for _, fragment := range excluded {
		for _, i := range cat.Match(fragment) {
			excludedIdx[i] = true
		}
	}

	indices := make([]int, 0, len(included))
	for i := range included {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	for _, i := range indices {
		sel.Items = append(sel.Items, SelectedIngredient{
			Ingredient: cat.ByIndex(i),
			Index:      i,
			Excluded:   excludedIdx[i],
		})
	}

	return sel
}

// matches reports whether the fragment matches this ingredient's display
// name or any alias.
func (si SelectedIngredient) matches(fragment string) bool {
	frag := catalog.Normalize(fragment)
	if frag == "" {
		return false
	}
	if strings.Contains(catalog.Normalize(si.Ingredient.Name), frag) {
		return true
	}
	for _, alias := range si.Ingredient.Aliases {
		if strings.Contains(catalog.Normalize(alias), frag) {
			return true
		}
	}
	return false
}
