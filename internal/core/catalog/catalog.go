package catalog

import (
	"math"
	"strings"

	"feed-formulator/internal/pkg/common"

	"go.uber.org/zap"
)

// Ingredient is one catalog row. Immutable after load; never mutated by a request.
type Ingredient struct {
	Name         string             // display name
	Aliases      []string           // alternative names, historical labels included
	Nutrients    map[string]float64 // content per unit mass, keyed by nutrient name
	Price        float64            // price per unit mass, 0 when unknown
	MaxInclusion float64            // max fraction of the blend, +Inf when unbounded
}

// Unbounded is the max inclusion rate of an uncapped ingredient.
func Unbounded() float64 {
	return math.Inf(1)
}

// Catalog is a normalized, read-only view over the ingredient table.
// Safe for concurrent use; a reload must install a fresh instance.
type Catalog struct {
	ingredients []*Ingredient
	nutrients   []string
	aliasIndex  map[string]int // normalized name/alias -> ingredient index
}

// Normalize trims and lower-cases a name for matching purposes.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// New builds a catalog over the given ingredients and the catalog-wide
// nutrient name set. Every alias maps to exactly one underlying ingredient;
// a colliding alias keeps its first assignment so one row can never be
// selected twice through different labels.
func New(ingredients []*Ingredient, nutrients []string) *Catalog {
	c := &Catalog{
		ingredients: ingredients,
		nutrients:   nutrients,
		aliasIndex:  make(map[string]int),
	}

	for i, ing := range ingredients {
		names := append([]string{ing.Name}, ing.Aliases...)
		for _, name := range names {
			key := Normalize(name)
			if key == "" {
				continue
			}
			if prev, exists := c.aliasIndex[key]; exists {
				if prev != i {
					common.LogWarn("duplicate ingredient alias",
						zap.String("alias", name),
						zap.String("kept", ingredients[prev].Name),
						zap.String("ignored", ing.Name),
					)
				}
				continue
			}
			c.aliasIndex[key] = i
		}
	}

	return c
}

// Lookup resolves an exact name or alias to its ingredient.
func (c *Catalog) Lookup(name string) (*Ingredient, bool) {
	i, ok := c.aliasIndex[Normalize(name)]
	if !ok {
		return nil, false
	}
	return c.ingredients[i], true
}

// Match returns the indices of all ingredients whose name or any alias
// contains the fragment, case-insensitively. Each underlying ingredient
// appears at most once even when several of its aliases match.
func (c *Catalog) Match(fragment string) []int {
	frag := Normalize(fragment)
	if frag == "" {
		return nil
	}

	var out []int
	for i, ing := range c.ingredients {
		if strings.Contains(Normalize(ing.Name), frag) {
			out = append(out, i)
			continue
		}
		for _, alias := range ing.Aliases {
			if strings.Contains(Normalize(alias), frag) {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

// All returns every ingredient in load order.
func (c *Catalog) All() []*Ingredient {
	return c.ingredients
}

// ByIndex returns the ingredient at index i.
func (c *Catalog) ByIndex(i int) *Ingredient {
	return c.ingredients[i]
}

// Nutrients returns the fixed, ordered catalog-wide nutrient name set.
func (c *Catalog) Nutrients() []string {
	return c.nutrients
}

// HasNutrient reports whether the catalog carries the named nutrient.
func (c *Catalog) HasNutrient(name string) bool {
	for _, n := range c.nutrients {
		if n == name {
			return true
		}
	}
	return false
}

// Len returns the number of ingredients.
func (c *Catalog) Len() int {
	return len(c.ingredients)
}
