package formulation

import (
	"math"

	"feed-formulator/internal/core/catalog"
	"feed-formulator/internal/pkg/common"

	"go.uber.org/zap"
)

// Overrides are caller-supplied per-ingredient bounds and prices. Bound
// values are proportions of the total blend. Keys are name fragments and
// must resolve to at least one selected ingredient.
type Overrides struct {
	MinProportion map[string]float64
	MaxProportion map[string]float64
	Prices        map[string]float64
}

// Row is one nutrient constraint over the selected ingredients. Coeffs[i]
// is the nutrient content per unit mass of ingredient i.
type Row struct {
	Nutrient string
	Kind     ConstraintKind
	Low      float64
	High     float64
	Coeffs   []float64
}

// Midpoint returns the row's least-squares target.
func (r Row) Midpoint() float64 {
	return Constraint{Kind: r.Kind, Low: r.Low, High: r.High}.Midpoint()
}

// Problem is the standard-form formulation problem. Built fresh per call,
// owned by one solver invocation, discarded after use.
type Problem struct {
	Names   []string  // display names, stable catalog order
	Pinned  []bool    // excluded ingredients, bound collapsed to [0,0]
	Lo, Hi  []float64 // per-ingredient bound intervals, 0 <= lo <= hi
	Cost    []float64 // unit prices, all zero without a price signal
	HasCost bool
	Rows    []Row
	Total   float64 // fixed sum(x) for the least-squares mode
}

// Build turns the selection, the species profile and the caller overrides
// into a formulation problem. Profile nutrients the catalog does not carry
// are dropped with a warning. Returns ErrEmptySelection when the selection
// is empty.
func Build(cat *catalog.Catalog, sel *Selection, profile *Profile, ov *Overrides) (*Problem, error) {
	if sel == nil || len(sel.Items) == 0 {
		return nil, ErrEmptySelection
	}
	if ov == nil {
		ov = &Overrides{}
	}

	n := len(sel.Items)
	p := &Problem{
		Names:  make([]string, n),
		Pinned: make([]bool, n),
		Lo:     make([]float64, n),
		Hi:     make([]float64, n),
		Cost:   make([]float64, n),
		Total:  1,
	}

	for i, item := range sel.Items {
		p.Names[i] = item.Ingredient.Name
		if item.Excluded {
			// pinned to zero, kept in the problem for stable ordering
			p.Pinned[i] = true
			continue
		}
		p.Lo[i] = 0
		p.Hi[i] = math.Min(item.Ingredient.MaxInclusion, 1)
	}

	if err := applyBoundOverrides(sel, ov, p); err != nil {
		return nil, err
	}

	for i := range sel.Items {
		if p.Lo[i] > p.Hi[i] {
			return nil, NewError(KindInfeasible,
				"minimum %.4f exceeds maximum %.4f for %q; loosen bounds or add ingredients",
				p.Lo[i], p.Hi[i], p.Names[i])
		}
	}

	if len(ov.Prices) > 0 {
		p.HasCost = true
		for i, item := range sel.Items {
			p.Cost[i] = item.Ingredient.Price
		}
		if err := applyEach(sel, ov.Prices, func(i int, v float64) {
			p.Cost[i] = v
		}); err != nil {
			return nil, err
		}
	}

	for _, c := range profile.Constraints {
		if !cat.HasNutrient(c.Nutrient) {
			common.LogWarn("dropping constraint on nutrient absent from catalog",
				zap.String("species", profile.Species),
				zap.String("nutrient", c.Nutrient),
			)
			continue
		}
		row := Row{
			Nutrient: c.Nutrient,
			Kind:     c.Kind,
			Low:      c.Low,
			High:     c.High,
			Coeffs:   make([]float64, n),
		}
		for i, item := range sel.Items {
			row.Coeffs[i] = item.Ingredient.Nutrients[c.Nutrient]
		}
		p.Rows = append(p.Rows, row)
	}

	return p, nil
}

func applyBoundOverrides(sel *Selection, ov *Overrides, p *Problem) error {
	if err := applyEach(sel, ov.MinProportion, func(i int, v float64) {
		if !p.Pinned[i] {
			p.Lo[i] = math.Max(v, 0)
		}
	}); err != nil {
		return err
	}
	// caller maxima take precedence over the catalog inclusion cap
	return applyEach(sel, ov.MaxProportion, func(i int, v float64) {
		if !p.Pinned[i] {
			p.Hi[i] = math.Max(v, 0)
		}
	})
}

// applyEach resolves each override key against the selection and applies
// the value to every matching ingredient. A key matching nothing fails the
// call.
func applyEach(sel *Selection, values map[string]float64, apply func(i int, v float64)) error {
	for key, v := range values {
		matched := false
		for i, item := range sel.Items {
			if item.matches(key) {
				apply(i, v)
				matched = true
			}
		}
		if !matched {
			return NewError(KindNoMatchingIngredients,
				"constraint key %q does not match any selected ingredient", key)
		}
	}
	return nil
}
