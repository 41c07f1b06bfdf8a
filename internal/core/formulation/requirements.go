package formulation

import (
	"sort"

	"feed-formulator/internal/core/catalog"
)

// Nutrient column names shared by the catalog and the requirement profiles.
const (
	NutrientProtein    = "Protein"
	NutrientFat        = "Fat"
	NutrientFiber      = "Fiber"
	NutrientLysine     = "Lysine"
	NutrientMethionine = "Methionine"
	NutrientCalcium    = "Calcium"
	NutrientPhosphorus = "Phosphorus"
	NutrientEnergy     = "Energy"
)

// ConstraintKind is how a nutrient target is expressed.
type ConstraintKind int

const (
	Exact ConstraintKind = iota
	Range
	AtLeast
	AtMost
)

// Constraint is one nutrient requirement. For Exact, Low == High. For
// AtLeast only Low is set; for AtMost only High.
type Constraint struct {
	Nutrient string
	Kind     ConstraintKind
	Low      float64
	High     float64
}

// Midpoint returns the band midpoint, the least-squares target.
func (c Constraint) Midpoint() float64 {
	switch c.Kind {
	case AtLeast:
		return c.Low
	case AtMost:
		return c.High
	default:
		return (c.Low + c.High) / 2
	}
}

// Profile is the ordered nutrient requirement list for one species.
type Profile struct {
	Species     string
	Constraints []Constraint
}

// Registry is the static species-to-profile table. Read-only after
// construction; looked up per request, never edited at request time.
type Registry struct {
	profiles map[string]*Profile
}

// NewRegistry builds a registry over the given profiles.
func NewRegistry(profiles ...*Profile) *Registry {
	r := &Registry{
		profiles: make(map[string]*Profile, len(profiles)),
	}
	for _, p := range profiles {
		r.profiles[catalog.Normalize(p.Species)] = p
	}
	return r
}

// Resolve looks up a species profile, case-insensitively.
func (r *Registry) Resolve(species string) (*Profile, error) {
	p, ok := r.profiles[catalog.Normalize(species)]
	if !ok {
		return nil, NewError(KindUnknownSpecies, "species %q is not registered", species)
	}
	return p, nil
}

// Species returns the registered species keys, sorted.
func (r *Registry) Species() []string {
	keys := make([]string, 0, len(r.profiles))
	for _, p := range r.profiles {
		keys = append(keys, p.Species)
	}
	sort.Strings(keys)
	return keys
}

// DefaultRegistry returns the built-in species profiles.
func DefaultRegistry() *Registry {
	return NewRegistry(
		&Profile{
			Species: "laying-hen",
			Constraints: []Constraint{
				{Nutrient: NutrientProtein, Kind: Range, Low: 16, High: 18},
				{Nutrient: NutrientFat, Kind: Range, Low: 3, High: 5},
				{Nutrient: NutrientFiber, Kind: Range, Low: 4, High: 5},
				{Nutrient: NutrientLysine, Kind: Range, Low: 0.7, High: 0.8},
				{Nutrient: NutrientMethionine, Kind: Range, Low: 0.3, High: 0.35},
				{Nutrient: NutrientCalcium, Kind: Exact, Low: 3.5, High: 3.5},
				{Nutrient: NutrientPhosphorus, Kind: Range, Low: 0.35, High: 0.45},
				{Nutrient: NutrientEnergy, Kind: Range, Low: 11, High: 12},
			},
		},
		&Profile{
			Species: "laying-quail",
			Constraints: []Constraint{
				{Nutrient: NutrientProtein, Kind: Range, Low: 23, High: 25},
				{Nutrient: NutrientFat, Kind: Range, Low: 3, High: 5},
				{Nutrient: NutrientFiber, Kind: Range, Low: 3, High: 4},
				{Nutrient: NutrientLysine, Kind: Range, Low: 1.4, High: 1.5},
				{Nutrient: NutrientMethionine, Kind: Range, Low: 0.35, High: 0.4},
				{Nutrient: NutrientCalcium, Kind: Range, Low: 2.5, High: 3.0},
				{Nutrient: NutrientPhosphorus, Kind: Range, Low: 0.6, High: 0.8},
				{Nutrient: NutrientEnergy, Kind: Range, Low: 11, High: 12},
			},
		},
	)
}
