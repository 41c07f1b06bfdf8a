package formulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolve(t *testing.T) {
	reg := DefaultRegistry()

	p, err := reg.Resolve("Laying-Hen")
	require.NoError(t, err)
	assert.Equal(t, "laying-hen", p.Species)
	assert.Len(t, p.Constraints, 8)

	p, err = reg.Resolve("  laying-quail ")
	require.NoError(t, err)
	assert.Equal(t, "laying-quail", p.Species)
}

func TestRegistryResolveUnknownSpecies(t *testing.T) {
	_, err := DefaultRegistry().Resolve("ostrich")

	fe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindUnknownSpecies, fe.Kind)
	assert.Contains(t, fe.Detail, "ostrich")
}

func TestRegistrySpeciesSorted(t *testing.T) {
	assert.Equal(t, []string{"laying-hen", "laying-quail"}, DefaultRegistry().Species())
}

func TestConstraintMidpoint(t *testing.T) {
	assert.Equal(t, 17.0, Constraint{Kind: Range, Low: 16, High: 18}.Midpoint())
	assert.Equal(t, 3.5, Constraint{Kind: Exact, Low: 3.5, High: 3.5}.Midpoint())
	assert.Equal(t, 11.0, Constraint{Kind: AtLeast, Low: 11}.Midpoint())
	assert.Equal(t, 5.0, Constraint{Kind: AtMost, High: 5}.Midpoint())
}

func TestDefaultProfilesCalcium(t *testing.T) {
	reg := DefaultRegistry()

	hen, err := reg.Resolve("laying-hen")
	require.NoError(t, err)
	var calcium Constraint
	for _, c := range hen.Constraints {
		if c.Nutrient == NutrientCalcium {
			calcium = c
		}
	}
	assert.Equal(t, Exact, calcium.Kind)
	assert.Equal(t, 3.5, calcium.Low)

	quail, err := reg.Resolve("laying-quail")
	require.NoError(t, err)
	for _, c := range quail.Constraints {
		if c.Nutrient == NutrientCalcium {
			calcium = c
		}
	}
	assert.Equal(t, Range, calcium.Kind)
	assert.Equal(t, 2.5, calcium.Low)
	assert.Equal(t, 3.0, calcium.High)
}
