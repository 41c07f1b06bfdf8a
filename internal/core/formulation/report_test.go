package formulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportScalesBatches(t *testing.T) {
	p := &Problem{Names: []string{"Corn", "Soybean Meal"}}
	sol := &Solution{Proportions: []float64{0.6, 0.4}}

	blends := Report(p, sol, []float64{10, 100})

	require.Len(t, blends, 2)

	assert.Equal(t, 10.0, blends[0].BatchSizeKg)
	assert.InDelta(t, 6.0, blends[0].Items[0].AmountKg, 1e-9)
	assert.InDelta(t, 4.0, blends[0].Items[1].AmountKg, 1e-9)

	assert.Equal(t, 100.0, blends[1].BatchSizeKg)
	assert.InDelta(t, 60.0, blends[1].Items[0].AmountKg, 1e-9)
	assert.InDelta(t, 40.0, blends[1].Items[1].AmountKg, 1e-9)

	// proportions are identical across batch sizes
	for _, blend := range blends {
		assert.Equal(t, 0.6, blend.Items[0].Proportion)
		assert.Equal(t, 0.4, blend.Items[1].Proportion)
	}
}

func TestRealizedNutritionScaleInvariant(t *testing.T) {
	cat := testCatalog()
	sel := Select(cat, []string{"corn", "soybean"}, nil)

	nut := RealizedNutrition(sel.Items, []float64{0.6, 0.4}, cat.Nutrients())

	// 0.6*9 + 0.4*44 protein, 0.6*14 + 0.4*10 energy, per unit of any batch
	assert.InDelta(t, 23.0, nut["Protein"], 1e-9)
	assert.InDelta(t, 12.4, nut["Energy"], 1e-9)
}
