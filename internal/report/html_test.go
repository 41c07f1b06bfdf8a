package report

import (
	"testing"

	"feed-formulator/internal/core/formulation"
	"feed-formulator/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTML(t *testing.T) {
	cost := 11.5
	result := &formulation.Result{
		Species: "laying-hen",
		Mode:    formulation.ModeLP,
		Blends: []formulation.BatchBlend{
			{
				BatchSizeKg: 10,
				Items: []formulation.BlendItem{
					{Ingredient: "Corn", AmountKg: 6, Proportion: 0.6},
					{Ingredient: "Soybean Meal", AmountKg: 4, Proportion: 0.4},
					{Ingredient: "Fish Meal", AmountKg: 0, Proportion: 0},
				},
			},
		},
		Nutrition: common.Nutrition{"Protein": 23, "Energy": 12.4},
		TotalCost: &cost,
	}

	page, err := HTML(result)
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, "laying-hen")
	assert.Contains(t, html, "<td>Corn</td><td>6.00</td><td>60.0</td>")
	assert.Contains(t, html, "<td>Soybean Meal</td><td>4.00</td><td>40.0</td>")
	assert.Contains(t, html, "Energy: 12.40, Protein: 23.00")
	assert.Contains(t, html, "Blend cost per kg: 11.50")

	// zero-amount lines stay out of the table
	assert.NotContains(t, html, "Fish Meal")
}

func TestHTMLWithoutCost(t *testing.T) {
	result := &formulation.Result{
		Species: "laying-quail",
		Blends: []formulation.BatchBlend{
			{BatchSizeKg: 50, Items: []formulation.BlendItem{
				{Ingredient: "Corn", AmountKg: 50, Proportion: 1},
			}},
		},
		Nutrition: common.Nutrition{"Protein": 9},
	}

	page, err := HTML(result)
	require.NoError(t, err)
	assert.NotContains(t, string(page), "Blend cost")
}
