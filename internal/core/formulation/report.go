package formulation

import (
	"feed-formulator/internal/pkg/common"
)

// BlendItem is one ingredient line of a batch blend.
type BlendItem struct {
	Ingredient string  `json:"ingredient"`
	AmountKg   float64 `json:"amount_kg"`
	Proportion float64 `json:"proportion"`
}

// BatchBlend is the solved blend scaled to one batch size.
type BatchBlend struct {
	BatchSizeKg float64     `json:"batch_size_kg"`
	Items       []BlendItem `json:"items"`
}

// Result is a successful formulation outcome. Not persisted.
type Result struct {
	Species   string           `json:"species"`
	Mode      Mode             `json:"mode"`
	Blends    []BatchBlend     `json:"per_batch_blends"`
	Nutrition common.Nutrition `json:"realized_nutrition"`
	TotalCost *float64         `json:"total_cost,omitempty"`
	Unmatched []string         `json:"unmatched_fragments,omitempty"`
}

// Report scales the solved proportion vector to each requested batch size.
// Realized nutrition is a deterministic function of the stored proportions;
// the solver is never re-invoked per batch size.
func Report(p *Problem, sol *Solution, batchSizes []float64) []BatchBlend {
	blends := make([]BatchBlend, 0, len(batchSizes))
	for _, size := range batchSizes {
		blend := BatchBlend{
			BatchSizeKg: size,
			Items:       make([]BlendItem, len(p.Names)),
		}
		for i, name := range p.Names {
			blend.Items[i] = BlendItem{
				Ingredient: name,
				AmountKg:   sol.Proportions[i] * size,
				Proportion: sol.Proportions[i],
			}
		}
		blends = append(blends, blend)
	}
	return blends
}

// RealizedNutrition computes the blend's nutrient content per unit mass as
// a mass-weighted average over the selected ingredients.
func RealizedNutrition(items []SelectedIngredient, proportions []float64, nutrients []string) common.Nutrition {
	out := make(common.Nutrition, len(nutrients))
	for _, nutrient := range nutrients {
		v := 0.0
		for i, item := range items {
			v += item.Ingredient.Nutrients[nutrient] * proportions[i]
		}
		out[nutrient] = v
	}
	return out
}
