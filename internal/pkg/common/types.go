package common

import (
	"fmt"
	"sort"
	"strings"
)

// Nutrition maps nutrient name to content per unit mass of blend.
type Nutrition map[string]float64

// Format renders the nutrition map as "name: value" pairs in stable order.
func (n Nutrition) Format() string {
	if len(n) == 0 {
		return ""
	}

	names := make([]string, 0, len(n))
	for name := range n {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %.2f", name, n[name]))
	}
	return strings.Join(parts, ", ")
}
