package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"feed-formulator/internal/pkg/common"

	"go.uber.org/zap"
)

// Reserved column headers. Every other column is a nutrient column.
const (
	colIngredient   = "ingredient"
	colPrice        = "price"
	colMaxInclusion = "max_inclusion"
	aliasPrefix     = "alias"
)

// LoadCSV parses the ingredient table from CSV and builds the catalog.
//
// The first column named "Ingredient" carries the canonical name; columns
// whose header starts with "Alias" carry alternative names for the same row.
// "Price" and "Max_Inclusion" are optional. All remaining columns form the
// catalog-wide nutrient set, in header order.
//
// Malformed numeric cells fail soft: the value is treated as zero and the
// load continues. A row whose nutrient cells are all missing or unparseable
// is dropped.
func LoadCSV(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}

	nameCol := -1
	priceCol := -1
	maxCol := -1
	var aliasCols []int
	var nutrientCols []int
	var nutrients []string

	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		switch {
		case key == colIngredient:
			nameCol = i
		case key == colPrice:
			priceCol = i
		case key == colMaxInclusion:
			maxCol = i
		case strings.HasPrefix(key, aliasPrefix):
			aliasCols = append(aliasCols, i)
		default:
			nutrientCols = append(nutrientCols, i)
			nutrients = append(nutrients, strings.TrimSpace(h))
		}
	}

	if nameCol < 0 {
		return nil, fmt.Errorf("catalog is missing the Ingredient column")
	}
	if len(nutrientCols) == 0 {
		return nil, fmt.Errorf("catalog has no nutrient columns")
	}

	var ingredients []*Ingredient
	dropped := 0

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog row %d: %w", line, err)
		}

		name := strings.TrimSpace(cell(record, nameCol))
		if name == "" {
			dropped++
			continue
		}

		// missing values default to zero; a fully empty vector drops the row
		vector := make(map[string]float64, len(nutrients))
		parsed := 0
		for j, col := range nutrientCols {
			value, ok := parseNumeric(cell(record, col))
			if ok {
				parsed++
			}
			vector[nutrients[j]] = value
		}
		if parsed == 0 {
			common.LogWarn("dropping ingredient with empty nutrient vector",
				zap.String("ingredient", name),
				zap.Int("row", line),
			)
			dropped++
			continue
		}

		var aliases []string
		for _, col := range aliasCols {
			alias := strings.TrimSpace(cell(record, col))
			if alias != "" && Normalize(alias) != Normalize(name) {
				aliases = append(aliases, alias)
			}
		}

		price := 0.0
		if priceCol >= 0 {
			price, _ = parseNumeric(cell(record, priceCol))
			if price < 0 {
				price = 0
			}
		}

		maxInclusion := Unbounded()
		if maxCol >= 0 {
			if v, ok := parseNumeric(cell(record, maxCol)); ok && v > 0 {
				maxInclusion = v
			}
		}

		ingredients = append(ingredients, &Ingredient{
			Name:         name,
			Aliases:      aliases,
			Nutrients:    vector,
			Price:        price,
			MaxInclusion: maxInclusion,
		})
	}

	common.LogInfo("ingredient catalog loaded",
		zap.Int("ingredients", len(ingredients)),
		zap.Int("nutrients", len(nutrients)),
		zap.Int("dropped_rows", dropped),
	)

	return New(ingredients, nutrients), nil
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

// parseNumeric parses a numeric cell. The second return reports whether the
// cell held a usable number; the value is zero otherwise.
func parseNumeric(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	// tolerate decimal commas from spreadsheet exports
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if v < 0 {
		return 0, true
	}
	return v, true
}
