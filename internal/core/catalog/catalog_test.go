package catalog

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Ingredient,Alias1,Alias2,Price,Max_Inclusion,Protein,Fat,Energy
Corn,Maize,Yellow Corn,8.5,0.6,9,3.8,14
Soybean Meal,Soy Meal,,15,,44,1.5,10
Fish Meal,,,abc,0.1,60,9,12
Limestone,,,,,"0,5",0,0
Empty Row,,,,,,,"abc"
`

func loadSample(t *testing.T) *Catalog {
	t.Helper()
	cat, err := LoadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	return cat
}

func TestLoadCSV(t *testing.T) {
	cat := loadSample(t)

	// "Empty Row" has no parseable nutrient cell and is dropped
	assert.Equal(t, 4, cat.Len())
	assert.Equal(t, []string{"Protein", "Fat", "Energy"}, cat.Nutrients())

	corn, ok := cat.Lookup("Corn")
	require.True(t, ok)
	assert.Equal(t, []string{"Maize", "Yellow Corn"}, corn.Aliases)
	assert.Equal(t, 8.5, corn.Price)
	assert.Equal(t, 0.6, corn.MaxInclusion)
	assert.Equal(t, 9.0, corn.Nutrients["Protein"])
	assert.Equal(t, 14.0, corn.Nutrients["Energy"])
}

func TestLoadCSVFailSoftCells(t *testing.T) {
	cat := loadSample(t)

	// malformed price collapses to zero, max inclusion stays unbounded
	fish, ok := cat.Lookup("Fish Meal")
	require.True(t, ok)
	assert.Equal(t, 0.0, fish.Price)
	assert.Equal(t, 0.1, fish.MaxInclusion)

	soy, ok := cat.Lookup("Soybean Meal")
	require.True(t, ok)
	assert.True(t, math.IsInf(soy.MaxInclusion, 1))

	// decimal commas from spreadsheet exports parse
	lime, ok := cat.Lookup("Limestone")
	require.True(t, ok)
	assert.Equal(t, 0.5, lime.Nutrients["Protein"])
}

func TestLoadCSVMissingIngredientColumn(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("Name,Protein\nCorn,9\n"))
	assert.Error(t, err)
}

func TestLoadCSVNoNutrientColumns(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("Ingredient,Alias1,Price\nCorn,Maize,8\n"))
	assert.Error(t, err)
}

func TestLookupByAlias(t *testing.T) {
	cat := loadSample(t)

	corn, ok := cat.Lookup("  MAIZE ")
	require.True(t, ok)
	assert.Equal(t, "Corn", corn.Name)

	_, ok = cat.Lookup("barley")
	assert.False(t, ok)
}

func TestAliasCollisionKeepsFirst(t *testing.T) {
	a := &Ingredient{Name: "Corn", Aliases: []string{"grain"}, Nutrients: map[string]float64{"Protein": 9}}
	b := &Ingredient{Name: "Wheat", Aliases: []string{"Grain"}, Nutrients: map[string]float64{"Protein": 12}}
	cat := New([]*Ingredient{a, b}, []string{"Protein"})

	got, ok := cat.Lookup("grain")
	require.True(t, ok)
	assert.Equal(t, "Corn", got.Name)
}

func TestMatch(t *testing.T) {
	cat := loadSample(t)

	// "CORN" hits both the name and the Yellow Corn alias of the same row
	assert.Equal(t, []int{0}, cat.Match("CORN"))

	idx := cat.Match("meal")
	require.Len(t, idx, 2)
	assert.Equal(t, "Soybean Meal", cat.ByIndex(idx[0]).Name)
	assert.Equal(t, "Fish Meal", cat.ByIndex(idx[1]).Name)

	assert.Nil(t, cat.Match(""))
	assert.Empty(t, cat.Match("barley"))
}

func TestHasNutrient(t *testing.T) {
	cat := loadSample(t)
	assert.True(t, cat.HasNutrient("Protein"))
	assert.False(t, cat.HasNutrient("Calcium"))
}
