package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jsonFixture struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestParseJSONBytes(t *testing.T) {
	var v jsonFixture
	require.NoError(t, ParseJSONBytes([]byte(`{"name":"corn","value":9.5}`), &v))
	assert.Equal(t, "corn", v.Name)
	assert.Equal(t, 9.5, v.Value)
}

func TestParseJSONBytesRejectsTrailingData(t *testing.T) {
	var v jsonFixture
	assert.Error(t, ParseJSONBytes([]byte(`{"name":"corn"}{"name":"soy"}`), &v))
}

func TestToJSONRoundTrip(t *testing.T) {
	s, err := ToJSON(jsonFixture{Name: "corn", Value: 9})
	require.NoError(t, err)

	var v jsonFixture
	require.NoError(t, ParseJSONBytes([]byte(s), &v))
	assert.Equal(t, jsonFixture{Name: "corn", Value: 9}, v)
}

func TestNutritionFormat(t *testing.T) {
	n := Nutrition{"Protein": 23, "Energy": 12.4}
	assert.Equal(t, "Energy: 12.40, Protein: 23.00", n.Format())
	assert.Equal(t, "", Nutrition{}.Format())
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("batch size must be positive")
	assert.True(t, IsValidationError(err))
	assert.Equal(t, "batch size must be positive", err.Error())
	assert.False(t, IsValidationError(ErrInvalidRequest))
}

func TestGenerateUUID(t *testing.T) {
	a := GenerateUUID()
	b := GenerateUUID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
