package formulation

import (
	"testing"

	"feed-formulator/internal/core/catalog"
	"feed-formulator/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSolver() *Solver {
	return NewSolver(&config.SolverConfig{
		Tolerance:     1e-6,
		FloorEpsilon:  1e-4,
		MaxIterations: 2000,
	})
}

func TestSolveLPExactTargets(t *testing.T) {
	cat := testCatalog()
	sel := Select(cat, []string{"corn", "soybean"}, nil)

	p, err := Build(cat, sel, testProfile(), nil)
	require.NoError(t, err)

	sol, err := testSolver().Solve(p, ModeLP)
	require.NoError(t, err)

	// 9a + 44b = 20 and 14a + 10b = 12 solve to a ≈ 0.6236, b ≈ 0.3270;
	// the raw quantities sum to ≈ 0.9506 and are renormalized to proportions
	require.Len(t, sol.Proportions, 2)
	assert.InDelta(t, 0.6560, sol.Proportions[0], 1e-3)
	assert.InDelta(t, 0.3440, sol.Proportions[1], 1e-3)
	assert.InDelta(t, 1.0, sol.Proportions[0]+sol.Proportions[1], 1e-9)
	assert.False(t, sol.HasCost)
}

func TestSolveLPInfeasible(t *testing.T) {
	cat := testCatalog()
	sel := Select(cat, []string{"corn"}, nil)

	// corn alone cannot reach 20% protein under a unit bound
	p, err := Build(cat, sel, testProfile(), nil)
	require.NoError(t, err)

	_, err = testSolver().Solve(p, ModeLP)
	fe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindInfeasible, fe.Kind)
	assert.Contains(t, fe.Detail, "loosen bounds or add ingredients")
}

func TestSolveLPMinimizesCost(t *testing.T) {
	p := &Problem{
		Names:   []string{"A", "B"},
		Pinned:  []bool{false, false},
		Lo:      []float64{0, 0},
		Hi:      []float64{1, 1},
		Cost:    []float64{2, 5},
		HasCost: true,
		Rows: []Row{
			{Nutrient: "Protein", Kind: AtLeast, Low: 8, Coeffs: []float64{10, 10}},
		},
		Total: 1,
	}

	sol, err := testSolver().Solve(p, ModeLP)
	require.NoError(t, err)

	// both satisfy the floor equally, the cheaper ingredient carries the blend
	assert.InDelta(t, 1.0, sol.Proportions[0], 1e-6)
	assert.InDelta(t, 0.0, sol.Proportions[1], 1e-6)
	require.True(t, sol.HasCost)
	assert.InDelta(t, 2.0, sol.Cost, 1e-6)
}

func TestSolveLPRangeBands(t *testing.T) {
	p := &Problem{
		Names:  []string{"A", "B"},
		Pinned: []bool{false, false},
		Lo:     []float64{0, 0},
		Hi:     []float64{1, 1},
		Cost:   []float64{0, 0},
		Rows: []Row{
			{Nutrient: "Protein", Kind: Range, Low: 15, High: 25, Coeffs: []float64{10, 30}},
			{Nutrient: "Fat", Kind: AtMost, High: 6, Coeffs: []float64{4, 8}},
		},
		Total: 1,
	}

	sol, err := testSolver().Solve(p, ModeLP)
	require.NoError(t, err)

	sum := sol.Proportions[0] + sol.Proportions[1]
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestSolveLeastSquaresHitsMidpoint(t *testing.T) {
	p := &Problem{
		Names:  []string{"A", "B"},
		Pinned: []bool{false, false},
		Lo:     []float64{0, 0},
		Hi:     []float64{1, 1},
		Cost:   []float64{0, 0},
		Rows: []Row{
			{Nutrient: "Protein", Kind: Range, Low: 18, High: 22, Coeffs: []float64{10, 30}},
		},
		Total: 1,
	}

	sol, err := testSolver().Solve(p, ModeLeastSquares)
	require.NoError(t, err)

	// midpoint 20 between contents 10 and 30 means an even split
	assert.InDelta(t, 0.5, sol.Proportions[0], 0.03)
	assert.InDelta(t, 0.5, sol.Proportions[1], 0.03)
	assert.InDelta(t, 1.0, sol.Proportions[0]+sol.Proportions[1], 1e-9)
}

func TestSolveLeastSquaresRespectsBounds(t *testing.T) {
	p := &Problem{
		Names:  []string{"A", "B"},
		Pinned: []bool{false, false},
		Lo:     []float64{0, 0},
		Hi:     []float64{0.3, 1},
		Cost:   []float64{0, 0},
		Rows: []Row{
			{Nutrient: "Protein", Kind: Range, Low: 18, High: 22, Coeffs: []float64{10, 30}},
		},
		Total: 1,
	}

	sol, err := testSolver().Solve(p, ModeLeastSquares)
	require.NoError(t, err)

	assert.LessOrEqual(t, sol.Proportions[0], 0.3+1e-3)
	assert.InDelta(t, 1.0, sol.Proportions[0]+sol.Proportions[1], 1e-9)
}

func TestSolveLeastSquaresAllPinned(t *testing.T) {
	p := &Problem{
		Names:  []string{"A"},
		Pinned: []bool{true},
		Lo:     []float64{0},
		Hi:     []float64{0},
		Cost:   []float64{0},
		Total:  1,
	}

	_, err := testSolver().Solve(p, ModeLeastSquares)
	fe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindInfeasible, fe.Kind)
}

func TestSolveUnsupportedMode(t *testing.T) {
	_, err := testSolver().Solve(&Problem{Names: []string{"A"}}, Mode("genetic"))
	assert.Error(t, err)
}

func TestFinishFloorsNoise(t *testing.T) {
	s := testSolver()
	p := &Problem{
		Names:  []string{"A", "B"},
		Pinned: []bool{false, false},
		Lo:     []float64{0, 0},
		Hi:     []float64{1, 1},
		Cost:   []float64{0, 0},
		Total:  1,
	}

	sol, err := s.finish(p, []float64{0.5, 5e-5}, 0)
	require.NoError(t, err)

	// the near-zero quantity floors away and the rest renormalizes
	assert.Equal(t, 1.0, sol.Proportions[0])
	assert.Equal(t, 0.0, sol.Proportions[1])
}

func TestFinishAllZero(t *testing.T) {
	s := testSolver()
	p := &Problem{
		Names:  []string{"A"},
		Pinned: []bool{false},
		Lo:     []float64{0},
		Hi:     []float64{1},
		Cost:   []float64{0},
		Total:  1,
	}

	_, err := s.finish(p, []float64{1e-6}, 0)
	fe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindInfeasible, fe.Kind)
}

func TestValidateBounds(t *testing.T) {
	s := testSolver()
	p := &Problem{
		Names: []string{"A"},
		Lo:    []float64{0},
		Hi:    []float64{0.5},
	}

	err := s.validate(p, []float64{0.7})
	fe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindInfeasible, fe.Kind)
}

func TestSolveLPSkipsPinnedIngredient(t *testing.T) {
	cat := testCatalog()
	sel := Select(cat, []string{"corn", "soybean", "wheat"}, []string{"wheat"})

	p, err := Build(cat, sel, testProfile(), nil)
	require.NoError(t, err)

	sol, err := testSolver().Solve(p, ModeLP)
	require.NoError(t, err)

	require.Len(t, sol.Proportions, 3)
	assert.Equal(t, 0.0, sol.Proportions[2])
}

func realized(cat *catalog.Catalog, sel *Selection, sol *Solution, nutrient string) float64 {
	v := 0.0
	for i, item := range sel.Items {
		v += item.Ingredient.Nutrients[nutrient] * sol.Proportions[i]
	}
	return v
}

func TestSolveLPScalesWithRenormalization(t *testing.T) {
	cat := testCatalog()
	sel := Select(cat, []string{"corn", "soybean"}, nil)

	p, err := Build(cat, sel, testProfile(), nil)
	require.NoError(t, err)

	sol, err := testSolver().Solve(p, ModeLP)
	require.NoError(t, err)

	// renormalization preserves the ratio between the targets
	protein := realized(cat, sel, sol, "Protein")
	energy := realized(cat, sel, sol, "Energy")
	assert.InDelta(t, 20.0/12.0, protein/energy, 1e-6)
}
