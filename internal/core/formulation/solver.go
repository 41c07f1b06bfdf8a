package formulation

import (
	"errors"
	"fmt"
	"math"

	"feed-formulator/internal/infrastructure/config"
	"feed-formulator/internal/pkg/common"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Mode selects the optimization strategy.
type Mode string

const (
	// ModeLP solves the nutrient targets as hard linear constraints,
	// minimizing cost when a price signal is present.
	ModeLP Mode = "lp"
	// ModeLeastSquares minimizes the squared deviation of the realized
	// blend from each nutrient band midpoint under a fixed total.
	ModeLeastSquares Mode = "least-squares"
)

// infeasibleHint is appended to solver failures surfaced to the caller.
const infeasibleHint = "loosen bounds or add ingredients"

// Solution is a solved blend, expressed as proportions of the total mass.
type Solution struct {
	Proportions []float64 // aligned with Problem.Names, sums to 1
	Cost        float64   // blend cost per unit mass, meaningful when HasCost
	HasCost     bool
	Objective   float64 // optimal objective value reported by the algorithm
}

// Solver solves formulation problems. Stateless and safe for concurrent use.
type Solver struct {
	tolerance float64
	floorEps  float64
	maxIter   int
}

// NewSolver creates a solver from configuration.
func NewSolver(cfg *config.SolverConfig) *Solver {
	return &Solver{
		tolerance: cfg.Tolerance,
		floorEps:  cfg.FloorEpsilon,
		maxIter:   cfg.MaxIterations,
	}
}

// Solve runs the problem in the given mode. It returns a formulation error
// of kind INFEASIBLE when no point satisfies all constraints and bounds
// within tolerance, or when the iterative mode fails to converge.
func (s *Solver) Solve(p *Problem, mode Mode) (*Solution, error) {
	switch mode {
	case ModeLP:
		return s.solveLP(p)
	case ModeLeastSquares:
		return s.solveLeastSquares(p)
	default:
		return nil, fmt.Errorf("unsupported solver mode %q", mode)
	}
}

// solveLP solves minimize cost·x subject to the equality and inequality
// rows plus per-ingredient bounds. All inequalities are expressed uniformly
// as G·x <= h; the problem is converted to standard form and handed to the
// simplex method.
func (s *Solver) solveLP(p *Problem) (*Solution, error) {
	n := len(p.Names)

	var eqData, ubData []float64
	var bEq, h []float64
	eqRows, ubRows := 0, 0

	addUB := func(coeffs []float64, bound float64) {
		ubData = append(ubData, coeffs...)
		h = append(h, bound)
		ubRows++
	}
	negated := func(coeffs []float64) []float64 {
		out := make([]float64, len(coeffs))
		for i, v := range coeffs {
			out[i] = -v
		}
		return out
	}

	for _, row := range p.Rows {
		switch row.Kind {
		case Exact:
			eqData = append(eqData, row.Coeffs...)
			bEq = append(bEq, row.Low)
			eqRows++
		case Range:
			if row.Low == row.High {
				eqData = append(eqData, row.Coeffs...)
				bEq = append(bEq, row.Low)
				eqRows++
				continue
			}
			addUB(row.Coeffs, row.High)
			addUB(negated(row.Coeffs), -row.Low)
		case AtLeast:
			// sign flipped so the row reads -a·x <= -low
			addUB(negated(row.Coeffs), -row.Low)
		case AtMost:
			addUB(row.Coeffs, row.High)
		}
	}

	// bound intervals as inequality rows; x >= lo also covers x >= 0
	for i := 0; i < n; i++ {
		unit := make([]float64, n)
		unit[i] = -1
		addUB(unit, -p.Lo[i])
		if !math.IsInf(p.Hi[i], 1) {
			upper := make([]float64, n)
			upper[i] = 1
			addUB(upper, p.Hi[i])
		}
	}

	g := mat.NewDense(ubRows, n, ubData)
	var aEq mat.Matrix
	if eqRows > 0 {
		aEq = mat.NewDense(eqRows, n, eqData)
	}

	cNew, aNew, bNew := lp.Convert(p.Cost, g, h, aEq, bEq)
	optF, optX, err := lp.Simplex(cNew, aNew, bNew, 0, nil)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) || errors.Is(err, lp.ErrUnbounded) {
			return nil, NewError(KindInfeasible, "%v; %s", err, infeasibleHint)
		}
		return nil, NewError(KindInfeasible, "simplex failed: %v; %s", err, infeasibleHint)
	}

	// recover the original variables from the split standard form
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = optX[i] - optX[n+i]
	}

	if err := s.validate(p, x); err != nil {
		return nil, err
	}

	return s.finish(p, x, optF)
}

// solveLeastSquares minimizes the squared deviation of the realized blend
// A·x/sum(x) from each band midpoint, with sum(x) fixed and bounds enforced
// through a quadratic penalty. The objective is nonlinear in x because of
// the division by sum(x), so it runs as a general bounded minimization.
func (s *Solver) solveLeastSquares(p *Problem) (*Solution, error) {
	n := len(p.Names)
	total := p.Total
	if total <= 0 {
		total = 1
	}

	const penaltyWeight = 1e6

	objective := func(x []float64) float64 {
		sum := 0.0
		penalty := 0.0
		for i, v := range x {
			sum += v
			if v < p.Lo[i] {
				d := p.Lo[i] - v
				penalty += d * d
			}
			if v > p.Hi[i] {
				d := v - p.Hi[i]
				penalty += d * d
			}
		}
		d := sum - total
		penalty += d * d
		if sum <= 1e-9 {
			return penaltyWeight * (1 + penalty)
		}

		deviation := 0.0
		for _, row := range p.Rows {
			realized := 0.0
			for i, coeff := range row.Coeffs {
				realized += coeff * x[i]
			}
			realized /= sum
			switch row.Kind {
			case AtLeast:
				if realized < row.Low {
					e := row.Low - realized
					deviation += e * e
				}
			case AtMost:
				if realized > row.High {
					e := realized - row.High
					deviation += e * e
				}
			default:
				e := realized - row.Midpoint()
				deviation += e * e
			}
		}
		return deviation + penaltyWeight*penalty
	}

	active := 0
	for i := range p.Names {
		if !p.Pinned[i] && p.Hi[i] > 0 {
			active++
		}
	}
	if active == 0 {
		return nil, NewError(KindInfeasible, "no ingredient may take a positive amount; %s", infeasibleHint)
	}

	x0 := make([]float64, n)
	for i := range x0 {
		if !p.Pinned[i] && p.Hi[i] > 0 {
			x0[i] = math.Min(total/float64(active), p.Hi[i])
		}
	}

	problem := optimize.Problem{Func: objective}
	settings := &optimize.Settings{MajorIterations: s.maxIter}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, NewError(KindInfeasible, "minimization did not converge: %v; %s", err, infeasibleHint)
	}

	x := s.project(p, result.X, total)
	if x == nil {
		return nil, NewError(KindInfeasible, "minimization left the feasible region; %s", infeasibleHint)
	}

	return s.finish(p, x, result.F)
}

// project clamps x into its bounds and rescales to the fixed total,
// iterating so the rescale cannot push a component back outside its bound.
// Returns nil when no scaling reconciles the bounds with the total.
func (s *Solver) project(p *Problem, x []float64, total float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)

	for pass := 0; pass < 8; pass++ {
		clamped := false
		sum := 0.0
		for i := range out {
			if math.IsNaN(out[i]) {
				return nil
			}
			v := math.Max(out[i], p.Lo[i])
			v = math.Min(v, p.Hi[i])
			if v != out[i] {
				clamped = true
				out[i] = v
			}
			sum += v
		}
		if sum <= 1e-12 {
			return nil
		}
		if math.Abs(sum-total) <= s.tolerance {
			if !clamped {
				return out
			}
			continue
		}
		scale := total / sum
		for i := range out {
			out[i] *= scale
		}
	}

	sum := 0.0
	for i := range out {
		if out[i] < p.Lo[i]-s.tolerance || out[i] > p.Hi[i]+s.tolerance {
			return nil
		}
		sum += out[i]
	}
	if math.Abs(sum-total) > s.tolerance {
		return nil
	}
	return out
}

// validate checks a candidate point against every constraint row and bound
// within the equality tolerance.
func (s *Solver) validate(p *Problem, x []float64) error {
	for i, v := range x {
		if math.IsNaN(v) {
			return NewError(KindInfeasible, "solver produced NaN; %s", infeasibleHint)
		}
		if v < p.Lo[i]-s.tolerance || v > p.Hi[i]+s.tolerance {
			return NewError(KindInfeasible, "%q violates its bounds; %s", p.Names[i], infeasibleHint)
		}
	}
	for _, row := range p.Rows {
		v := 0.0
		for i, coeff := range row.Coeffs {
			v += coeff * x[i]
		}
		switch row.Kind {
		case Exact:
			if math.Abs(v-row.Low) > s.tolerance {
				return NewError(KindInfeasible, "%s misses its target; %s", row.Nutrient, infeasibleHint)
			}
		case Range:
			if v < row.Low-s.tolerance || v > row.High+s.tolerance {
				return NewError(KindInfeasible, "%s is outside its band; %s", row.Nutrient, infeasibleHint)
			}
		case AtLeast:
			if v < row.Low-s.tolerance {
				return NewError(KindInfeasible, "%s is below its floor; %s", row.Nutrient, infeasibleHint)
			}
		case AtMost:
			if v > row.High+s.tolerance {
				return NewError(KindInfeasible, "%s is above its ceiling; %s", row.Nutrient, infeasibleHint)
			}
		}
	}
	return nil
}

// finish floors solver noise, renormalizes to proportions and prices the
// blend.
func (s *Solver) finish(p *Problem, x []float64, objective float64) (*Solution, error) {
	sum := 0.0
	for i := range x {
		if x[i] < s.floorEps {
			x[i] = 0
		}
		sum += x[i]
	}
	if sum <= 0 {
		return nil, NewError(KindInfeasible, "every quantity floored to zero; %s", infeasibleHint)
	}

	proportions := make([]float64, len(x))
	for i := range x {
		proportions[i] = x[i] / sum
	}

	sol := &Solution{
		Proportions: proportions,
		HasCost:     p.HasCost,
		Objective:   objective,
	}
	if p.HasCost {
		for i, prop := range proportions {
			sol.Cost += p.Cost[i] * prop
		}
	}

	common.LogDebug("problem solved",
		zap.Int("ingredients", len(x)),
		zap.Float64("objective", objective),
		zap.Float64("raw_sum", sum),
	)

	return sol, nil
}
