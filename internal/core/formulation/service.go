package formulation

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"feed-formulator/internal/core/catalog"
	"feed-formulator/internal/core/formulation/cache"
	"feed-formulator/internal/infrastructure/config"
	"feed-formulator/internal/pkg/common"

	"go.uber.org/zap"
)

// Request is one formulation call. Bound and price overrides are keyed by
// ingredient name fragments; bound values are proportions of the blend.
type Request struct {
	Species       string             `json:"species"`
	Ingredients   []string           `json:"ingredients"`
	Exclude       []string           `json:"exclude,omitempty"`
	MinProportion map[string]float64 `json:"min_proportion,omitempty"`
	MaxProportion map[string]float64 `json:"max_proportion,omitempty"`
	Prices        map[string]float64 `json:"prices,omitempty"`
	BatchSizes    []float64          `json:"batch_sizes,omitempty"`
	Mode          Mode               `json:"mode,omitempty"`
}

// Service runs formulation calls against an immutable catalog and a static
// species registry. Safe for concurrent use; each call builds its own
// problem and shares nothing mutable with other calls.
type Service struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	registry *Registry
	solver   *Solver
	queue    *solveQueue
	cache    *cache.Service
}

// NewService creates the formulation service and starts its solve workers.
func NewService(cfg *config.Config, cat *catalog.Catalog, registry *Registry, cacheSvc *cache.Service) *Service {
	solver := NewSolver(&cfg.Solver)
	return &Service{
		cfg:      cfg,
		catalog:  cat,
		registry: registry,
		solver:   solver,
		queue:    newSolveQueue(solver, cfg.Queue.Workers, cfg.Queue.MaxSize),
		cache:    cacheSvc,
	}
}

// Catalog returns the service's read-only catalog.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Registry returns the species registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// QueueStatus reports the solve queue state.
func (s *Service) QueueStatus() QueueStatus {
	return s.queue.status()
}

// Close stops the solve workers.
func (s *Service) Close() {
	s.queue.close()
}

// Formulate computes a blend for the requested species from the requested
// ingredient pool. All failures are returned as *Error values; none are
// fatal to the process and none are retried.
func (s *Service) Formulate(ctx context.Context, req *Request) (*Result, error) {
	if err := s.normalize(req); err != nil {
		return nil, err
	}

	profile, err := s.registry.Resolve(req.Species)
	if err != nil {
		return nil, err
	}

	if len(req.Ingredients) == 0 {
		return nil, NewError(KindNoIngredientsRequested, "no ingredients requested")
	}

	key := s.cacheKey(req)
	if cached := s.cachedResult(ctx, key); cached != nil {
		return cached, nil
	}

	sel := Select(s.catalog, req.Ingredients, req.Exclude)
	if len(sel.Items) == 0 {
		return nil, NewError(KindNoMatchingIngredients,
			"no catalog entry matches: %s", strings.Join(sel.Unmatched, ", "))
	}
	if len(sel.Unmatched) > 0 {
		common.LogWarn("some requested fragments matched nothing",
			zap.Strings("unmatched", sel.Unmatched),
		)
	}
	if sel.ActiveCount() == 0 {
		return nil, NewError(KindAllIngredientsExcluded,
			"exclusion removed every selected ingredient")
	}

	problem, err := Build(s.catalog, sel, profile, &Overrides{
		MinProportion: req.MinProportion,
		MaxProportion: req.MaxProportion,
		Prices:        req.Prices,
	})
	if err != nil {
		return nil, err
	}

	solution, err := s.solve(ctx, problem, req.Mode)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Species:   profile.Species,
		Mode:      req.Mode,
		Blends:    Report(problem, solution, req.BatchSizes),
		Nutrition: RealizedNutrition(sel.Items, solution.Proportions, s.catalog.Nutrients()),
		Unmatched: sel.Unmatched,
	}
	if solution.HasCost {
		cost := solution.Cost
		result.TotalCost = &cost
	}

	s.storeResult(ctx, key, result)

	return result, nil
}

// normalize fills request defaults from configuration and rejects a mode
// the solver does not support.
func (s *Service) normalize(req *Request) error {
	if req.Mode == "" {
		req.Mode = Mode(s.cfg.Solver.DefaultMode)
	}
	switch req.Mode {
	case ModeLP, ModeLeastSquares:
	default:
		return common.NewError(common.ErrCodeInvalidRequest,
			fmt.Sprintf("unsupported solver mode %q", req.Mode),
			http.StatusBadRequest, nil)
	}
	if len(req.BatchSizes) == 0 {
		req.BatchSizes = s.cfg.Solver.DefaultBatchSizes
	}
	return nil
}

// solve dispatches the problem through the bounded solve queue.
func (s *Service) solve(ctx context.Context, p *Problem, mode Mode) (*Solution, error) {
	start := time.Now()

	resultCh, err := s.queue.enqueue(ctx, p, mode)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultCh:
		common.LogSolve(string(mode), time.Since(start), res.err, "")
		if res.err != nil {
			return nil, res.err
		}
		return res.solution, nil
	}
}

func (s *Service) cacheKey(req *Request) string {
	payload, err := common.ToJSON(req)
	if err != nil {
		return ""
	}
	return cache.Key(payload)
}

func (s *Service) cachedResult(ctx context.Context, key string) *Result {
	if s.cache == nil || key == "" {
		return nil
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil
	}
	var result Result
	if err := common.ParseJSONBytes(data, &result); err != nil {
		common.LogWarn("failed to decode cached result", zap.Error(err))
		return nil
	}
	return &result
}

func (s *Service) storeResult(ctx context.Context, key string, result *Result) {
	if s.cache == nil || key == "" {
		return
	}
	data, err := common.ToJSON(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, []byte(data)); err != nil {
		common.LogWarn("failed to cache result", zap.Error(err))
	}
}
