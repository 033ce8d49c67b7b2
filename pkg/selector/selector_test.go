package selector_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedulrx/engine/pkg/backtrack"
	"github.com/schedulrx/engine/pkg/cache"
	"github.com/schedulrx/engine/pkg/localsearch"
	"github.com/schedulrx/engine/pkg/schedule"
	"github.com/schedulrx/engine/pkg/selector"
	"github.com/schedulrx/engine/pkg/solver"
)

// recordingSolver wraps a real backend but records the last Request it saw,
// so tests can assert on what the selector filled in before dispatching.
type recordingSolver struct {
	inner   solver.Solver
	lastReq solver.Request
}

func (r *recordingSolver) Solve(ctx context.Context, req solver.Request) (solver.Outcome, error) {
	r.lastReq = req
	return r.inner.Solve(ctx, req)
}

func trivialProblem() schedule.Problem {
	return schedule.Problem{
		Tasks: []schedule.Task{
			{ID: "T1", Duration: 60, RequiredResources: []string{"R"}, EarliestStart: 540, LatestEnd: 720},
		},
		Resources: []schedule.Resource{
			{ID: "R", Availability: []schedule.Interval{{From: 540, To: 720}}, Capacity: 1},
		},
	}
}

func TestSolve_AutoModePicksBacktrackingBelowThreshold(t *testing.T) {
	s := selector.New(cache.NewMemory(), nil)
	resp, err := s.Solve(context.Background(), selector.ChoiceAuto, solver.Request{Problem: trivialProblem()})
	require.NoError(t, err)
	assert.Equal(t, "backtracking", resp.SolverUsed)
	assert.Contains(t, resp.Schedule, "T1")
}

func TestSolve_AutoModePicksLocalSearchWhenInitialScheduleGiven(t *testing.T) {
	p := trivialProblem()
	initial := schedule.Schedule{"T1": {TaskID: "T1", Start: 540, End: 600, Resources: []string{"R"}}}

	s := selector.New(cache.NewMemory(), nil)
	resp, err := s.Solve(context.Background(), selector.ChoiceAuto, solver.Request{Problem: p, InitialSchedule: initial})
	require.NoError(t, err)
	assert.Equal(t, "tabu", resp.SolverUsed)
}

func TestSolve_ExplicitChoiceOverridesAuto(t *testing.T) {
	s := selector.New(cache.NewMemory(), nil)
	resp, err := s.Solve(context.Background(), selector.ChoiceCPSAT, solver.Request{Problem: trivialProblem()})
	require.NoError(t, err)
	assert.Contains(t, resp.SolverUsed, "cp-sat")
}

func TestSolve_CacheHitSkipsSolve(t *testing.T) {
	c := cache.NewMemory()
	s := selector.New(c, nil)
	req := solver.Request{Problem: trivialProblem()}

	first, err := s.Solve(context.Background(), selector.ChoiceAuto, req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := s.Solve(context.Background(), selector.ChoiceAuto, req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, "cache", second.SolverUsed)
	assert.Equal(t, first.Schedule, second.Schedule)
}

func TestSolve_InvalidProblemBypassesCache(t *testing.T) {
	c := cache.NewMemory()
	s := selector.New(c, nil)
	bad := schedule.Problem{
		Tasks: []schedule.Task{{ID: "T1", Duration: 9999, RequiredResources: []string{"R"}, EarliestStart: 0, LatestEnd: 10}},
		Resources: []schedule.Resource{
			{ID: "R", Availability: []schedule.Interval{{From: 0, To: 1440}}, Capacity: 1},
		},
	}

	_, err := s.Solve(context.Background(), selector.ChoiceAuto, solver.Request{Problem: bad})
	require.Error(t, err)
}

func TestSolve_FillsBacktrackTimeLimitFromConfig(t *testing.T) {
	s := selector.New(cache.NewMemory(), nil)
	s.BacktrackTimeLimit = 7 * time.Second
	rec := &recordingSolver{inner: s.Backtracking}
	s.Backtracking = rec

	_, err := s.Solve(context.Background(), selector.ChoiceBacktracking, solver.Request{Problem: trivialProblem()})
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, rec.lastReq.TimeLimit)
}

func TestSolve_FillsCPSATTimeLimitFromConfig(t *testing.T) {
	s := selector.New(cache.NewMemory(), nil)
	s.CPSATTimeLimit = 3 * time.Second
	rec := &recordingSolver{inner: s.CPSAT}
	s.CPSAT = rec

	_, err := s.Solve(context.Background(), selector.ChoiceCPSAT, solver.Request{Problem: trivialProblem()})
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, rec.lastReq.TimeLimit)
}

func TestSolve_RequestTimeLimitOverridesConfig(t *testing.T) {
	s := selector.New(cache.NewMemory(), nil)
	s.BacktrackTimeLimit = 7 * time.Second
	rec := &recordingSolver{inner: backtrack.New()}
	s.Backtracking = rec

	_, err := s.Solve(context.Background(), selector.ChoiceBacktracking, solver.Request{Problem: trivialProblem(), TimeLimit: 2 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, rec.lastReq.TimeLimit)
}

func TestSolve_AppliesTabuTenureAndMaxIterationsFromConfig(t *testing.T) {
	s := selector.New(cache.NewMemory(), nil)
	s.TabuTenure = 3
	s.TabuMaxIterations = 5

	p := trivialProblem()
	initial := schedule.Schedule{"T1": {TaskID: "T1", Start: 540, End: 600, Resources: []string{"R"}}}
	_, err := s.Solve(context.Background(), selector.ChoiceLocalSearch, solver.Request{Problem: p, InitialSchedule: initial})
	require.NoError(t, err)

	ls, ok := s.LocalSearch.(*localsearch.Solver)
	require.True(t, ok)
	assert.Equal(t, 3, ls.Tenure)
	assert.Equal(t, 5, ls.MaxIterations)
}
