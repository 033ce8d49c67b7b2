package selector

import (
	"context"
	"time"

	"github.com/schedulrx/engine/pkg/apperrors"
	"github.com/schedulrx/engine/pkg/localsearch"
	"github.com/schedulrx/engine/pkg/schedule"
	"github.com/schedulrx/engine/pkg/solver"
)

// BenchmarkResult is one backend's outcome from a Benchmark run.
type BenchmarkResult struct {
	SolverUsed string
	TimeMs     int64
	Score      float64
	Schedule   schedule.Schedule
	Infeasible bool
	Err        error
}

// Benchmark runs backtracking, cp-sat, and — when req carries an initial
// schedule — tabu local search on the same problem, mirroring the
// teacher's multi-backend benchmark harness but in-process rather than
// shelling out to a compiled binary per backend (spec §4.7: "runs C5, C6,
// and (if an initial schedule is provided) C7 on the same problem").
func (s *Selector) Benchmark(ctx context.Context, req solver.Request) map[string]BenchmarkResult {
	if req.Registry == nil {
		req.Registry = s.Registry
	}
	req.Problem = schedule.NormalizeDefaults(req.Problem)

	backtrackReq := req
	if backtrackReq.TimeLimit <= 0 {
		backtrackReq.TimeLimit = s.BacktrackTimeLimit
	}
	cpsatReq := req
	if cpsatReq.TimeLimit <= 0 {
		cpsatReq.TimeLimit = s.CPSATTimeLimit
	}

	results := make(map[string]BenchmarkResult, 3)
	results["backtracking"] = runBackend(ctx, s.Backtracking, backtrackReq)
	results["cp-sat"] = runBackend(ctx, s.CPSAT, cpsatReq)
	if len(req.InitialSchedule) > 0 {
		if ls, ok := s.LocalSearch.(*localsearch.Solver); ok {
			if s.TabuTenure > 0 {
				ls.Tenure = s.TabuTenure
			}
			if s.TabuMaxIterations > 0 {
				ls.MaxIterations = s.TabuMaxIterations
			}
		}
		results["local-search"] = runBackend(ctx, s.LocalSearch, req)
	}
	return results
}

func runBackend(ctx context.Context, backend solver.Solver, req solver.Request) BenchmarkResult {
	start := time.Now()
	outcome, err := backend.Solve(ctx, req)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		infeasible := false
		if code, ok := apperrors.CodeOf(err); ok && code == apperrors.CodeInfeasible {
			infeasible = true
		}
		return BenchmarkResult{TimeMs: elapsed, Infeasible: infeasible, Err: err}
	}

	return BenchmarkResult{
		SolverUsed: outcome.SolverUsed,
		TimeMs:     elapsed,
		Score:      outcome.Score,
		Schedule:   outcome.Schedule,
	}
}
