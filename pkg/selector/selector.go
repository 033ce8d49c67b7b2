// Package selector implements the automatic solver-selection policy and
// the schedule cache facade (spec §4.7, C8): the single entry point a
// caller solves through, dispatching to backtracking, cp-sat, or tabu
// local search, and consulting/populating the fingerprint-keyed cache
// around every solve.
package selector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/schedulrx/engine/pkg/apperrors"
	"github.com/schedulrx/engine/pkg/backtrack"
	"github.com/schedulrx/engine/pkg/cache"
	"github.com/schedulrx/engine/pkg/constraint"
	"github.com/schedulrx/engine/pkg/cpsat"
	"github.com/schedulrx/engine/pkg/dto"
	"github.com/schedulrx/engine/pkg/localsearch"
	"github.com/schedulrx/engine/pkg/schedule"
	"github.com/schedulrx/engine/pkg/solver"
)

// DefaultCPSATTimeLimit and DefaultBacktrackTimeLimit mirror the per-backend
// defaults of cpsat.DefaultTimeLimit / backtrack.DefaultTimeLimit, applied
// when a request doesn't set its own TimeLimit (CPSAT_TIME_LIMIT_MS,
// BACKTRACK_TIME_LIMIT_MS, spec §6.5).
const (
	DefaultCPSATTimeLimit     = cpsat.DefaultTimeLimit
	DefaultBacktrackTimeLimit = backtrack.DefaultTimeLimit
)

// DefaultBacktrackThreshold is the |tasks| cutoff below which auto mode
// picks backtracking over cp-sat (SELECTOR_BACKTRACK_THRESHOLD, spec §6.5).
const DefaultBacktrackThreshold = 15

// DefaultCacheTTL is the cache entry lifetime (CACHE_TTL_SECONDS, spec §6.5).
const DefaultCacheTTL = 3600 * time.Second

// Choice names the solver a caller may explicitly request, or "auto".
type Choice string

const (
	ChoiceAuto         Choice = "auto"
	ChoiceBacktracking Choice = "backtracking"
	ChoiceCPSAT        Choice = "cp-sat"
	ChoiceLocalSearch  Choice = "local-search"
)

// Selector wires together every solver backend, the soft-constraint
// registry, and the schedule cache behind spec §4.7's dispatch policy.
type Selector struct {
	Backtracking solver.Solver
	CPSAT        solver.Solver
	LocalSearch  solver.Solver

	Cache              cache.Cache
	CacheTTL           time.Duration
	BacktrackThreshold int
	Registry           *constraint.Registry
	RegistryVersion    string
	Log                *zap.Logger

	// CPSATTimeLimit / BacktrackTimeLimit seed solver.Request.TimeLimit for
	// their respective backend when a request doesn't set its own
	// (CPSAT_TIME_LIMIT_MS, BACKTRACK_TIME_LIMIT_MS, spec §6.5).
	CPSATTimeLimit     time.Duration
	BacktrackTimeLimit time.Duration
	// TabuTenure / TabuMaxIterations configure the local-search backend
	// (TABU_TENURE, TABU_MAX_ITER, spec §6.5).
	TabuTenure        int
	TabuMaxIterations int
}

// New builds a Selector with the default backend wiring: backtracking, an
// in-process cp-sat oracle, and tabu local search, all sharing the default
// soft-constraint registry. Callers with an external CP-SAT binary or a
// Redis connection should override Selector.CPSAT / Selector.Cache after
// construction.
func New(c cache.Cache, log *zap.Logger) *Selector {
	if log == nil {
		log = zap.NewNop()
	}
	registry := constraint.Default()
	return &Selector{
		Backtracking:       backtrack.New(),
		CPSAT:              cpsat.New(nil),
		LocalSearch:        localsearch.New(),
		Cache:              c,
		CacheTTL:           DefaultCacheTTL,
		BacktrackThreshold: DefaultBacktrackThreshold,
		Registry:           registry,
		RegistryVersion:    registry.Version(),
		Log:                log,
		CPSATTimeLimit:     DefaultCPSATTimeLimit,
		BacktrackTimeLimit: DefaultBacktrackTimeLimit,
		TabuTenure:         localsearch.DefaultTenure,
		TabuMaxIterations:  localsearch.DefaultMaxIterations,
	}
}

// Solve dispatches req according to choice (spec §4.7), consulting and
// populating the cache around the underlying solve. Input validation
// errors bypass the cache entirely (spec §7 propagation policy).
func (s *Selector) Solve(ctx context.Context, choice Choice, req solver.Request) (dto.Response, error) {
	problem := schedule.NormalizeDefaults(req.Problem)
	if err := schedule.Validate(problem); err != nil {
		return dto.Response{}, err
	}
	req.Problem = problem
	if req.Registry == nil {
		req.Registry = s.Registry
	}

	start := time.Now()
	key := schedule.Fingerprint(problem, s.RegistryVersion)

	if s.Cache != nil {
		if entry, ok := s.Cache.Get(ctx, key); ok {
			s.Log.Debug("cache hit", zap.String("fingerprint", key))
			resp := dto.Response{
				Schedule:   toAssignmentViews(entry.Schedule),
				Score:      entry.Score,
				SolverUsed: "cache",
				Cached:     true,
				ElapsedMs:  time.Since(start).Milliseconds(),
			}
			return resp, nil
		}
	}
	s.Log.Debug("cache miss", zap.String("fingerprint", key))

	outcome, err := s.dispatch(ctx, choice, req)
	if err != nil {
		return dto.Response{}, err
	}

	if s.Cache != nil {
		entry := cache.Entry{Schedule: toEntryAssignments(outcome.Schedule), Score: outcome.Score, SolverUsed: outcome.SolverUsed}
		ttl := s.CacheTTL
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		s.Cache.Put(ctx, key, entry, ttl)
	}

	return dto.FromOutcome(outcome, false, time.Since(start).Milliseconds()), nil
}

// dispatch applies the auto-mode policy of spec §4.7 or honors an explicit
// choice, with the documented oracle-unavailable fallback in auto mode
// (spec §7): if cp-sat can't be reached and the task count is below the
// backtracking threshold, fall back to backtracking rather than surfacing
// OracleUnavailable.
func (s *Selector) dispatch(ctx context.Context, choice Choice, req solver.Request) (solver.Outcome, error) {
	threshold := s.BacktrackThreshold
	if threshold <= 0 {
		threshold = DefaultBacktrackThreshold
	}

	resolved := choice
	if choice == ChoiceAuto {
		switch {
		case len(req.InitialSchedule) > 0:
			resolved = ChoiceLocalSearch
		case len(req.Problem.Tasks) < threshold:
			resolved = ChoiceBacktracking
		default:
			resolved = ChoiceCPSAT
		}
	}

	s.Log.Info("solver selected", zap.String("choice", string(resolved)), zap.Int("tasks", len(req.Problem.Tasks)))

	var backend solver.Solver
	switch resolved {
	case ChoiceBacktracking:
		backend = s.Backtracking
		if req.TimeLimit <= 0 {
			req.TimeLimit = s.BacktrackTimeLimit
		}
	case ChoiceCPSAT:
		backend = s.CPSAT
		if req.TimeLimit <= 0 {
			req.TimeLimit = s.CPSATTimeLimit
		}
	case ChoiceLocalSearch:
		if ls, ok := s.LocalSearch.(*localsearch.Solver); ok {
			if s.TabuTenure > 0 {
				ls.Tenure = s.TabuTenure
			}
			if s.TabuMaxIterations > 0 {
				ls.MaxIterations = s.TabuMaxIterations
			}
		}
		backend = s.LocalSearch
	default:
		return solver.Outcome{}, apperrors.Invalid("unknown solver choice %q", resolved)
	}

	outcome, err := backend.Solve(ctx, req)
	if err != nil && choice == ChoiceAuto && resolved == ChoiceCPSAT {
		if code, ok := apperrors.CodeOf(err); ok && code == apperrors.CodeOracleUnavailable && len(req.Problem.Tasks) < threshold {
			s.Log.Warn("cp-sat oracle unavailable, falling back to backtracking", zap.Error(err))
			return s.Backtracking.Solve(ctx, req)
		}
	}
	if err != nil {
		s.Log.Warn("solve failed", zap.String("solver", string(resolved)), zap.Error(err))
	} else {
		s.Log.Info("solve completed", zap.String("solver", outcome.SolverUsed), zap.Float64("score", outcome.Score), zap.Bool("timed_out", outcome.TimedOut))
	}
	return outcome, err
}

func toAssignmentViews(entries map[string]cache.EntryAssignment) map[string]dto.AssignmentView {
	out := make(map[string]dto.AssignmentView, len(entries))
	for id, a := range entries {
		out[id] = dto.AssignmentView{Start: a.Start, End: a.End, Resources: a.Resources}
	}
	return out
}

func toEntryAssignments(sched schedule.Schedule) map[string]cache.EntryAssignment {
	out := make(map[string]cache.EntryAssignment, len(sched))
	for id, a := range sched {
		out[id] = cache.EntryAssignment{Start: a.Start, End: a.End, Resources: a.Resources}
	}
	return out
}
