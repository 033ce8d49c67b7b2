// Package solver defines the shared request/outcome contract implemented by
// every solver backend (backtracking, CP-SAT, tabu local search) so the
// selector (spec §4.7) can dispatch to any of them uniformly.
package solver

import (
	"context"
	"time"

	"github.com/schedulrx/engine/pkg/constraint"
	"github.com/schedulrx/engine/pkg/schedule"
)

// Request bundles everything a solver backend needs for one solve.
type Request struct {
	Problem schedule.Problem
	// InitialSchedule is required by the local-search backend and ignored
	// by the others.
	InitialSchedule schedule.Schedule
	// TimeLimit is the wall-clock budget for this solve; zero means the
	// backend's own default (spec §6.5).
	TimeLimit time.Duration
	// QuantumMinutes overrides the domain generator's granularity; zero
	// means domaingen.DefaultQuantumMinutes.
	QuantumMinutes int
	Registry       *constraint.Registry
}

// Outcome is the result of one solve attempt.
type Outcome struct {
	Schedule   schedule.Schedule
	Score      float64
	SolverUsed string
	// TimedOut is true when the wall-clock budget elapsed before the
	// search could prove optimality or exhaustion; Schedule still carries
	// the best incumbent found, if any.
	TimedOut bool
}

// Solver is implemented by each concrete backend (C5, C6, C7).
type Solver interface {
	// Solve returns a complete, feasible schedule or a structured
	// *apperrors.Error (CodeInfeasible, CodeTimeout, CodeOracleUnavailable,
	// or CodeInvalidInput).
	Solve(ctx context.Context, req Request) (Outcome, error)
}
