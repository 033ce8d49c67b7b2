// Package localsearch implements the tabu-search re-optimizer (spec §4.6):
// given a feasible schedule, search a time-shift neighborhood for a
// strictly-better-or-equal schedule, using recency memory to escape local
// optima and an aspiration criterion to override it when a move would beat
// the global best.
package localsearch

import (
	"context"
	"sort"
	"time"

	"github.com/schedulrx/engine/pkg/apperrors"
	"github.com/schedulrx/engine/pkg/constraint"
	"github.com/schedulrx/engine/pkg/schedule"
	"github.com/schedulrx/engine/pkg/solver"
)

const (
	// DefaultTenure is the number of most-recent moves kept tabu.
	DefaultTenure = 10
	// DefaultMaxIterations bounds the search (TABU_MAX_ITER, spec §6.5).
	DefaultMaxIterations = 100
	// DefaultNoImprovementLimit stops the search early once this many
	// consecutive iterations fail to improve the incumbent.
	DefaultNoImprovementLimit = 25
	// DefaultTimeLimit is used when a Request does not set one.
	DefaultTimeLimit = 10 * time.Second
)

var shiftDeltas = []int{-60, -30, 30, 60}
var fineShiftDeltas = []int{-15, 15, -30, 30, -60, 60}

// move is a candidate neighborhood step: shift taskID's start by delta
// minutes, keeping its resource assignment unchanged.
type move struct {
	taskID string
	delta  int
}

// tabuKey identifies a forbidden (task, signed delta) pair.
type tabuKey struct {
	taskID string
	delta  int
}

// Solver is the tabu-search implementation of solver.Solver. It requires
// req.InitialSchedule to be set and feasible.
type Solver struct {
	// Tenure overrides DefaultTenure; zero means the default.
	Tenure int
	// MaxIterations overrides DefaultMaxIterations; zero means the default.
	MaxIterations int
	// NoImprovementLimit overrides DefaultNoImprovementLimit; zero means the default.
	NoImprovementLimit int
}

// New returns a tabu-search solver with default parameters.
func New() *Solver { return &Solver{} }

func (s *Solver) Solve(ctx context.Context, req solver.Request) (solver.Outcome, error) {
	registry := req.Registry
	if registry == nil {
		registry = constraint.Default()
	}
	if len(req.InitialSchedule) == 0 && len(req.Problem.Tasks) > 0 {
		return solver.Outcome{}, apperrors.Invalid("tabu search requires a non-empty initial schedule")
	}
	if len(req.Problem.Tasks) == 0 {
		return solver.Outcome{Schedule: schedule.Schedule{}, Score: 0, SolverUsed: "tabu"}, nil
	}

	tasksByID := req.Problem.TaskByID()
	resourcesByID := req.Problem.ResourceByID()

	current := req.InitialSchedule.Clone()
	if err := checkFeasible(current, tasksByID, resourcesByID); err != nil {
		return solver.Outcome{}, err
	}

	deltas := shiftDeltas
	if req.QuantumMinutes == 15 {
		deltas = fineShiftDeltas
	}

	limit := req.TimeLimit
	if limit <= 0 {
		limit = DefaultTimeLimit
	}
	deadline := time.Now().Add(limit)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	noImprovementLimit := s.NoImprovementLimit
	if noImprovementLimit <= 0 {
		noImprovementLimit = DefaultNoImprovementLimit
	}
	tenure := s.Tenure
	if tenure <= 0 {
		tenure = DefaultTenure
	}

	best := current.Clone()
	bestScore := registry.Score(tasksByID, current)
	currentScore := bestScore

	tabu := newTabuList(tenure)
	timedOut := false
	noImprovement := 0

	frozen := map[string]bool{} // no tasks frozen for a full re-optimize

	for iter := 0; iter < maxIter && noImprovement < noImprovementLimit; iter++ {
		if time.Now().After(deadline) {
			timedOut = true
			break
		}

		mv, next, nextScore, found := bestNeighbor(current, currentScore, tasksByID, resourcesByID, deltas, tabu, bestScore, registry, frozen)
		if !found {
			break // neighborhood exhausted, all moves tabu without aspiration
		}

		current = next
		currentScore = nextScore
		tabu.push(tabuKey{mv.taskID, mv.delta})

		if currentScore < bestScore {
			best = current.Clone()
			bestScore = currentScore
			noImprovement = 0
		} else {
			noImprovement++
		}
	}

	return solver.Outcome{
		Schedule:   best,
		Score:      bestScore,
		SolverUsed: "tabu",
		TimedOut:   timedOut,
	}, nil
}

// ReoptimizePartial runs the same tabu neighborhood search but excludes
// changedTaskIDs's complement from the move set: only tasks named in
// changedTaskIDs may be shifted, every other assignment is frozen in place.
// This realizes the original engine's scoped re-optimization that the
// distilled schedule-wide C7 dropped.
func ReoptimizePartial(ctx context.Context, req solver.Request, changedTaskIDs []string) (solver.Outcome, error) {
	registry := req.Registry
	if registry == nil {
		registry = constraint.Default()
	}
	if len(req.InitialSchedule) == 0 {
		return solver.Outcome{}, apperrors.Invalid("partial re-optimization requires a non-empty initial schedule")
	}

	tasksByID := req.Problem.TaskByID()
	resourcesByID := req.Problem.ResourceByID()
	current := req.InitialSchedule.Clone()
	if err := checkFeasible(current, tasksByID, resourcesByID); err != nil {
		return solver.Outcome{}, err
	}

	changed := make(map[string]bool, len(changedTaskIDs))
	for _, id := range changedTaskIDs {
		changed[id] = true
	}
	frozen := map[string]bool{}
	for id := range tasksByID {
		if !changed[id] {
			frozen[id] = true
		}
	}

	deltas := shiftDeltas
	if req.QuantumMinutes == 15 {
		deltas = fineShiftDeltas
	}

	limit := req.TimeLimit
	if limit <= 0 {
		limit = DefaultTimeLimit
	}
	deadline := time.Now().Add(limit)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	best := current.Clone()
	bestScore := registry.Score(tasksByID, current)
	currentScore := bestScore

	tabu := newTabuList(DefaultTenure)
	timedOut := false
	noImprovement := 0

	for iter := 0; iter < DefaultMaxIterations && noImprovement < DefaultNoImprovementLimit; iter++ {
		if time.Now().After(deadline) {
			timedOut = true
			break
		}
		mv, next, nextScore, found := bestNeighbor(current, currentScore, tasksByID, resourcesByID, deltas, tabu, bestScore, registry, frozen)
		if !found {
			break
		}
		current = next
		currentScore = nextScore
		tabu.push(tabuKey{mv.taskID, mv.delta})
		if currentScore < bestScore {
			best = current.Clone()
			bestScore = currentScore
			noImprovement = 0
		} else {
			noImprovement++
		}
	}

	return solver.Outcome{
		Schedule:   best,
		Score:      bestScore,
		SolverUsed: "tabu",
		TimedOut:   timedOut,
	}, nil
}

// bestNeighbor scans every task's time-shift neighborhood and returns the
// best-improving non-tabu move, or any tabu move that satisfies the
// aspiration criterion (would beat the global best), whichever is better.
func bestNeighbor(current schedule.Schedule, currentScore float64, tasksByID map[string]schedule.Task, resourcesByID map[string]schedule.Resource, deltas []int, tabu *tabuList, bestScore float64, registry *constraint.Registry, frozen map[string]bool) (move, schedule.Schedule, float64, bool) {
	taskIDs := make([]string, 0, len(current))
	for id := range current {
		taskIDs = append(taskIDs, id)
	}
	sort.Strings(taskIDs) // deterministic scan order (spec §5 ordering guarantee)

	var bestMove move
	var bestCandidate schedule.Schedule
	bestCandidateScore := currentScore
	found := false

	for _, taskID := range taskIDs {
		if frozen[taskID] {
			continue
		}
		task := tasksByID[taskID]
		assignment := current[taskID]

		for _, delta := range deltas {
			candidate, ok := shift(current, task, assignment, delta, resourcesByID)
			if !ok {
				continue
			}
			key := tabuKey{taskID, delta}
			candidateScore := registry.Score(tasksByID, candidate)

			isTabu := tabu.contains(key)
			aspires := candidateScore < bestScore
			if isTabu && !aspires {
				continue
			}
			if !found || candidateScore < bestCandidateScore {
				bestMove = move{taskID, delta}
				bestCandidate = candidate
				bestCandidateScore = candidateScore
				found = true
			}
		}
	}

	return bestMove, bestCandidate, bestCandidateScore, found
}

// shift returns a copy of sched with taskID's assignment moved by delta
// minutes, or ok=false if the move violates I1, I2, or I3.
func shift(sched schedule.Schedule, task schedule.Task, assignment schedule.Assignment, delta int, resourcesByID map[string]schedule.Resource) (schedule.Schedule, bool) {
	newStart := assignment.Start + delta
	newEnd := newStart + task.Duration

	if newStart < task.EarliestStart || newEnd > task.LatestEnd { // I1
		return nil, false
	}
	for _, rid := range assignment.Resources {
		r := resourcesByID[rid]
		if !anyIntervalContains(r.Availability, newStart, newEnd) { // I2
			return nil, false
		}
	}
	for otherID, other := range sched {
		if otherID == task.ID {
			continue
		}
		if sharesAny(assignment.Resources, other.Resources) && newStart < other.End && other.Start < newEnd { // I3
			return nil, false
		}
	}

	out := sched.Clone()
	out[task.ID] = schedule.Assignment{
		TaskID:    task.ID,
		Start:     newStart,
		End:       newEnd,
		Resources: assignment.Resources,
	}
	return out, true
}

func anyIntervalContains(windows []schedule.Interval, start, end int) bool {
	for _, w := range windows {
		if w.Contains(start, end) {
			return true
		}
	}
	return false
}

func sharesAny(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// checkFeasible verifies I1/I2/I3 hold for every assignment in sched,
// returning apperrors.Invalid on the first violation found (spec §4.6
// failure mode: an infeasible input schedule is InvalidInput, not
// Infeasible — the caller handed us a bad starting point, the problem
// itself may be solvable).
func checkFeasible(sched schedule.Schedule, tasksByID map[string]schedule.Task, resourcesByID map[string]schedule.Resource) error {
	for id, task := range tasksByID {
		a, ok := sched[id]
		if !ok {
			return apperrors.Invalid("initial schedule is missing an assignment for task %q", id)
		}
		if a.Start < task.EarliestStart || a.End > task.LatestEnd {
			return apperrors.Invalid("initial schedule violates the time window for task %q", id)
		}
		for _, rid := range a.Resources {
			if !anyIntervalContains(resourcesByID[rid].Availability, a.Start, a.End) {
				return apperrors.Invalid("initial schedule places task %q outside the availability of resource %q", id, rid)
			}
		}
	}
	for id, a := range sched {
		for otherID, other := range sched {
			if id == otherID {
				continue
			}
			if sharesAny(a.Resources, other.Resources) && a.Start < other.End && other.Start < a.End {
				return apperrors.Invalid("initial schedule has overlapping assignments on a shared resource (%q, %q)", id, otherID)
			}
		}
	}
	return nil
}

// tabuList is a fixed-capacity FIFO of the most recent moves, forbidden
// until they age out.
type tabuList struct {
	tenure int
	order  []tabuKey
	set    map[tabuKey]int // key -> count currently held (a move may recur)
}

func newTabuList(tenure int) *tabuList {
	return &tabuList{tenure: tenure, set: make(map[tabuKey]int)}
}

func (t *tabuList) push(k tabuKey) {
	t.order = append(t.order, k)
	t.set[k]++
	if len(t.order) > t.tenure {
		evicted := t.order[0]
		t.order = t.order[1:]
		t.set[evicted]--
		if t.set[evicted] <= 0 {
			delete(t.set, evicted)
		}
	}
}

func (t *tabuList) contains(k tabuKey) bool {
	return t.set[k] > 0
}
