// Package backtrack implements the DFS backtracking CSP solver (spec §4.4):
// MRV variable ordering with degree tiebreak, least-constraining-value
// ordering, one-level forward checking, and feasibility-first best-so-far
// search bounded by soft-constraint score.
package backtrack

import (
	"context"
	"sort"
	"time"

	"github.com/schedulrx/engine/pkg/apperrors"
	"github.com/schedulrx/engine/pkg/constraint"
	"github.com/schedulrx/engine/pkg/domaingen"
	"github.com/schedulrx/engine/pkg/graph"
	"github.com/schedulrx/engine/pkg/schedule"
	"github.com/schedulrx/engine/pkg/solver"
)

// DefaultTimeLimit is used when a Request does not set one
// (BACKTRACK_TIME_LIMIT_MS, spec §6.5).
const DefaultTimeLimit = 30 * time.Second

// Solver is the backtracking implementation of solver.Solver.
type Solver struct{}

// New returns a backtracking solver.
func New() *Solver { return &Solver{} }

func (s *Solver) Solve(ctx context.Context, req solver.Request) (solver.Outcome, error) {
	registry := req.Registry
	if registry == nil {
		registry = constraint.Default()
	}
	quantum := req.QuantumMinutes
	if quantum <= 0 {
		quantum = domaingen.DefaultQuantumMinutes
	}
	limit := req.TimeLimit
	if limit <= 0 {
		limit = DefaultTimeLimit
	}

	if len(req.Problem.Tasks) == 0 {
		return solver.Outcome{Schedule: schedule.Schedule{}, Score: 0, SolverUsed: "backtracking"}, nil
	}

	domains, err := domaingen.Generate(req.Problem, quantum)
	if err != nil {
		return solver.Outcome{}, err
	}

	deadline := time.Now().Add(limit)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	cg := graph.Build(req.Problem.Tasks)
	tasksByID := req.Problem.TaskByID()

	e := &engine{
		graph:     cg,
		tasksByID: tasksByID,
		registry:  registry,
		deadline:  deadline,
		domains:   cloneDomains(domains),
		partial:   schedule.Schedule{},
	}

	unassigned := make([]string, 0, len(req.Problem.Tasks))
	for _, t := range req.Problem.Tasks {
		unassigned = append(unassigned, t.ID)
	}

	e.dfs(unassigned, 0)

	if e.timedOut && e.best == nil {
		return solver.Outcome{}, apperrors.Timeout("backtracking search exceeded its wall-clock budget with no feasible schedule found")
	}
	if e.best == nil {
		return solver.Outcome{}, apperrors.Infeasible("", "backtracking search exhausted the tree with no feasible schedule")
	}

	return solver.Outcome{
		Schedule:   e.best,
		Score:      e.bestScore,
		SolverUsed: "backtracking",
		TimedOut:   e.timedOut,
	}, nil
}

type engine struct {
	graph     *graph.ConflictGraph
	tasksByID map[string]schedule.Task
	registry  *constraint.Registry
	deadline  time.Time

	domains domaingen.Domains
	partial schedule.Schedule

	best      schedule.Schedule
	bestScore float64
	timedOut  bool
}

// dfs explores assignments for the tasks in unassigned. partialLowerBound is
// the admissible sum of realized penalties for tasks already placed on this
// branch.
func (e *engine) dfs(unassigned []string, partialLowerBound float64) {
	if e.timedOut {
		return
	}
	if time.Now().After(e.deadline) {
		e.timedOut = true
		return
	}
	if e.best != nil && partialLowerBound >= e.bestScore {
		return // branch-and-bound prune: cannot possibly beat the incumbent
	}

	if len(unassigned) == 0 {
		score := e.registry.Score(e.tasksByID, e.partial)
		if e.best == nil || score < e.bestScore {
			e.best = e.partial.Clone()
			e.bestScore = score
		}
		return
	}

	varID := selectVariable(unassigned, e.domains, e.graph)
	rest := removeID(unassigned, varID)

	values := orderValues(varID, e.domains[varID], rest, e.domains, e.graph, e.tasksByID)

	for _, val := range values {
		if e.timedOut {
			return
		}
		if !e.consistent(varID, val) {
			continue
		}

		task := e.tasksByID[varID]
		e.partial[varID] = schedule.Assignment{
			TaskID:    varID,
			Start:     val.Start,
			End:       val.Start + task.Duration,
			Resources: val.Resources,
		}

		removed := e.forwardCheck(varID, rest)
		if !domainsAllNonEmpty(rest, e.domains) {
			e.restoreForwardCheck(removed)
			delete(e.partial, varID)
			continue
		}

		penalty := e.registry.TaskPenalty(varID, constraint.Context{Tasks: e.tasksByID, Schedule: e.partial})
		e.dfs(rest, partialLowerBound+penalty)

		e.restoreForwardCheck(removed)
		delete(e.partial, varID)
	}
}

// consistent reports whether placing val for varID conflicts with any
// already-placed assignment on a shared resource.
func (e *engine) consistent(varID string, val schedule.Candidate) bool {
	task := e.tasksByID[varID]
	candidateEnd := val.Start + task.Duration
	for otherID, other := range e.partial {
		if otherID == varID {
			continue
		}
		if !sharesAny(val.Resources, other.Resources) {
			continue
		}
		if val.Start < other.End && other.Start < candidateEnd {
			return false
		}
	}
	return true
}

type removal struct {
	taskID     string
	candidates []schedule.Candidate
}

// forwardCheck removes, from every unassigned neighbor's live domain, any
// candidate that would conflict with the assignment just made for varID.
// Only direct neighbors are examined (one-level forward checking, per the
// spec's documented Open Question resolution).
func (e *engine) forwardCheck(varID string, unassigned []string) []removal {
	placed := e.partial[varID]
	unassignedSet := toSet(unassigned)

	var removed []removal
	for _, nbr := range e.graph.Neighbors(varID) {
		if !unassignedSet[nbr] {
			continue
		}
		task := e.tasksByID[nbr]
		kept := e.domains[nbr][:0:0]
		var pruned []schedule.Candidate
		for _, c := range e.domains[nbr] {
			if sharesAny(c.Resources, placed.Resources) && c.Start < placed.End && placed.Start < c.Start+task.Duration {
				pruned = append(pruned, c)
				continue
			}
			kept = append(kept, c)
		}
		if len(pruned) > 0 {
			e.domains[nbr] = kept
			removed = append(removed, removal{taskID: nbr, candidates: pruned})
		}
	}
	return removed
}

func (e *engine) restoreForwardCheck(removed []removal) {
	for i := len(removed) - 1; i >= 0; i-- {
		r := removed[i]
		e.domains[r.taskID] = append(e.domains[r.taskID], r.candidates...)
		sort.Slice(e.domains[r.taskID], func(i, j int) bool { return e.domains[r.taskID][i].Start < e.domains[r.taskID][j].Start })
	}
}

// selectVariable applies MRV, breaking ties by highest conflict-graph
// degree, then lexicographic task id (spec §4.4).
func selectVariable(unassigned []string, domains domaingen.Domains, g *graph.ConflictGraph) string {
	best := unassigned[0]
	for _, id := range unassigned[1:] {
		if better := compareVariables(id, best, domains, g); better {
			best = id
		}
	}
	return best
}

func compareVariables(a, b string, domains domaingen.Domains, g *graph.ConflictGraph) bool {
	la, lb := len(domains[a]), len(domains[b])
	if la != lb {
		return la < lb
	}
	da, db := g.Degree(a), g.Degree(b)
	if da != db {
		return da > db
	}
	return a < b
}

// orderValues applies least-constraining-value ordering: candidates that
// eliminate fewer values from unassigned neighbors' domains come first
// (spec §4.4 LCV).
func orderValues(varID string, candidates []schedule.Candidate, unassigned []string, domains domaingen.Domains, g *graph.ConflictGraph, tasksByID map[string]schedule.Task) []schedule.Candidate {
	unassignedSet := toSet(unassigned)
	neighbors := g.Neighbors(varID)
	duration := tasksByID[varID].Duration

	out := append([]schedule.Candidate(nil), candidates...)
	cost := make([]int, len(out))
	for i, c := range out {
		cost[i] = eliminationCount(c, duration, neighbors, unassignedSet, domains, tasksByID)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if cost[i] != cost[j] {
			return cost[i] < cost[j]
		}
		return out[i].Start < out[j].Start
	})
	return out
}

// eliminationCount counts how many candidate values across unassigned
// neighbors would become infeasible if c were adopted for the current
// variable.
func eliminationCount(c schedule.Candidate, duration int, neighbors []string, unassignedSet map[string]bool, domains domaingen.Domains, tasksByID map[string]schedule.Task) int {
	end := c.Start + duration
	total := 0
	for _, nbrID := range neighbors {
		if !unassignedSet[nbrID] {
			continue
		}
		nbrDuration := tasksByID[nbrID].Duration
		for _, nc := range domains[nbrID] {
			if sharesAny(nc.Resources, c.Resources) && nc.Start < end && c.Start < nc.Start+nbrDuration {
				total++
			}
		}
	}
	return total
}

func removeID(ids []string, target string) []string {
	out := make([]string, 0, len(ids)-1)
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func domainsAllNonEmpty(ids []string, domains domaingen.Domains) bool {
	for _, id := range ids {
		if len(domains[id]) == 0 {
			return false
		}
	}
	return true
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

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func cloneDomains(d domaingen.Domains) domaingen.Domains {
	out := make(domaingen.Domains, len(d))
	for k, v := range d {
		out[k] = append([]schedule.Candidate(nil), v...)
	}
	return out
}
