// Package constraint holds the pluggable soft-constraint registry and the
// schedule scorer built on top of it (spec §4.3).
package constraint

import (
	"fmt"
	"sort"

	"github.com/schedulrx/engine/pkg/schedule"
)

// Context is the read-only view a SoftConstraint sees when computing a
// penalty: the full set of tasks in the problem and the (possibly partial,
// during search) schedule built so far.
type Context struct {
	Tasks    map[string]schedule.Task
	Schedule schedule.Schedule
}

// SoftConstraint is a pure function from (task, assignment, full schedule)
// to a non-negative penalty, per spec §4.3.
type SoftConstraint interface {
	// Name identifies the constraint; it participates in the registry's
	// version tag.
	Name() string
	// Penalty returns the non-negative penalty attributed to taskID given
	// ctx. taskID must be present (assigned) in ctx.Schedule.
	Penalty(taskID string, ctx Context) float64
}

type weightedConstraint struct {
	constraint SoftConstraint
	weight     float64
}

// Registry holds a weighted list of soft constraints. It is frozen after
// construction: Register may only be called before the registry is handed
// to a solver, mirroring the "registry is frozen at process start" design
// note. Its version participates in the problem fingerprint (spec §3) so
// that changing the constraint set invalidates stale cache entries.
type Registry struct {
	entries []weightedConstraint
	frozen  bool
}

// NewRegistry returns an empty, mutable registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a weighted constraint. It panics if the registry has
// already been frozen — a programming error, not a runtime condition.
func (r *Registry) Register(c SoftConstraint, weight float64) *Registry {
	if r.frozen {
		panic("constraint: cannot register into a frozen registry")
	}
	r.entries = append(r.entries, weightedConstraint{constraint: c, weight: weight})
	return r
}

// Freeze locks the registry against further registration and stabilizes its
// version tag.
func (r *Registry) Freeze() *Registry {
	r.frozen = true
	return r
}

// Version returns a deterministic tag identifying the registered
// constraints and their weights, in registration order.
func (r *Registry) Version() string {
	v := "v1"
	for _, e := range r.entries {
		v += fmt.Sprintf("|%s:%g", e.constraint.Name(), e.weight)
	}
	return v
}

// Default returns the frozen, built-in registry: PreferredTimeWindow,
// BalancedWorkload and MinimizeGaps, each with weight 1, as required by
// spec §4.3.
func Default() *Registry {
	return NewRegistry().
		Register(PreferredTimeWindow{}, 1).
		Register(BalancedWorkload{}, 1).
		Register(MinimizeGaps{}, 1).
		Freeze()
}

// TaskPenalty returns the weighted sum of every registered constraint's
// penalty for a single task, given the current (possibly partial) context.
// The backtracking solver uses this as the admissible incremental
// contribution of one placement to its best-so-far lower bound.
func (r *Registry) TaskPenalty(taskID string, ctx Context) float64 {
	total := 0.0
	for _, e := range r.entries {
		total += e.weight * e.constraint.Penalty(taskID, ctx)
	}
	return total
}

// Score computes the total score of a complete schedule: the sum, over
// every scheduled task, of TaskPenalty.
func (r *Registry) Score(tasks map[string]schedule.Task, sched schedule.Schedule) float64 {
	ctx := Context{Tasks: tasks, Schedule: sched}
	ids := make([]string, 0, len(sched))
	for id := range sched {
		ids = append(ids, id)
	}
	sort.Strings(ids) // deterministic summation order; floating point sums are order-sensitive
	total := 0.0
	for _, id := range ids {
		total += r.TaskPenalty(id, ctx)
	}
	return total
}
