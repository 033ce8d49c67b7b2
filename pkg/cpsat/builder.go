package cpsat

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/schedulrx/engine/pkg/schedule"
)

// DefaultTimeLimit is used when a build request does not set one
// (CPSAT_TIME_LIMIT_MS, spec §6.5).
const DefaultTimeLimit = 10 * time.Second

// Build translates a Problem into an interval/no-overlap Model per spec
// §4.5: one start variable per task, one optional interval per
// (task, resource, availability window) with presence booleans encoding
// the availability disjunction, a no-overlap constraint per resource, and
// an objective minimizing linearized soft-constraint slacks.
func Build(p schedule.Problem, timeLimit time.Duration) *Model {
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}
	resourceByID := p.ResourceByID()

	m := &Model{
		ID:           uuid.NewString(),
		TimeLimit:    timeLimit,
		TimeLimitMs:  timeLimit.Milliseconds(),
		TaskStartVar: make(map[string]string, len(p.Tasks)),
		TaskDuration: make(map[string]int, len(p.Tasks)),
	}

	noOverlapIntervals := make(map[string][]string) // resource id -> interval names

	for _, t := range p.Tasks {
		startVar := fmt.Sprintf("start_%s", t.ID)
		m.TaskStartVar[t.ID] = startVar
		m.TaskDuration[t.ID] = t.Duration
		m.Vars = append(m.Vars, IntVar{
			Name: startVar,
			Kind: KindStart,
			Min:  t.EarliestStart,
			Max:  t.LatestEnd - t.Duration,
		})

		for _, rid := range t.RequiredResources {
			r := resourceByID[rid]
			var presenceVars []string
			for wi, w := range r.Availability {
				presence := fmt.Sprintf("presence_%s_%s_%d", t.ID, rid, wi)
				m.Bools = append(m.Bools, BoolVar{Name: presence})
				m.AllowedRanges = append(m.AllowedRanges, AllowedRange{
					Var:      startVar,
					Min:      w.From,
					Max:      w.To - t.Duration,
					Presence: presence,
				})

				interval := fmt.Sprintf("iv_%s_%s_%d", t.ID, rid, wi)
				m.Intervals = append(m.Intervals, Interval{
					Name:     interval,
					Start:    startVar,
					Size:     t.Duration,
					Presence: presence,
					Resource: rid,
				})
				noOverlapIntervals[rid] = append(noOverlapIntervals[rid], interval)
				presenceVars = append(presenceVars, presence)
			}

			// Exactly one availability window is active for this
			// (task, resource) pair — the disjunction from spec §4.5.
			if len(presenceVars) > 0 {
				terms := make([]LinearTerm, len(presenceVars))
				for i, pv := range presenceVars {
					terms[i] = LinearTerm{Var: pv, Coefficient: 1}
				}
				m.Constraints = append(m.Constraints, LinearConstraint{Terms: terms, Op: OpEqual, RHS: 1})
			}
		}
	}

	for rid, intervals := range noOverlapIntervals {
		m.NoOverlaps = append(m.NoOverlaps, NoOverlap{Resource: rid, Intervals: intervals})
	}

	addObjective(m, p)
	return m
}

// addObjective linearizes the three built-in soft constraints into slack
// variables and appends them to the objective, per spec §4.5:
//   - preferred-window displacement as an absolute-deviation slack;
//   - workload variance via a per-resource total-minutes auxiliary and
//     its absolute deviation from the fleet-wide mean;
//   - gaps via a per-resource idle-minutes slack, pinned from below by the
//     successor-start-minus-predecessor-end span of every ordered pair of
//     same-resource tasks.
//
// The auxiliaries are genuine decision variables so the oracle can trade
// them off in its objective; this builder only wires the constraints that
// pin each slack to a lower bound compatible with its true value, which is
// sufficient for a minimizing objective to drive it down to the real
// penalty.
func addObjective(m *Model, p schedule.Problem) {
	totalMinutes := 0
	for _, t := range p.Tasks {
		totalMinutes += t.Duration
	}
	meanPerResource := 0.0
	if len(p.Resources) > 0 {
		meanPerResource = float64(totalMinutes) / float64(len(p.Resources))
	}

	for _, t := range p.Tasks {
		if len(t.PreferredWindows) == 0 {
			continue
		}
		startVar := m.TaskStartVar[t.ID]
		devVar := fmt.Sprintf("dev_%s", t.ID)
		m.Vars = append(m.Vars, IntVar{Name: devVar, Kind: KindSlack, Min: 0, Max: 1440})

		// Only the first preferred window is linearized directly; a task
		// with multiple preferred windows would need a per-window presence
		// disjunction analogous to availability, which is left as a
		// documented simplification (see DESIGN.md).
		w := t.PreferredWindows[0]
		end := t.Duration

		// dev >= from - end_t  <=>  dev + start >= from - duration
		m.Constraints = append(m.Constraints, LinearConstraint{
			Terms: []LinearTerm{{Var: devVar, Coefficient: 1}, {Var: startVar, Coefficient: 1}},
			Op:    OpGreaterEqual,
			RHS:   float64(w.From - end),
		})
		// dev >= start_t - to  <=>  dev - start >= -to
		m.Constraints = append(m.Constraints, LinearConstraint{
			Terms: []LinearTerm{{Var: devVar, Coefficient: 1}, {Var: startVar, Coefficient: -1}},
			Op:    OpGreaterEqual,
			RHS:   float64(-w.To),
		})

		m.Objective = append(m.Objective, LinearTerm{Var: devVar, Coefficient: 1})
	}

	for _, r := range p.Resources {
		totalVar := fmt.Sprintf("total_%s", r.ID)
		devVar := fmt.Sprintf("workload_dev_%s", r.ID)
		gapVar := fmt.Sprintf("gap_%s", r.ID)
		m.Vars = append(m.Vars,
			IntVar{Name: totalVar, Kind: KindSlack, Min: 0, Max: 1440 * len(p.Tasks)},
			IntVar{Name: devVar, Kind: KindSlack, Min: 0, Max: 1440 * len(p.Tasks)},
			IntVar{Name: gapVar, Kind: KindSlack, Min: 0, Max: 1440},
		)

		terms := make([]LinearTerm, 0, len(p.Tasks)+1)
		terms = append(terms, LinearTerm{Var: totalVar, Coefficient: -1})
		var tasksOnResource []schedule.Task
		for _, t := range p.Tasks {
			if !containsResource(t.RequiredResources, r.ID) {
				continue
			}
			tasksOnResource = append(tasksOnResource, t)
			for wi := range resourceByIDWindows(p, r.ID) {
				presence := fmt.Sprintf("presence_%s_%s_%d", t.ID, r.ID, wi)
				terms = append(terms, LinearTerm{Var: presence, Coefficient: float64(t.Duration)})
			}
		}
		m.Constraints = append(m.Constraints, LinearConstraint{Terms: terms, Op: OpEqual, RHS: 0})

		m.Constraints = append(m.Constraints,
			LinearConstraint{
				Terms: []LinearTerm{{Var: devVar, Coefficient: 1}, {Var: totalVar, Coefficient: -1}},
				Op:    OpGreaterEqual,
				RHS:   -meanPerResource,
			},
			LinearConstraint{
				Terms: []LinearTerm{{Var: devVar, Coefficient: 1}, {Var: totalVar, Coefficient: 1}},
				Op:    OpGreaterEqual,
				RHS:   meanPerResource,
			},
		)

		// gap >= successor_start - predecessor_end for every ordered pair of
		// tasks on this resource, mirroring devVar's two-sided bounding: the
		// no-overlap constraint already forbids the pair from occupying the
		// same time, so whichever ordering is realized in a solution pins
		// gap from below by the true idle span between them.
		startVars := make(map[string]string, len(tasksOnResource))
		for _, t := range tasksOnResource {
			startVars[t.ID] = m.TaskStartVar[t.ID]
		}
		for i, ti := range tasksOnResource {
			for j, tj := range tasksOnResource {
				if i == j {
					continue
				}
				m.Constraints = append(m.Constraints, LinearConstraint{
					Terms: []LinearTerm{
						{Var: gapVar, Coefficient: 1},
						{Var: startVars[tj.ID], Coefficient: -1},
						{Var: startVars[ti.ID], Coefficient: 1},
					},
					Op:  OpGreaterEqual,
					RHS: float64(-ti.Duration),
				})
			}
		}

		m.Objective = append(m.Objective, LinearTerm{Var: devVar, Coefficient: 1}, LinearTerm{Var: gapVar, Coefficient: 1})
	}
}

func containsResource(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func resourceByIDWindows(p schedule.Problem, id string) []schedule.Interval {
	for _, r := range p.Resources {
		if r.ID == id {
			return r.Availability
		}
	}
	return nil
}
