package constraint

import (
	"sort"

	"github.com/schedulrx/engine/pkg/schedule"
)

// PreferredTimeWindow penalizes an assignment by its displacement, in
// minutes, from the nearest preferred window. Zero if the assignment is
// contained in any preferred window, or if the task declares none.
type PreferredTimeWindow struct{}

func (PreferredTimeWindow) Name() string { return "preferred_time_window" }

func (PreferredTimeWindow) Penalty(taskID string, ctx Context) float64 {
	task := ctx.Tasks[taskID]
	a, ok := ctx.Schedule[taskID]
	if !ok || len(task.PreferredWindows) == 0 {
		return 0
	}

	best := -1
	for _, w := range task.PreferredWindows {
		d := displacement(a.Start, a.End, w.From, w.To)
		if best == -1 || d < best {
			best = d
		}
	}
	if best < 0 {
		return 0
	}
	return float64(best)
}

// displacement is the gap, in minutes, between assignment [start, end) and
// window [from, to): zero when they overlap at all, otherwise the distance
// between the nearer edges.
func displacement(start, end, from, to int) int {
	d := 0
	if gap := from - end; gap > d {
		d = gap
	}
	if gap := start - to; gap > d {
		d = gap
	}
	return d
}

// BalancedWorkload penalizes uneven distribution of assigned minutes across
// resources: the variance of per-resource total assigned minutes, computed
// over the (possibly partial) schedule and attributed evenly across the
// tasks placed so far so that summing TaskPenalty over all scheduled tasks
// reconstructs the whole-schedule variance exactly.
type BalancedWorkload struct{}

func (BalancedWorkload) Name() string { return "balanced_workload" }

func (BalancedWorkload) Penalty(taskID string, ctx Context) float64 {
	if _, ok := ctx.Schedule[taskID]; !ok || len(ctx.Schedule) == 0 {
		return 0
	}
	variance := workloadVariance(ctx)
	return variance / float64(len(ctx.Schedule))
}

func workloadVariance(ctx Context) float64 {
	totals := map[string]int{}
	for _, a := range ctx.Schedule {
		for _, r := range a.Resources {
			totals[r] += a.End - a.Start
		}
	}
	if len(totals) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range totals {
		mean += float64(v)
	}
	mean /= float64(len(totals))

	variance := 0.0
	for _, v := range totals {
		diff := float64(v) - mean
		variance += diff * diff
	}
	return variance / float64(len(totals))
}

// MinimizeGaps penalizes idle time on a resource between consecutive
// assignments: the gap immediately preceding a task's placement on any of
// its resources, attributed to that task.
type MinimizeGaps struct{}

func (MinimizeGaps) Name() string { return "minimize_gaps" }

func (MinimizeGaps) Penalty(taskID string, ctx Context) float64 {
	a, ok := ctx.Schedule[taskID]
	if !ok {
		return 0
	}

	total := 0
	for _, rid := range a.Resources {
		total += gapBefore(rid, taskID, ctx.Schedule)
	}
	return float64(total)
}

// gapBefore returns the idle minutes, on resource rid, between the
// assignment immediately preceding taskID (by start time) and taskID's own
// start, or 0 if taskID is the first (or only) assignment on that resource.
func gapBefore(rid, taskID string, sched schedule.Schedule) int {
	type entry struct {
		taskID string
		a      schedule.Assignment
	}
	var onResource []entry
	for tid, a := range sched {
		for _, r := range a.Resources {
			if r == rid {
				onResource = append(onResource, entry{tid, a})
				break
			}
		}
	}
	sort.Slice(onResource, func(i, j int) bool { return onResource[i].a.Start < onResource[j].a.Start })

	for i, e := range onResource {
		if e.taskID != taskID {
			continue
		}
		if i == 0 {
			return 0
		}
		prev := onResource[i-1].a
		if gap := e.a.Start - prev.End; gap > 0 {
			return gap
		}
		return 0
	}
	return 0
}
