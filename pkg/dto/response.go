package dto

import (
	"github.com/schedulrx/engine/pkg/schedule"
	"github.com/schedulrx/engine/pkg/solver"
)

// AssignmentView is the wire shape of one schedule entry (spec §6.2).
type AssignmentView struct {
	Start     int      `json:"start"`
	End       int      `json:"end"`
	Resources []string `json:"resources"`
}

// Response is the wire shape of a solve outcome (spec §6.2).
type Response struct {
	Schedule   map[string]AssignmentView `json:"schedule"`
	Score      float64                   `json:"score"`
	SolverUsed string                    `json:"solver_used"`
	Cached     bool                      `json:"cached"`
	ElapsedMs  int64                     `json:"elapsed_ms"`
}

// FromOutcome builds a Response from a solver.Outcome plus the fields the
// selector alone knows (cache status, elapsed wall-clock time).
func FromOutcome(o solver.Outcome, cached bool, elapsedMs int64) Response {
	sched := make(map[string]AssignmentView, len(o.Schedule))
	for id, a := range o.Schedule {
		sched[id] = AssignmentView{Start: a.Start, End: a.End, Resources: a.Resources}
	}
	return Response{
		Schedule:   sched,
		Score:      o.Score,
		SolverUsed: o.SolverUsed,
		Cached:     cached,
		ElapsedMs:  elapsedMs,
	}
}

// ToSchedule reconstructs a schedule.Schedule from a Response's schedule
// map, used when decoding a cache entry back into a usable outcome.
func (r Response) ToSchedule() schedule.Schedule {
	sched := make(schedule.Schedule, len(r.Schedule))
	for id, a := range r.Schedule {
		sched[id] = schedule.Assignment{TaskID: id, Start: a.Start, End: a.End, Resources: a.Resources}
	}
	return sched
}
