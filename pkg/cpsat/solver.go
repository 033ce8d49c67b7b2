package cpsat

import (
	"context"

	"github.com/schedulrx/engine/pkg/apperrors"
	"github.com/schedulrx/engine/pkg/constraint"
	"github.com/schedulrx/engine/pkg/schedule"
	"github.com/schedulrx/engine/pkg/solver"
)

// Solver wraps Build and an Oracle into the shared solver.Solver contract
// (spec §4.5, §4.7): build the declarative model, submit it, decode the
// returned variable assignment back into a schedule.Schedule.
type Solver struct {
	Oracle Oracle
}

// New returns a cp-sat solver backed by oracle. Pass nil to use an
// in-process oracle suitable for small problems and tests.
func New(oracle Oracle) *Solver {
	if oracle == nil {
		oracle = NewInProcessOracle()
	}
	return &Solver{Oracle: oracle}
}

func (s *Solver) Solve(ctx context.Context, req solver.Request) (solver.Outcome, error) {
	registry := req.Registry
	if registry == nil {
		registry = constraint.Default()
	}

	if len(req.Problem.Tasks) == 0 {
		return solver.Outcome{Schedule: schedule.Schedule{}, Score: 0, SolverUsed: "cp-sat"}, nil
	}

	model := Build(req.Problem, req.TimeLimit)

	sol, err := s.Oracle.Submit(ctx, model)
	if err != nil {
		return solver.Outcome{}, err
	}

	switch sol.Status {
	case StatusInfeasible:
		return solver.Outcome{}, apperrors.Infeasible("", "cp-sat oracle reported the model infeasible")
	case StatusUnknown:
		return solver.Outcome{}, apperrors.Timeout("cp-sat oracle exhausted its time limit without finding a feasible solution")
	}

	sched, err := decode(model, req.Problem, sol)
	if err != nil {
		return solver.Outcome{}, err
	}

	solverUsed := "cp-sat"
	timedOut := sol.Status == StatusFeasible
	if timedOut {
		solverUsed = "cp-sat (timeout)"
	}

	return solver.Outcome{
		Schedule:   sched,
		Score:      registry.Score(req.Problem.TaskByID(), sched),
		SolverUsed: solverUsed,
		TimedOut:   timedOut,
	}, nil
}

// decode reconstructs a schedule.Schedule from an oracle solution, using
// the model's presence booleans to recover which resource each task was
// bound to.
func decode(model *Model, p schedule.Problem, sol Solution) (schedule.Schedule, error) {
	sched := make(schedule.Schedule, len(p.Tasks))

	presenceByTask := make(map[string][]Interval)
	for _, iv := range model.Intervals {
		taskID := taskIDFromStartVar(model, iv.Start)
		presenceByTask[taskID] = append(presenceByTask[taskID], iv)
	}

	for _, t := range p.Tasks {
		startVar, ok := model.TaskStartVar[t.ID]
		if !ok {
			continue
		}
		start, ok := sol.Values[startVar]
		if !ok {
			return nil, apperrors.Internal("cp-sat solution missing value for variable %q", startVar)
		}

		var resources []string
		for _, iv := range presenceByTask[t.ID] {
			if iv.Presence == "" || sol.Values[iv.Presence] == 1 {
				if !containsResource(resources, iv.Resource) {
					resources = append(resources, iv.Resource)
				}
			}
		}

		sched[t.ID] = schedule.Assignment{
			TaskID:    t.ID,
			Start:     start,
			End:       start + t.Duration,
			Resources: resources,
		}
	}
	return sched, nil
}

func taskIDFromStartVar(model *Model, startVar string) string {
	for taskID, v := range model.TaskStartVar {
		if v == startVar {
			return taskID
		}
	}
	return ""
}

