package cpsat_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedulrx/engine/pkg/cpsat"
	"github.com/schedulrx/engine/pkg/schedule"
	"github.com/schedulrx/engine/pkg/solver"
)

func TestSolver_S1_Trivial(t *testing.T) {
	p := schedule.Problem{
		Tasks: []schedule.Task{
			{ID: "T1", Duration: 60, RequiredResources: []string{"R"}, EarliestStart: 540, LatestEnd: 720},
		},
		Resources: []schedule.Resource{
			{ID: "R", Availability: []schedule.Interval{{From: 540, To: 720}}, Capacity: 1},
		},
	}

	s := cpsat.New(&cpsat.InProcessOracle{StepMinutes: 15, MaxNodes: 50_000})
	out, err := s.Solve(context.Background(), solver.Request{Problem: p, TimeLimit: 5 * time.Second})
	require.NoError(t, err)
	require.Contains(t, out.Schedule, "T1")
	assert.Contains(t, out.SolverUsed, "cp-sat")
}

func TestSolver_EmptyProblem(t *testing.T) {
	s := cpsat.New(nil)
	out, err := s.Solve(context.Background(), solver.Request{Problem: schedule.Problem{}})
	require.NoError(t, err)
	assert.Empty(t, out.Schedule)
}
