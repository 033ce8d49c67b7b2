package domaingen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedulrx/engine/pkg/apperrors"
	"github.com/schedulrx/engine/pkg/domaingen"
	"github.com/schedulrx/engine/pkg/schedule"
)

func TestGenerate_SingleExactFitCandidate(t *testing.T) {
	// Boundary case: a single task whose only availability exactly fits its
	// duration yields exactly one candidate.
	p := schedule.Problem{
		Tasks: []schedule.Task{
			{ID: "T1", Duration: 60, RequiredResources: []string{"R"}, EarliestStart: 540, LatestEnd: 600},
		},
		Resources: []schedule.Resource{
			{ID: "R", Availability: []schedule.Interval{{From: 540, To: 600}}, Capacity: 1},
		},
	}

	domains, err := domaingen.Generate(p, 15)
	require.NoError(t, err)
	require.Len(t, domains["T1"], 1)
	assert.Equal(t, 540, domains["T1"][0].Start)
}

func TestGenerate_InfeasibleWhenNoWindowFits(t *testing.T) {
	p := schedule.Problem{
		Tasks: []schedule.Task{
			{ID: "T1", Duration: 90, RequiredResources: []string{"R"}, EarliestStart: 0, LatestEnd: 90},
		},
		Resources: []schedule.Resource{
			{ID: "R", Availability: []schedule.Interval{{From: 0, To: 60}}, Capacity: 1},
		},
	}

	_, err := domaingen.Generate(p, 15)
	require.Error(t, err)
	code, ok := apperrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInfeasible, code)
}

func TestGenerate_QuantumStepsCandidates(t *testing.T) {
	p := schedule.Problem{
		Tasks: []schedule.Task{
			{ID: "T1", Duration: 30, RequiredResources: []string{"R"}, EarliestStart: 0, LatestEnd: 90},
		},
		Resources: []schedule.Resource{
			{ID: "R", Availability: []schedule.Interval{{From: 0, To: 90}}, Capacity: 1},
		},
	}

	domains, err := domaingen.Generate(p, 15)
	require.NoError(t, err)
	// starts at 0, 15, 30, 45 (last start = 90-30 = 60, so also 60)
	assert.Len(t, domains["T1"], 5)
}
