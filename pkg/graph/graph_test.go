package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schedulrx/engine/pkg/graph"
	"github.com/schedulrx/engine/pkg/schedule"
)

func TestBuild_EdgeOnSharedResource(t *testing.T) {
	tasks := []schedule.Task{
		{ID: "T1", RequiredResources: []string{"R"}, EarliestStart: 0, LatestEnd: 100},
		{ID: "T2", RequiredResources: []string{"R"}, EarliestStart: 200, LatestEnd: 300},
	}
	g := graph.Build(tasks)

	assert.ElementsMatch(t, []string{"T2"}, g.Neighbors("T1"))
	assert.Equal(t, 1, g.Degree("T1"))
}

func TestBuild_EdgeOnOverlappingWindowsNoSharedResource(t *testing.T) {
	tasks := []schedule.Task{
		{ID: "T1", RequiredResources: []string{"A"}, EarliestStart: 0, LatestEnd: 100},
		{ID: "T2", RequiredResources: []string{"B"}, EarliestStart: 50, LatestEnd: 150},
	}
	g := graph.Build(tasks)

	assert.ElementsMatch(t, []string{"T2"}, g.Neighbors("T1"))
}

func TestBuild_NoEdgeWhenDisjoint(t *testing.T) {
	tasks := []schedule.Task{
		{ID: "T1", RequiredResources: []string{"A"}, EarliestStart: 0, LatestEnd: 100},
		{ID: "T2", RequiredResources: []string{"B"}, EarliestStart: 200, LatestEnd: 300},
	}
	g := graph.Build(tasks)

	assert.Empty(t, g.Neighbors("T1"))
	assert.Equal(t, 0, g.Degree("T1"))
}

func TestBuild_UnknownTaskIDIsSafe(t *testing.T) {
	g := graph.Build(nil)
	assert.Nil(t, g.Neighbors("ghost"))
	assert.Equal(t, 0, g.Degree("ghost"))
}
