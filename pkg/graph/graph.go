// Package graph builds the task conflict graph consumed by the backtracking
// solver's variable/value-ordering heuristics and forward checking. The
// soft-constraint scorer does not consult it.
package graph

import (
	"github.com/schedulrx/engine/pkg/schedule"
)

// ConflictGraph is a flat adjacency-list structure indexed by task position
// in the originating Problem.Tasks slice, not by pointer links between task
// objects (per the "conflict graph cycles" design note: the graph is a plain
// undirected structure, no traversal assumes acyclicity).
type ConflictGraph struct {
	ids     []string
	index   map[string]int
	adj     [][]int
	degree  []int
}

// Build constructs the conflict graph for tasks. An edge (u, v) exists iff u
// and v share at least one required resource, or their feasible start
// windows [earliest_start, latest_end) overlap.
func Build(tasks []schedule.Task) *ConflictGraph {
	n := len(tasks)
	g := &ConflictGraph{
		ids:    make([]string, n),
		index:  make(map[string]int, n),
		adj:    make([][]int, n),
		degree: make([]int, n),
	}
	for i, t := range tasks {
		g.ids[i] = t.ID
		g.index[t.ID] = i
	}

	resourceSets := make([]map[string]bool, n)
	for i, t := range tasks {
		set := make(map[string]bool, len(t.RequiredResources))
		for _, r := range t.RequiredResources {
			set[r] = true
		}
		resourceSets[i] = set
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if sharesResource(resourceSets[i], resourceSets[j]) || windowsOverlap(tasks[i], tasks[j]) {
				g.adj[i] = append(g.adj[i], j)
				g.adj[j] = append(g.adj[j], i)
				g.degree[i]++
				g.degree[j]++
			}
		}
	}

	return g
}

func sharesResource(a, b map[string]bool) bool {
	small, large := a, b
	if len(large) < len(small) {
		small, large = large, small
	}
	for r := range small {
		if large[r] {
			return true
		}
	}
	return false
}

func windowsOverlap(a, b schedule.Task) bool {
	return a.EarliestStart < b.LatestEnd && b.EarliestStart < a.LatestEnd
}

// Neighbors returns the task ids adjacent to taskID.
func (g *ConflictGraph) Neighbors(taskID string) []string {
	idx, ok := g.index[taskID]
	if !ok {
		return nil
	}
	out := make([]string, len(g.adj[idx]))
	for i, j := range g.adj[idx] {
		out[i] = g.ids[j]
	}
	return out
}

// Degree returns the precomputed degree of taskID in O(1).
func (g *ConflictGraph) Degree(taskID string) int {
	idx, ok := g.index[taskID]
	if !ok {
		return 0
	}
	return g.degree[idx]
}
