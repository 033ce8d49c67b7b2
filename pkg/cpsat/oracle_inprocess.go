package cpsat

import (
	"context"
	"sort"
	"time"
)

// InProcessOracle is a small bounded-domain labeling search used for tests
// and for problems too small to justify a subprocess round-trip. It labels
// every integer/boolean variable in turn — the same "pick a variable,
// enumerate its domain, propagate, backtrack" idiom a finite-domain
// constraint library like gitrdm-gokando's pkg/minikanren/fd.go uses for
// its own domain labeling — without depending on that library, since this
// oracle needs no logic-variable unification, only a bounded feasibility
// search over the primitives cpsat.Model defines.
//
// It is intentionally coarse: integer variables are labeled at StepMinutes
// granularity rather than exhaustively, which is appropriate for an
// in-process fallback but not a substitute for a real CP-SAT engine.
type InProcessOracle struct {
	// StepMinutes is the labeling granularity for integer variables.
	StepMinutes int
	// MaxNodes bounds the search to keep it responsive on pathological
	// inputs; zero means DefaultMaxNodes.
	MaxNodes int
}

// DefaultMaxNodes bounds InProcessOracle's search tree.
const DefaultMaxNodes = 200_000

// NewInProcessOracle returns an Oracle with sensible defaults.
func NewInProcessOracle() *InProcessOracle {
	return &InProcessOracle{StepMinutes: 5, MaxNodes: DefaultMaxNodes}
}

func (o *InProcessOracle) Submit(ctx context.Context, model *Model) (Solution, error) {
	step := o.StepMinutes
	if step <= 0 {
		step = 5
	}
	maxNodes := o.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}

	names, domains := buildDomains(model, step)

	s := &labeler{
		model:    model,
		names:    names,
		domains:  domains,
		assign:   make(map[string]int, len(names)),
		maxNodes: maxNodes,
		deadline: deadlineFor(ctx, model.TimeLimit),
	}

	s.search(0)

	if s.timedOut && s.best == nil {
		return Solution{Status: StatusUnknown, Values: map[string]int{}}, nil
	}
	if s.best == nil {
		return Solution{Status: StatusInfeasible}, nil
	}
	status := StatusOptimal
	if s.timedOut || s.nodes >= maxNodes {
		status = StatusFeasible
	}
	return Solution{Status: status, Values: s.best}, nil
}

func deadlineFor(ctx context.Context, limit time.Duration) time.Time {
	deadline := time.Now().Add(limit)
	if limit <= 0 {
		deadline = time.Now().Add(DefaultTimeLimit)
	}
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return deadline
}

func buildDomains(model *Model, step int) ([]string, map[string][]int) {
	names := make([]string, 0, len(model.Vars)+len(model.Bools))
	domains := make(map[string][]int, len(model.Vars)+len(model.Bools))

	for _, v := range model.Vars {
		values := make([]int, 0, (v.Max-v.Min)/step+1)
		for x := v.Min; x <= v.Max; x += step {
			values = append(values, x)
		}
		if len(values) == 0 || values[len(values)-1] != v.Max {
			values = append(values, v.Max)
		}
		names = append(names, v.Name)
		domains[v.Name] = values
	}
	for _, b := range model.Bools {
		names = append(names, b.Name)
		domains[b.Name] = []int{0, 1}
	}
	sort.Strings(names) // deterministic labeling order
	return names, domains
}

type labeler struct {
	model    *Model
	names    []string
	domains  map[string][]int
	assign   map[string]int
	maxNodes int
	nodes    int
	deadline time.Time

	best         map[string]int
	bestObjValue float64
	timedOut     bool
}

func (s *labeler) search(i int) {
	if s.timedOut || s.nodes >= s.maxNodes {
		s.timedOut = true
		return
	}
	s.nodes++
	if s.nodes%512 == 0 && time.Now().After(s.deadline) {
		s.timedOut = true
		return
	}

	if i == len(s.names) {
		if !s.satisfiesConstraints() {
			return
		}
		obj := s.objectiveValue()
		if s.best == nil || obj < s.bestObjValue {
			s.best = cloneInts(s.assign)
			s.bestObjValue = obj
		}
		return
	}

	name := s.names[i]
	for _, v := range s.domains[name] {
		s.assign[name] = v
		if s.partiallyConsistent(i) {
			s.search(i + 1)
		}
		if s.timedOut {
			delete(s.assign, name)
			return
		}
	}
	delete(s.assign, name)
}

// partiallyConsistent applies a cheap prefix check: any AllowedRange whose
// variable and presence are both already assigned must already hold, and
// any linear constraint whose every term is already assigned must already
// hold. This is what keeps the labeling search tractable — a wide slack
// variable's domain collapses to "the one value consistent with what's
// already fixed" instead of being explored branch by branch.
func (s *labeler) partiallyConsistent(_ int) bool {
	for _, ar := range s.model.AllowedRanges {
		val, haveVar := s.assign[ar.Var]
		if !haveVar {
			continue
		}
		if ar.Presence != "" {
			pres, havePres := s.assign[ar.Presence]
			if !havePres || pres == 0 {
				continue
			}
		}
		if val < ar.Min || val > ar.Max {
			return false
		}
	}

	for _, c := range s.model.Constraints {
		sum := 0.0
		ready := true
		for _, t := range c.Terms {
			val, ok := s.assign[t.Var]
			if !ok {
				ready = false
				break
			}
			sum += t.Coefficient * float64(val)
		}
		if !ready {
			continue
		}
		switch c.Op {
		case OpEqual:
			if sum != c.RHS {
				return false
			}
		case OpLessEqual:
			if sum > c.RHS {
				return false
			}
		case OpGreaterEqual:
			if sum < c.RHS {
				return false
			}
		}
	}
	return true
}

func (s *labeler) satisfiesConstraints() bool {
	for _, c := range s.model.Constraints {
		sum := 0.0
		for _, t := range c.Terms {
			sum += t.Coefficient * float64(s.assign[t.Var])
		}
		switch c.Op {
		case OpEqual:
			if sum != c.RHS {
				return false
			}
		case OpLessEqual:
			if sum > c.RHS {
				return false
			}
		case OpGreaterEqual:
			if sum < c.RHS {
				return false
			}
		}
	}

	byResource := map[string][]Interval{}
	for _, iv := range s.model.Intervals {
		byResource[iv.Resource] = append(byResource[iv.Resource], iv)
	}
	for _, no := range s.model.NoOverlaps {
		type placed struct{ start, end int }
		var actives []placed
		for _, name := range no.Intervals {
			iv := findInterval(s.model.Intervals, name)
			if iv == nil {
				continue
			}
			if iv.Presence != "" && s.assign[iv.Presence] == 0 {
				continue
			}
			start := s.assign[iv.Start]
			actives = append(actives, placed{start, start + iv.Size})
		}
		for i := 0; i < len(actives); i++ {
			for j := i + 1; j < len(actives); j++ {
				if actives[i].start < actives[j].end && actives[j].start < actives[i].end {
					return false
				}
			}
		}
	}
	return true
}

func (s *labeler) objectiveValue() float64 {
	total := 0.0
	for _, term := range s.model.Objective {
		total += term.Coefficient * float64(s.assign[term.Var])
	}
	return total
}

func findInterval(intervals []Interval, name string) *Interval {
	for i := range intervals {
		if intervals[i].Name == name {
			return &intervals[i]
		}
	}
	return nil
}

func cloneInts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
