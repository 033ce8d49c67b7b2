// Package domaingen enumerates, per task, the feasible (start, resources)
// candidates that respect resource availability and the task's window
// (spec §4.1).
package domaingen

import (
	"sort"

	"github.com/samber/lo"

	"github.com/schedulrx/engine/pkg/apperrors"
	"github.com/schedulrx/engine/pkg/schedule"
)

// DefaultQuantumMinutes is the candidate start-time granularity used when a
// caller does not override it (config key QUANTUM_MINUTES).
const DefaultQuantumMinutes = 15

// Domains maps task id to its ordered candidate list.
type Domains map[string][]schedule.Candidate

// Generate enumerates candidates for every task in the problem at the given
// quantum. It fails fast with apperrors.CodeInfeasible, carrying the
// offending task id, the moment any task's candidate set turns out empty.
func Generate(p schedule.Problem, quantumMinutes int) (Domains, error) {
	if quantumMinutes <= 0 {
		quantumMinutes = DefaultQuantumMinutes
	}
	resourceByID := p.ResourceByID()

	domains := make(Domains, len(p.Tasks))
	for _, t := range p.Tasks {
		candidates := candidatesForTask(t, resourceByID, quantumMinutes)
		if len(candidates) == 0 {
			return nil, apperrors.Infeasible(t.ID, "no feasible (start, resources) candidate exists for task %q", t.ID)
		}
		domains[t.ID] = candidates
	}
	return domains, nil
}

func candidatesForTask(t schedule.Task, resourceByID map[string]schedule.Resource, quantum int) []schedule.Candidate {
	lastStart := t.LatestEnd - t.Duration
	if lastStart < t.EarliestStart {
		return nil
	}

	resources := append([]string(nil), t.RequiredResources...)
	sort.Strings(resources)

	candidates := make([]schedule.Candidate, 0, (lastStart-t.EarliestStart)/quantum+1)
	for start := t.EarliestStart; start <= lastStart; start += quantum {
		end := start + t.Duration
		if fitsAllResources(start, end, resources, resourceByID) {
			candidates = append(candidates, schedule.Candidate{Start: start, Resources: resources})
		}
	}
	return candidates
}

func fitsAllResources(start, end int, resources []string, resourceByID map[string]schedule.Resource) bool {
	return lo.EveryBy(resources, func(rid string) bool {
		r := resourceByID[rid]
		return lo.SomeBy(r.Availability, func(w schedule.Interval) bool {
			return w.Contains(start, end)
		})
	})
}
