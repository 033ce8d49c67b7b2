package schedule

import (
	"github.com/samber/lo"

	"github.com/schedulrx/engine/pkg/apperrors"
)

// Validate checks a Problem against the invariants of spec §3/§7 before any
// solver sees it: malformed durations, empty resource sets, out-of-order
// windows, overlapping or unsorted availability, and dangling resource
// references are all reported as apperrors.CodeInvalidInput.
func Validate(p Problem) error {
	resourceIDs := make(map[string]bool, len(p.Resources))
	for _, r := range p.Resources {
		if r.ID == "" {
			return apperrors.Invalid("resource id must not be empty")
		}
		if resourceIDs[r.ID] {
			return apperrors.Invalid("duplicate resource id %q", r.ID)
		}
		resourceIDs[r.ID] = true

		if r.Capacity != 0 && r.Capacity != 1 {
			return apperrors.Invalid("resource %q: capacity must be 1", r.ID)
		}
		if err := validateAvailability(r); err != nil {
			return err
		}
	}

	taskIDs := make(map[string]bool, len(p.Tasks))
	for _, t := range p.Tasks {
		if t.ID == "" {
			return apperrors.Invalid("task id must not be empty")
		}
		if taskIDs[t.ID] {
			return apperrors.Invalid("duplicate task id %q", t.ID)
		}
		taskIDs[t.ID] = true

		if t.Duration < 1 || t.Duration > 1440 {
			return apperrors.Invalid("task %q: duration must be between 1 and 1440 minutes", t.ID)
		}
		if len(t.RequiredResources) == 0 {
			return apperrors.Invalid("task %q: required_resources must not be empty", t.ID)
		}
		if lo.Uniq(t.RequiredResources) == nil || len(lo.Uniq(t.RequiredResources)) != len(t.RequiredResources) {
			return apperrors.Invalid("task %q: required_resources must not contain duplicates", t.ID)
		}
		for _, rid := range t.RequiredResources {
			if !resourceIDs[rid] {
				return apperrors.Invalid("task %q: unknown resource reference %q", t.ID, rid)
			}
		}
		if t.EarliestStart+t.Duration > t.LatestEnd {
			return apperrors.Invalid("task %q: earliest_start + duration exceeds latest_end", t.ID)
		}
		for _, w := range t.PreferredWindows {
			if w.From >= w.To {
				return apperrors.Invalid("task %q: preferred window [%d,%d) must satisfy from < to", t.ID, w.From, w.To)
			}
		}
	}

	return nil
}

// validateAvailability checks r.Availability in the order the caller gave
// it: each window must be well-formed, already sorted ascending by From
// (spec §7 rejects "unsorted availability intervals" outright rather than
// silently reordering them), and non-overlapping/non-adjacent against its
// immediate predecessor.
func validateAvailability(r Resource) error {
	windows := r.Availability
	for i, w := range windows {
		if w.From >= w.To {
			return apperrors.Invalid("resource %q: availability window [%d,%d) must satisfy from < to", r.ID, w.From, w.To)
		}
		if i > 0 && w.From < windows[i-1].From {
			return apperrors.Invalid("resource %q: availability windows must be sorted by start time", r.ID)
		}
	}
	for i := 1; i < len(windows); i++ {
		if windows[i].From <= windows[i-1].To {
			return apperrors.Invalid("resource %q: availability windows must be non-overlapping and non-adjacent", r.ID)
		}
	}
	return nil
}

// NormalizeDefaults applies the request-layer defaults documented in spec
// §6.1: a missing earliest_start defaults to 0 and a missing latest_end
// defaults to 1440. Call this before Validate so the invariant checks above
// see fully populated windows.
func NormalizeDefaults(p Problem) Problem {
	out := Problem{Tasks: make([]Task, len(p.Tasks)), Resources: p.Resources}
	for i, t := range p.Tasks {
		if t.LatestEnd == 0 {
			t.LatestEnd = 1440
		}
		out.Tasks[i] = t
	}
	return out
}
