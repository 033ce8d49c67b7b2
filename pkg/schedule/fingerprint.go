package schedule

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// canonicalTask/canonicalResource carry only the fields that affect
// semantic equality; field order here is fixed and JSON-encoded
// deterministically so two structurally-equal problems hash identically
// regardless of input ordering (spec §3, §8 "Fingerprint stability").
type canonicalTask struct {
	ID                string     `json:"id"`
	Duration          int        `json:"duration"`
	RequiredResources []string   `json:"required_resources"`
	EarliestStart     int        `json:"earliest_start"`
	LatestEnd         int        `json:"latest_end"`
	PreferredWindows  []Interval `json:"preferred_windows"`
	Priority          int        `json:"priority"`
}

type canonicalResource struct {
	ID           string     `json:"id"`
	Availability []Interval `json:"availability"`
	Capacity     int        `json:"capacity"`
}

// Fingerprint computes a deterministic digest of the canonical encoding of
// (sorted tasks by id, sorted resources by id, registryVersion). Two
// semantically equal inputs, regardless of array ordering, produce the same
// fingerprint.
func Fingerprint(p Problem, registryVersion string) string {
	tasks := make([]canonicalTask, len(p.Tasks))
	for i, t := range p.Tasks {
		resources := append([]string(nil), t.RequiredResources...)
		sort.Strings(resources)
		windows := append([]Interval(nil), t.PreferredWindows...)
		sort.Slice(windows, func(a, b int) bool { return windows[a].From < windows[b].From })
		tasks[i] = canonicalTask{
			ID:                t.ID,
			Duration:          t.Duration,
			RequiredResources: resources,
			EarliestStart:     t.EarliestStart,
			LatestEnd:         t.LatestEnd,
			PreferredWindows:  windows,
			Priority:          t.Priority,
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })

	resources := make([]canonicalResource, len(p.Resources))
	for i, r := range p.Resources {
		avail := append([]Interval(nil), r.Availability...)
		sort.Slice(avail, func(a, b int) bool { return avail[a].From < avail[b].From })
		capacity := r.Capacity
		if capacity == 0 {
			capacity = 1
		}
		resources[i] = canonicalResource{ID: r.ID, Availability: avail, Capacity: capacity}
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].ID < resources[j].ID })

	payload := struct {
		Tasks           []canonicalTask     `json:"tasks"`
		Resources       []canonicalResource `json:"resources"`
		RegistryVersion string              `json:"registry_version"`
	}{tasks, resources, registryVersion}

	// json.Marshal on a struct with fixed field order and pre-sorted slices
	// is deterministic byte-for-byte, giving a stable digest input.
	encoded, err := json.Marshal(payload)
	if err != nil {
		// Marshaling a plain struct of strings/ints/slices cannot fail.
		panic("schedule: fingerprint encoding failed: " + err.Error())
	}

	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}
