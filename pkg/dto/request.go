// Package dto decodes wire-shaped requests (raw JSON, as arrives at the
// API boundary) into the domain types pkg/schedule works with, and encodes
// solve outcomes back to the response payload of spec §6.2. Decoding goes
// through mapstructure the way the teacher's InputFromJson does, rather
// than unmarshaling straight into domain structs, so a malformed field
// produces a decode error instead of a silent zero value.
package dto

import (
	"encoding/json"

	"github.com/mitchellh/mapstructure"

	"github.com/schedulrx/engine/pkg/apperrors"
	"github.com/schedulrx/engine/pkg/schedule"
)

// RawTask mirrors the wire shape of one task in §6.1 before validation.
type RawTask struct {
	ID                string  `mapstructure:"id"`
	Duration          int     `mapstructure:"duration"`
	RequiredResources []string `mapstructure:"required_resources"`
	PreferredWindows  [][2]int `mapstructure:"preferred_windows"`
	EarliestStart     *int    `mapstructure:"earliest_start"`
	LatestEnd         *int    `mapstructure:"latest_end"`
	Priority          int     `mapstructure:"priority"`
}

// RawResource mirrors the wire shape of one resource in §6.1.
type RawResource struct {
	ID           string   `mapstructure:"id"`
	Availability [][2]int `mapstructure:"availability"`
	Capacity     *int     `mapstructure:"capacity"`
}

// RawAssignment mirrors one entry of an initial_schedule map.
type RawAssignment struct {
	Start     int      `mapstructure:"start"`
	End       int      `mapstructure:"end"`
	Resources []string `mapstructure:"resources"`
}

// RawRequest is the fully-decoded, still-untrusted request payload (spec
// §6.1). Validate + convert it into schedule.Problem before use.
type RawRequest struct {
	Tasks           []RawTask                `mapstructure:"tasks"`
	Resources       []RawResource             `mapstructure:"resources"`
	Solver          string                    `mapstructure:"solver"`
	InitialSchedule map[string]RawAssignment  `mapstructure:"initial_schedule"`
	TimeLimitMs     *int                      `mapstructure:"time_limit_ms"`
}

// DecodeRequest parses raw JSON bytes into a RawRequest, going through an
// intermediate map[string]any the same way the teacher's InputFromJson
// does, so mapstructure — not encoding/json — owns the struct-shape
// decoding.
func DecodeRequest(raw []byte) (RawRequest, error) {
	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return RawRequest{}, apperrors.Invalid("request body is not valid JSON: %v", err)
	}

	var req RawRequest
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &req,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return RawRequest{}, apperrors.Internal("failed to build request decoder: %v", err)
	}
	if err := decoder.Decode(asMap); err != nil {
		return RawRequest{}, apperrors.Invalid("request payload does not match the expected shape: %v", err)
	}
	return req, nil
}

// ToProblem converts a decoded RawRequest into a schedule.Problem, applying
// the earliest_start/latest_end/capacity defaults of spec §6.1. Validation
// of the resulting Problem (I1-style structural checks) is the caller's
// responsibility via schedule.Validate.
func (r RawRequest) ToProblem() schedule.Problem {
	tasks := make([]schedule.Task, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		earliest := 0
		if t.EarliestStart != nil {
			earliest = *t.EarliestStart
		}
		latest := 1440
		if t.LatestEnd != nil {
			latest = *t.LatestEnd
		}
		windows := make([]schedule.Interval, 0, len(t.PreferredWindows))
		for _, w := range t.PreferredWindows {
			windows = append(windows, schedule.Interval{From: w[0], To: w[1]})
		}
		tasks = append(tasks, schedule.Task{
			ID:                t.ID,
			Duration:          t.Duration,
			RequiredResources: t.RequiredResources,
			EarliestStart:     earliest,
			LatestEnd:         latest,
			PreferredWindows:  windows,
			Priority:          t.Priority,
		})
	}

	resources := make([]schedule.Resource, 0, len(r.Resources))
	for _, res := range r.Resources {
		capacity := 1
		if res.Capacity != nil {
			capacity = *res.Capacity
		}
		windows := make([]schedule.Interval, 0, len(res.Availability))
		for _, w := range res.Availability {
			windows = append(windows, schedule.Interval{From: w[0], To: w[1]})
		}
		resources = append(resources, schedule.Resource{
			ID:           res.ID,
			Availability: windows,
			Capacity:     capacity,
		})
	}

	return schedule.Problem{Tasks: tasks, Resources: resources}
}

// ToSchedule converts the optional initial_schedule field into a
// schedule.Schedule, or nil if the request carried none.
func (r RawRequest) ToSchedule() schedule.Schedule {
	if len(r.InitialSchedule) == 0 {
		return nil
	}
	sched := make(schedule.Schedule, len(r.InitialSchedule))
	for taskID, a := range r.InitialSchedule {
		sched[taskID] = schedule.Assignment{
			TaskID:    taskID,
			Start:     a.Start,
			End:       a.End,
			Resources: a.Resources,
		}
	}
	return sched
}

// SolverChoice validates and normalizes the requested solver field.
func (r RawRequest) SolverChoice() (string, error) {
	switch r.Solver {
	case "", "auto":
		return "auto", nil
	case "backtracking", "cp-sat", "local-search":
		return r.Solver, nil
	default:
		return "", apperrors.Invalid("unknown solver %q", r.Solver)
	}
}
