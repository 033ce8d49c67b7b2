// Package schedule holds the immutable entity model shared by every solver
// backend: tasks, resources, candidates, assignments and the resulting
// schedule, along with the invariants that any accepted schedule must
// satisfy.
package schedule

// Interval is a half-open time range [From, To) in minutes since an opaque
// epoch.
type Interval struct {
	From int
	To   int
}

// Contains reports whether the interval fully contains [from, to).
func (iv Interval) Contains(from, to int) bool {
	return iv.From <= from && to <= iv.To
}

// Overlaps reports whether iv and other share any instant.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.From < other.To && other.From < iv.To
}

// Task is an immutable unit of work to be placed on a start time and a set
// of resources.
type Task struct {
	ID                string
	Duration          int // minutes, 1 <= Duration <= 1440
	RequiredResources []string
	EarliestStart     int
	LatestEnd         int
	PreferredWindows  []Interval
	Priority          int
}

// Resource is an immutable capacity-one entity with a fixed set of
// availability windows.
type Resource struct {
	ID           string
	Availability []Interval
	Capacity     int
}

// Candidate is one legal (start, resources) option for a task, valid only
// for the lifetime of a single solve.
type Candidate struct {
	Start     int
	Resources []string
}

// End returns the end time of the candidate given the task's duration.
func (c Candidate) End(duration int) int {
	return c.Start + duration
}

// Assignment is the placement of a single task onto a start time and its
// required resources.
type Assignment struct {
	TaskID    string
	Start     int
	End       int
	Resources []string
}

// Schedule maps every input task to its assignment. A partial schedule is
// never a valid Schedule value; solvers return either a complete Schedule
// or a structured failure.
type Schedule map[string]Assignment

// Clone returns a shallow copy of the schedule safe for independent mutation
// of the map itself (Assignment values are copied by value).
func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Problem bundles the tasks and resources of a single solve request.
type Problem struct {
	Tasks     []Task
	Resources []Resource
}

// ResourceByID returns a lookup map keyed by resource id.
func (p Problem) ResourceByID() map[string]Resource {
	byID := make(map[string]Resource, len(p.Resources))
	for _, r := range p.Resources {
		byID[r.ID] = r
	}
	return byID
}

// TaskByID returns a lookup map keyed by task id.
func (p Problem) TaskByID() map[string]Task {
	byID := make(map[string]Task, len(p.Tasks))
	for _, t := range p.Tasks {
		byID[t.ID] = t
	}
	return byID
}
