// Package cpsat translates a scheduling problem into a declarative
// interval/no-overlap model and hands it to an external CP-SAT-style oracle
// (spec §4.5, §6.4). The oracle itself — the actual constraint solver — is
// out of scope; this package only owns the model it is handed and the
// solution contract it must return.
package cpsat

import "time"

// VarKind distinguishes the role a variable plays in the model, purely for
// readability when a model is dumped for debugging.
type VarKind string

const (
	KindStart    VarKind = "start"
	KindPresence VarKind = "presence"
	KindSlack    VarKind = "slack"
)

// IntVar is a bounded integer decision variable.
type IntVar struct {
	Name string  `json:"name"`
	Kind VarKind `json:"kind"`
	Min  int     `json:"min"`
	Max  int     `json:"max"`
}

// BoolVar is a 0/1-bounded IntVar, kept distinct in the wire format so an
// oracle can special-case boolean variables.
type BoolVar struct {
	Name string `json:"name"`
}

// AllowedRange constrains a variable to lie within [Min, Max], optionally
// active only when Presence is non-empty and true.
type AllowedRange struct {
	Var      string `json:"var"`
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	Presence string `json:"presence,omitempty"`
}

// Interval is an optional-presence interval variable spanning
// [Start, Start+Size) on a resource, active iff Presence evaluates true.
type Interval struct {
	Name     string `json:"name"`
	Start    string `json:"start_var"`
	Size     int    `json:"size"`
	Presence string `json:"presence_var"`
	Resource string `json:"resource"`
}

// NoOverlap forbids any two active intervals in the group from overlapping
// in time; it models "at most one task occupies this resource at a time"
// (spec §4.5).
type NoOverlap struct {
	Resource  string   `json:"resource"`
	Intervals []string `json:"intervals"`
}

// LinearTerm is one addend of the objective: Coefficient * Var.
type LinearTerm struct {
	Var         string  `json:"var"`
	Coefficient float64 `json:"coefficient"`
}

// LinearOp is the comparison operator of a LinearConstraint.
type LinearOp string

const (
	OpEqual        LinearOp = "=="
	OpLessEqual    LinearOp = "<="
	OpGreaterEqual LinearOp = ">="
)

// LinearConstraint is a general linear constraint over the model's
// variables, used for exactly-one-window selection and for the auxiliary
// bookkeeping the objective needs (per-resource total minutes, absolute
// deviation slacks).
type LinearConstraint struct {
	Terms []LinearTerm `json:"terms"`
	Op    LinearOp     `json:"op"`
	RHS   float64      `json:"rhs"`
}

// Model is the complete input handed to an Oracle: integer variables,
// allowed-range constraints, optional-presence intervals, no-overlap
// constraints over those intervals, general linear constraints, and a
// linear minimization objective.
type Model struct {
	// ID uniquely identifies this model build, so that variable names
	// derived from task ids never collide across concurrent submissions
	// sharing the same underlying problem (e.g. benchmark mode running
	// cp-sat and another backend side by side against identical task ids).
	ID            string             `json:"id"`
	Vars          []IntVar           `json:"vars"`
	Bools         []BoolVar          `json:"bools"`
	AllowedRanges []AllowedRange     `json:"allowed_ranges"`
	Intervals     []Interval         `json:"intervals"`
	NoOverlaps    []NoOverlap        `json:"no_overlaps"`
	Constraints   []LinearConstraint `json:"constraints"`
	Objective     []LinearTerm       `json:"objective"`
	TimeLimit     time.Duration      `json:"-"`
	TimeLimitMs   int64              `json:"time_limit_ms"`
	// TaskStartVar and TaskDuration let the caller decode a solution back
	// into a schedule.Schedule without re-deriving naming conventions.
	TaskStartVar map[string]string `json:"-"`
	TaskDuration map[string]int    `json:"-"`
}

