package cpsat_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedulrx/engine/pkg/cpsat"
)

func TestInProcessOracle_TrivialFeasibleModel(t *testing.T) {
	m := &cpsat.Model{
		ID: "test",
		Vars: []cpsat.IntVar{
			{Name: "x", Kind: cpsat.KindStart, Min: 0, Max: 20},
		},
		Constraints: []cpsat.LinearConstraint{
			{Terms: []cpsat.LinearTerm{{Var: "x", Coefficient: 1}}, Op: cpsat.OpGreaterEqual, RHS: 10},
		},
		Objective:   []cpsat.LinearTerm{{Var: "x", Coefficient: 1}},
		TimeLimit:   2 * time.Second,
		TimeLimitMs: 2000,
	}

	oracle := cpsat.NewInProcessOracle()
	sol, err := oracle.Submit(context.Background(), m)
	require.NoError(t, err)
	require.Contains(t, []cpsat.Status{cpsat.StatusOptimal, cpsat.StatusFeasible}, sol.Status)
	assert.GreaterOrEqual(t, sol.Values["x"], 10)
}

func TestInProcessOracle_InfeasibleModel(t *testing.T) {
	m := &cpsat.Model{
		ID: "test",
		Vars: []cpsat.IntVar{
			{Name: "x", Kind: cpsat.KindStart, Min: 0, Max: 5},
		},
		Constraints: []cpsat.LinearConstraint{
			{Terms: []cpsat.LinearTerm{{Var: "x", Coefficient: 1}}, Op: cpsat.OpGreaterEqual, RHS: 100},
		},
		TimeLimit:   2 * time.Second,
		TimeLimitMs: 2000,
	}

	oracle := cpsat.NewInProcessOracle()
	sol, err := oracle.Submit(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, cpsat.StatusInfeasible, sol.Status)
}
