package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedulrx/engine/pkg/apperrors"
)

func TestCodeOf_ExtractsCodeThroughWrapping(t *testing.T) {
	base := apperrors.Infeasible("T1", "no window fits")
	wrapped := fmt.Errorf("solving: %w", base)

	code, ok := apperrors.CodeOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInfeasible, code)
}

func TestCodeOf_FalseForPlainError(t *testing.T) {
	_, ok := apperrors.CodeOf(errors.New("boom"))
	assert.False(t, ok)
}

func TestIs_MatchesBySameCodeNotSameMessage(t *testing.T) {
	a := apperrors.Timeout("search exceeded 10s")
	b := apperrors.Timeout("a different message entirely")
	assert.True(t, errors.Is(a, b))

	c := apperrors.Invalid("bad input")
	assert.False(t, errors.Is(a, c))
}

func TestUnwrap_ReturnsWrappedCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := apperrors.OracleUnavailable(cause)
	assert.Equal(t, apperrors.CodeOracleUnavailable, err.Code)
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestError_IncludesTaskIDWhenSet(t *testing.T) {
	err := apperrors.Infeasible("T7", "no resource available")
	assert.Contains(t, err.Error(), "T7")
}
