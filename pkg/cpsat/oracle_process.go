package cpsat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/schedulrx/engine/pkg/apperrors"
)

// ProcessOracle shells out to an external CP-SAT-speaking binary, feeding
// it the model as JSON on stdin and reading a Solution as JSON from
// stdout. This is the same exec.Command + stdin-pipe convention as the
// teacher pack's SAT backends (e.g. a Cadical/Kissat invocation): a single
// blocking subprocess call per Submit, no persistent connection.
type ProcessOracle struct {
	// BinaryPath is the executable to invoke, e.g. "cp-sat-runner".
	BinaryPath string
	// Args are passed verbatim after BinaryPath.
	Args []string
}

// NewProcessOracle returns an Oracle backed by an external binary.
func NewProcessOracle(binaryPath string, args ...string) *ProcessOracle {
	return &ProcessOracle{BinaryPath: binaryPath, Args: args}
}

func (o *ProcessOracle) Submit(ctx context.Context, model *Model) (Solution, error) {
	payload, err := json.Marshal(model)
	if err != nil {
		return Solution{}, apperrors.Internal("cp-sat model failed to marshal: %v", err)
	}

	cmd := exec.CommandContext(ctx, o.BinaryPath, o.Args...)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Solution{}, apperrors.Timeout("cp-sat oracle exceeded its time limit")
		}
		return Solution{}, apperrors.OracleUnavailable(fmt.Errorf("%w: %s", err, stderr.String()))
	}

	var sol Solution
	if err := json.Unmarshal(stdout.Bytes(), &sol); err != nil {
		return Solution{}, apperrors.OracleUnavailable(fmt.Errorf("cp-sat oracle returned malformed output: %w", err))
	}
	return sol, nil
}
