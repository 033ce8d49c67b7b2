package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedulrx/engine/internal/config"
	"github.com/schedulrx/engine/internal/logging"
)

func TestNew_BuildsLoggerForDevelopment(t *testing.T) {
	log, err := logging.New(&config.Config{Env: config.EnvDevelopment, Log: config.LogConfig{Level: "info", Format: "console"}})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestNew_FallsBackToInfoOnBadLevel(t *testing.T) {
	log, err := logging.New(&config.Config{Env: config.EnvProduction, Log: config.LogConfig{Level: "not-a-level", Format: "json"}})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestNoOp_NeverPanics(t *testing.T) {
	log := logging.NoOp()
	log.Info("hello")
}
