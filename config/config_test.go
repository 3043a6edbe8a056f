package config_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/whicun/bindiff/config"
	"github.com/whicun/bindiff/ports"
	"github.com/whicun/bindiff/score"
)

func TestNewAppliesDefaults(t *testing.T) {
	cfg, err := config.New()
	require.NoError(t, err)
	require.NotEmpty(t, cfg.FunctionMatching)
	require.NotEmpty(t, cfg.BasicBlockMatching)
	require.Positive(t, cfg.Workers)
	require.NoError(t, cfg.ScoreWeights.Validate())
}

func TestNewRejectsUnknownFunctionStep(t *testing.T) {
	_, err := config.New(config.WithFunctionSteps([]string{"function: not a real step"}))
	require.Error(t, err)

	var pe *ports.Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, ports.ConfigError, pe.Kind)
}

func TestNewRejectsBadWeights(t *testing.T) {
	badWeights := score.DefaultWeights()
	badWeights.MatchedBasicBlocksRatio += 1.0

	_, err := config.New(config.WithScoreWeights(badWeights))
	require.Error(t, err)
	require.True(t, errors.Is(err, ports.ErrConfig))
}

func TestNewDefaultsStringRefThreshold(t *testing.T) {
	cfg, err := config.New()
	require.NoError(t, err)
	require.Equal(t, config.DefaultStringRefThreshold, cfg.StringRefThreshold)
}

func TestWithStringRefThresholdIgnoresOutOfRange(t *testing.T) {
	cfg, err := config.New(config.WithStringRefThreshold(0.5))
	require.NoError(t, err)
	require.Equal(t, 0.5, cfg.StringRefThreshold)

	cfg, err = config.New(config.WithStringRefThreshold(1.5))
	require.NoError(t, err)
	require.Equal(t, config.DefaultStringRefThreshold, cfg.StringRefThreshold)
}

func TestWithWorkersIgnoresNonPositive(t *testing.T) {
	cfg, err := config.New(config.WithWorkers(0))
	require.NoError(t, err)
	require.Positive(t, cfg.Workers)

	cfg, err = config.New(config.WithWorkers(4))
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Workers)
}
