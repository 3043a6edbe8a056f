package ports_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/whicun/bindiff/match"
	"github.com/whicun/bindiff/ports"
)

func TestNewLoadErrorIsSentinel(t *testing.T) {
	cause := errors.New("file not found")
	err := ports.NewLoadError("/bin/target", cause)

	require.ErrorIs(t, err, ports.ErrLoad)
	require.ErrorIs(t, err, cause)

	var pe *ports.Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, ports.LoadError, pe.Kind)
}

func TestNewConfigErrorIsSentinel(t *testing.T) {
	cause := errors.New("weights must sum to 1")
	err := ports.NewConfigError(cause)

	require.ErrorIs(t, err, ports.ErrConfig)

	var pe *ports.Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, ports.ConfigError, pe.Kind)
}

func TestNewCancelledIsSentinel(t *testing.T) {
	cause := errors.New("context canceled")
	err := ports.NewCancelled(cause)

	require.ErrorIs(t, err, ports.ErrCancelled)

	var pe *ports.Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, ports.Cancelled, pe.Kind)
}

func TestNewMatchingWarningCarriesStep(t *testing.T) {
	step := match.InternStep("function: hash equality")
	cause := errors.New("panic recovered")
	w := ports.NewMatchingWarning(step, cause)

	require.Equal(t, ports.MatchingWarning, w.Kind)
	require.Equal(t, step, w.Step)
	require.Contains(t, w.Error(), "hash equality")
}

func TestNewScoringWarningCarriesFeature(t *testing.T) {
	w := ports.NewScoringWarning("matched_edges_ratio", errors.New("max edges is zero"))

	require.Equal(t, ports.ScoringWarning, w.Kind)
	require.Equal(t, "matched_edges_ratio", w.Feature)
	require.Contains(t, w.Error(), "matched_edges_ratio")
}
