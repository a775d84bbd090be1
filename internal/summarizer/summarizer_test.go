package summarizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ndaredline/internal/domain"
	"ndaredline/internal/oracle"
)

func TestSummarize(t *testing.T) {
	var seen oracle.Request
	s := New(oracle.Func(func(_ context.Context, req oracle.Request) oracle.Result {
		seen = req
		return oracle.Success("Parties: Acme and Beta. Duration: 2 years.")
	}), nil)

	got, err := s.Summarize(context.Background(), "contract text")
	require.NoError(t, err)
	assert.Equal(t, "Parties: Acme and Beta. Duration: 2 years.", got)
	assert.Equal(t, Instructions, seen.Instructions)
	assert.Equal(t, "contract text", seen.Input)
	assert.Empty(t, seen.Tools)
}

func TestSummarizeFailure(t *testing.T) {
	cause := errors.New("timeout")
	s := New(oracle.Func(func(context.Context, oracle.Request) oracle.Result {
		return oracle.Failure(cause)
	}), nil)

	got, err := s.Summarize(context.Background(), "contract text")
	require.Error(t, err)
	assert.Empty(t, got)
	assert.ErrorIs(t, err, domain.ErrOracleCall)
	assert.ErrorIs(t, err, cause)
}
