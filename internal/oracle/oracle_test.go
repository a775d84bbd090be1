package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultVariants(t *testing.T) {
	ok := Success("redlined")
	assert.True(t, ok.OK())
	assert.Equal(t, KindText, ok.Kind())
	assert.Equal(t, "redlined", ok.Text())
	assert.NoError(t, ok.Err())

	cause := errors.New("boom")
	fail := Failure(cause)
	assert.False(t, fail.OK())
	assert.Equal(t, KindFailure, fail.Kind())
	assert.Empty(t, fail.Text())
	assert.ErrorIs(t, fail.Err(), cause)
}

func TestZeroResultIsFailure(t *testing.T) {
	var r Result
	assert.False(t, r.OK())
	assert.ErrorIs(t, r.Err(), ErrUnknown)
	assert.ErrorIs(t, Failure(nil).Err(), ErrUnknown)
}

func TestFileSearchToolsOnePerID(t *testing.T) {
	tools := FileSearchTools([]string{"vs_default", "vs_user"})
	assert.Equal(t, []FileSearchTool{
		{VectorStoreIDs: []string{"vs_default"}},
		{VectorStoreIDs: []string{"vs_user"}},
	}, tools)
	assert.Empty(t, FileSearchTools(nil))
}

func TestFuncAdapter(t *testing.T) {
	var c Client = Func(func(_ context.Context, req Request) Result {
		return Success(req.Input + "!")
	})
	assert.Equal(t, "hi!", c.Invoke(context.Background(), Request{Input: "hi"}).Text())
}
