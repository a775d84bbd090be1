package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ndaredline/internal/vectorstore"
)

func newStore(t *testing.T, s *Storage) (storeID, fileID string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playbook.md")
	require.NoError(t, os.WriteFile(path, []byte("fallbacks"), 0o644))
	fileID, err := s.UploadFile(context.Background(), path)
	require.NoError(t, err)
	storeID, err = s.CreateStore(context.Background(), "pb", []string{fileID})
	require.NoError(t, err)
	return storeID, fileID
}

func TestScriptRepeatsLastStatus(t *testing.T) {
	s := NewStorage(vectorstore.StatusInProgress, vectorstore.StatusCompleted)
	storeID, fileID := newStore(t, s)
	ctx := context.Background()

	for _, want := range []vectorstore.FileStatus{vectorstore.StatusInProgress, vectorstore.StatusCompleted, vectorstore.StatusCompleted} {
		got, err := s.FileStatus(ctx, storeID, fileID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 3, s.Polls(storeID, fileID))
}

func TestFailPollWhilePolling(t *testing.T) {
	s := NewStorage(vectorstore.StatusInProgress)
	storeID, fileID := newStore(t, s)
	boom := errors.New("502 bad gateway")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, _ = s.FileStatus(context.Background(), storeID, fileID)
		}
	}()
	go func() {
		defer wg.Done()
		s.FailPoll(100, boom)
	}()
	wg.Wait()

	_, err := s.FileStatus(context.Background(), storeID, fileID)
	require.NoError(t, err)
	s.FailPoll(52, boom)
	_, err = s.FileStatus(context.Background(), storeID, fileID)
	assert.ErrorIs(t, err, boom)
}

func TestDeleteStore(t *testing.T) {
	s := NewStorage()
	storeID, _ := newStore(t, s)

	require.NoError(t, s.DeleteStore(context.Background(), storeID))
	assert.Empty(t, s.Stores())
	assert.Error(t, s.DeleteStore(context.Background(), storeID))
}
