package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ndaredline/internal/vectorstore"
)

func TestStorageLifecycle(t *testing.T) {
	var created map[string]any
	deleted := false
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/files", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "assistants", r.FormValue("purpose"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "playbook.md", hdr.Filename)
		assert.Equal(t, "# Playbook", string(data))
		_, _ = io.WriteString(w, `{"id":"file_abc"}`)
	})
	mux.HandleFunc("POST /v1/vector_stores", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "assistants=v2", r.Header.Get("OpenAI-Beta"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		_, _ = io.WriteString(w, `{"id":"vs_123","name":"NDA Playbook Store"}`)
	})
	mux.HandleFunc("GET /v1/vector_stores/vs_123/files/file_abc", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"file_abc","status":"completed"}`)
	})
	mux.HandleFunc("DELETE /v1/vector_stores/vs_123", func(w http.ResponseWriter, r *http.Request) {
		deleted = true
		_, _ = io.WriteString(w, `{"id":"vs_123","deleted":true}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s, err := NewStorage(Config{BaseURL: srv.URL + "/v1", APIKey: "sk-test"})
	require.NoError(t, err)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "playbook.md")
	require.NoError(t, os.WriteFile(path, []byte("# Playbook"), 0o644))

	fileID, err := s.UploadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "file_abc", fileID)

	storeID, err := s.CreateStore(ctx, "NDA Playbook Store", []string{fileID})
	require.NoError(t, err)
	assert.Equal(t, "vs_123", storeID)
	assert.Equal(t, "NDA Playbook Store", created["name"])
	assert.Equal(t, []any{"file_abc"}, created["file_ids"])

	status, err := s.FileStatus(ctx, storeID, fileID)
	require.NoError(t, err)
	assert.Equal(t, vectorstore.StatusCompleted, status)

	require.NoError(t, s.DeleteStore(ctx, storeID))
	assert.True(t, deleted)
}

func TestStorageErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)
	s, err := NewStorage(Config{BaseURL: srv.URL, APIKey: "sk-bad"})
	require.NoError(t, err)

	_, err = s.CreateStore(context.Background(), "x", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad key")
}

func TestNewStorageRequiresKey(t *testing.T) {
	_, err := NewStorage(Config{})
	require.Error(t, err)
}
