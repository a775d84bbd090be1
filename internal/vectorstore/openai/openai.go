package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ndaredline/internal/vectorstore"
)

// Storage is a minimal REST client for OpenAI files and vector stores.
type Storage struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewStorage(cfg Config) (*Storage, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai: missing API key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &Storage{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// UploadFile uploads the playbook with purpose "assistants".
func (s *Storage) UploadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("purpose", "assistants"); err != nil {
		return "", err
	}
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/files", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var out struct {
		ID string `json:"id"`
	}
	if err := s.do(req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (s *Storage) CreateStore(ctx context.Context, name string, fileIDs []string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	body := map[string]any{"name": name, "file_ids": fileIDs}
	if err := s.sendJSON(ctx, http.MethodPost, s.baseURL+"/vector_stores", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (s *Storage) FileStatus(ctx context.Context, storeID, fileID string) (vectorstore.FileStatus, error) {
	var out struct {
		Status string `json:"status"`
	}
	url := fmt.Sprintf("%s/vector_stores/%s/files/%s", s.baseURL, storeID, fileID)
	if err := s.sendJSON(ctx, http.MethodGet, url, nil, &out); err != nil {
		return "", err
	}
	return vectorstore.FileStatus(out.Status), nil
}

func (s *Storage) DeleteStore(ctx context.Context, storeID string) error {
	return s.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("%s/vector_stores/%s", s.baseURL, storeID), nil, nil)
}

func (s *Storage) sendJSON(ctx context.Context, method, url string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.do(req, out)
}

func (s *Storage) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("openai %s %s failed: %s: %s", req.Method, req.URL.Path, resp.Status, strings.TrimSpace(string(slurp)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

var _ vectorstore.Storage = (*Storage)(nil)
