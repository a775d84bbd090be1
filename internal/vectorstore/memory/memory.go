// Package memory provides an in-process vectorstore.Storage fake for tests
// of provisioning and the CLI. It talks to no hosted service.
package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"ndaredline/internal/vectorstore"
)

// Storage is an in-process stand-in for a hosted vector store. Each file
// walks through a scripted sequence of statuses, one per poll.
type Storage struct {
	mu       sync.Mutex
	script   []vectorstore.FileStatus
	files    map[string][]byte
	stores   map[string][]string
	polls    map[string]int
	pollErrs map[int]error // 1-based poll number
	nextID   int
}

// NewStorage returns a store whose files report the given statuses in turn,
// repeating the last one. An empty script completes immediately.
func NewStorage(script ...vectorstore.FileStatus) *Storage {
	if len(script) == 0 {
		script = []vectorstore.FileStatus{vectorstore.StatusCompleted}
	}
	return &Storage{
		script:   script,
		files:    map[string][]byte{},
		stores:   map[string][]string{},
		polls:    map[string]int{},
		pollErrs: map[int]error{},
	}
}

// FailPoll makes the n-th status read of a file (1-based) return err.
func (s *Storage) FailPoll(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollErrs[n] = err
}

func (s *Storage) UploadFile(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("file_%d", s.nextID)
	s.files[id] = data
	return id, nil
}

func (s *Storage) CreateStore(_ context.Context, _ string, fileIDs []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range fileIDs {
		if _, ok := s.files[id]; !ok {
			return "", fmt.Errorf("unknown file %s", id)
		}
	}
	s.nextID++
	id := fmt.Sprintf("vs_%d", s.nextID)
	s.stores[id] = append([]string(nil), fileIDs...)
	return id, nil
}

func (s *Storage) FileStatus(_ context.Context, storeID, fileID string) (vectorstore.FileStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stores[storeID]; !ok {
		return "", errors.New("store not found")
	}
	key := storeID + "/" + fileID
	s.polls[key]++
	n := s.polls[key]
	if err := s.pollErrs[n]; err != nil {
		return "", err
	}
	if n > len(s.script) {
		return s.script[len(s.script)-1], nil
	}
	return s.script[n-1], nil
}

func (s *Storage) DeleteStore(_ context.Context, storeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stores[storeID]; !ok {
		return errors.New("store not found")
	}
	delete(s.stores, storeID)
	return nil
}

// Stores returns the ids of the stores that still exist.
func (s *Storage) Stores() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.stores))
	for id := range s.stores {
		out = append(out, id)
	}
	return out
}

// Polls returns how many times a file's status was read.
func (s *Storage) Polls(storeID, fileID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls[storeID+"/"+fileID]
}

var _ vectorstore.Storage = (*Storage)(nil)
