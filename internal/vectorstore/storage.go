package vectorstore

import "context"

// FileStatus is the ingestion state of a file inside a vector store.
type FileStatus string

const (
	StatusInProgress FileStatus = "in_progress"
	StatusCompleted  FileStatus = "completed"
	StatusFailed     FileStatus = "failed"
	StatusCancelled  FileStatus = "cancelled"
)

// Terminal reports whether polling can stop.
func (s FileStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Storage is the hosted knowledge store a playbook collection lives in.
type Storage interface {
	UploadFile(ctx context.Context, path string) (fileID string, err error)
	CreateStore(ctx context.Context, name string, fileIDs []string) (storeID string, err error)
	FileStatus(ctx context.Context, storeID, fileID string) (FileStatus, error)
	DeleteStore(ctx context.Context, storeID string) error
}
