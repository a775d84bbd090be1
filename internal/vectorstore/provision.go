package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"ndaredline/internal/logging"
)

// DefaultPollInterval is the fixed delay between file status checks.
const DefaultPollInterval = 5 * time.Second

// ErrIngestFailed means the store reported the playbook as failed or cancelled.
var ErrIngestFailed = errors.New("playbook ingestion failed")

// Provisioned describes a ready collection.
type Provisioned struct {
	StoreID string
	FileID  string
	Name    string
}

// Provisioner creates a collection holding one playbook file and waits until
// the file is searchable.
type Provisioner struct {
	storage  Storage
	interval time.Duration
	logger   *log.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewProvisioner(storage Storage, interval time.Duration, logger *log.Logger) *Provisioner {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Provisioner{storage: storage, interval: interval, logger: logging.OrDiscard(logger), sleep: sleepCtx}
}

// StoreName is the collection name used when none is given.
func StoreName(playbookPath string) string {
	return fmt.Sprintf("NDA Playbook Store (%s)", filepath.Base(playbookPath))
}

// Provision uploads the playbook, creates the store and polls until the file
// completes. Status read errors are logged and retried. Once the store exists,
// any failure deletes it before returning.
func (p *Provisioner) Provision(ctx context.Context, playbookPath, name string) (Provisioned, error) {
	info, err := os.Stat(playbookPath)
	if err != nil || !info.Mode().IsRegular() {
		return Provisioned{}, fmt.Errorf("playbook file not found at %s", playbookPath)
	}
	if name == "" {
		name = StoreName(playbookPath)
	}

	p.logger.Info("uploading playbook file", "path", playbookPath)
	fileID, err := p.storage.UploadFile(ctx, playbookPath)
	if err != nil {
		return Provisioned{}, fmt.Errorf("upload playbook: %w", err)
	}
	p.logger.Info("file uploaded", "file", fileID)

	p.logger.Info("creating vector store", "name", name)
	storeID, err := p.storage.CreateStore(ctx, name, []string{fileID})
	if err != nil {
		return Provisioned{}, fmt.Errorf("create vector store: %w", err)
	}
	p.logger.Info("vector store created", "store", storeID)

	if err := p.wait(ctx, storeID, fileID); err != nil {
		p.cleanup(storeID)
		return Provisioned{}, err
	}
	return Provisioned{StoreID: storeID, FileID: fileID, Name: name}, nil
}

func (p *Provisioner) wait(ctx context.Context, storeID, fileID string) error {
	p.logger.Info("waiting for file to be processed", "file", fileID, "store", storeID)
	for {
		status, err := p.storage.FileStatus(ctx, storeID, fileID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("polling error checking file status (will retry)", "err", err)
		case status == StatusCompleted:
			p.logger.Info("file processing completed", "file", fileID)
			return nil
		case status == StatusFailed || status == StatusCancelled:
			p.logger.Error("file processing failed", "status", status)
			return fmt.Errorf("%w: status %s", ErrIngestFailed, status)
		default:
			p.logger.Debug("polling file status", "status", status)
		}
		if err := p.sleep(ctx, p.interval); err != nil {
			return err
		}
	}
}

// cleanup deletes a partially provisioned store. It runs detached from the
// caller's context so a cancelled run still removes its store.
func (p *Provisioner) cleanup(storeID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	p.logger.Info("deleting incomplete vector store", "store", storeID)
	if err := p.storage.DeleteStore(ctx, storeID); err != nil {
		p.logger.Error("failed to delete vector store during cleanup", "store", storeID, "err", err)
		return
	}
	p.logger.Info("deleted incomplete vector store", "store", storeID)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
