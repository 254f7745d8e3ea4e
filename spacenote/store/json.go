package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// File locking parameters for the JSON backend.
const (
	lockTimeout    = 3 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond
)

// jsonStore persists a memoryStore to a single JSON file. Every mutation
// rewrites the file while the in-process write lock is held; a flock on
// <path>.lock serializes writers across processes.
//
// Documents survive a round-trip as JSON primitives only: integers come
// back as float64 and timestamps as RFC 3339 strings. The evaluator and
// the service codecs accept both shapes.
type jsonStore struct {
	*memoryStore
	filePath string
	fileLock *flock.Flock
}

// storeFile is the on-disk layout.
type storeFile struct {
	Collections map[string]collectionFile `json:"collections"`
	Metadata    storeMetadata             `json:"metadata"`
}

type collectionFile struct {
	Documents []bson.M `json:"documents"`
	LastID    int64    `json:"last_id"`
}

type storeMetadata struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewJSON opens (or creates) a JSON-file-backed store at filePath.
func NewJSON(filePath string) (Store, error) {
	s := &jsonStore{
		memoryStore: newMemoryStore(),
		filePath:    filePath,
		fileLock:    flock.New(filePath + ".lock"),
	}
	s.memoryStore.afterWrite = s.save

	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load store data: %w", err)
	}
	return s, nil
}

func (s *jsonStore) Close() error {
	return s.fileLock.Close()
}

// acquireLock takes the cross-process file lock with retries.
func (s *jsonStore) acquireLock(ctx context.Context) error {
	for i := 0; i < lockMaxRetries; i++ {
		locked, err := s.fileLock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if locked {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return fmt.Errorf("failed to acquire lock after %d attempts", lockMaxRetries)
}

func (s *jsonStore) load() error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	if err := s.acquireLock(ctx); err != nil {
		return err
	}
	defer func() { _ = s.fileLock.Unlock() }()

	raw, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return nil // fresh store
	}
	if err != nil {
		return err
	}

	var file storeFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("corrupt store file %s: %w", s.filePath, err)
	}

	for name, data := range file.Collections {
		c := s.ensureCollection(name)
		c.documents = data.Documents
		c.lastID = data.LastID
	}
	return nil
}

// save runs as the memory store's afterWrite hook, with the in-process
// write lock already held.
func (s *jsonStore) save() error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	if err := s.acquireLock(ctx); err != nil {
		return err
	}
	defer func() { _ = s.fileLock.Unlock() }()

	file := storeFile{
		Collections: make(map[string]collectionFile, len(s.collections)),
		Metadata: storeMetadata{
			Version:   "1.0",
			UpdatedAt: time.Now().UTC(),
		},
	}
	for name, c := range s.collections {
		file.Collections[name] = collectionFile{
			Documents: c.documents,
			LastID:    c.lastID,
		}
	}

	raw, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize store data: %w", err)
	}

	// Write-then-rename keeps the file whole if the process dies mid-save.
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// DefaultPath returns the store path inside dataDir.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, "spacenote.json")
}
