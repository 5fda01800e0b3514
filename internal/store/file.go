package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/tartampluch/go-taskdigest/internal/config"
	"github.com/tartampluch/go-taskdigest/internal/engine"
)

const tempFilePattern = ".summaries-*.json.tmp"

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.Mutex{}
)

func lockForPath(path string) *sync.Mutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	pathLockMap[path] = mu
	return mu
}

// FileStore keeps the summary list in a local JSON file. The version of a
// snapshot is the SHA-256 of the file content.
type FileStore struct {
	path string
	mu   *sync.Mutex
}

var _ engine.SummaryStore = (*FileStore)(nil)

// NewFileStore returns a store for path. Stores for the same path share a lock.
func NewFileStore(path string) *FileStore {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &FileStore{path: path, mu: lockForPath(path)}
}

// Path is the absolute file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) LoadAll(ctx context.Context) (engine.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return engine.Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, version, err := s.read()
	if err != nil {
		return engine.Snapshot{}, err
	}
	if version == config.StoreVersionAbsent {
		slog.Info(config.MsgStoreMissing,
			config.LogKeyComponent, config.CompStore,
			config.LogKeyFile, s.path)
		return engine.Snapshot{Entries: []engine.SummaryEntry{}, Version: version}, nil
	}

	entries := decodeEntries(data, s.path)
	slog.Debug(config.MsgStoreLoaded,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyFile, s.path,
		config.LogKeyEntries, len(entries),
		config.LogKeyVersion, version)
	return engine.Snapshot{Entries: entries, Version: version}, nil
}

// SaveAll replaces the list if the file is still at version.
func (s *FileStore) SaveAll(ctx context.Context, entries []engine.SummaryEntry, version string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeEntries(entries)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreWrite, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, current, err := s.read()
	if err != nil {
		return err
	}
	if current != version {
		return fmt.Errorf("%w: %s", engine.ErrConflict, s.path)
	}

	if err := s.write(data); err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreWrite, err)
	}
	slog.Info(config.MsgStoreSaved,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyFile, s.path,
		config.LogKeyEntries, len(entries))
	return nil
}

// read returns the file content and its version. Callers hold s.mu.
func (s *FileStore) read() ([]byte, string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, config.StoreVersionAbsent, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", config.ErrStoreRead, err)
	}
	sum := sha256.Sum256(data)
	return data, hex.EncodeToString(sum[:]), nil
}

// write replaces the file atomically through a temp file in the same directory.
func (s *FileStore) write(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, config.DirPermUserRWX); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(config.FilePermUserRW); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return err
	}
	cleanup = false
	return nil
}
