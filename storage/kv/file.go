package kv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
)

const fileExt = ".json"

// FileStore keeps one JSON file per key in dir.
// Writes go to a temp file renamed over the old one, so a crash never leaves a half-written collection.
type FileStore struct {
	mu    sync.Mutex
	dir   string
	quota int64
}

var _ core.KVStore = (*FileStore)(nil)

func NewFileStore(dir string, quota int64) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating store directory")
	}
	return &FileStore{dir: dir, quota: quota}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

func (s *FileStore) Load(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(core.ErrKeyNotFound, key)
		}
		return nil, errors.Wrapf(err, "reading %s", key)
	}
	return data, nil
}

func (s *FileStore) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	used, err := s.usage(key)
	if err != nil {
		return err
	}
	if !fits(s.quota, used, len(value)) {
		return errors.Wrap(core.ErrStorageFull, key)
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+"-*")
	if err != nil {
		return errors.Wrapf(err, "creating temp file for %s", key)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(value); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "writing %s", key)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "syncing %s", key)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", key)
	}
	if err = os.Rename(tmp.Name(), s.path(key)); err != nil {
		return errors.Wrapf(err, "replacing %s", key)
	}
	return nil
}

func (s *FileStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", key)
	}
	return nil
}

// usage sums the size of every stored value except the one under key.
func (s *FileStore) usage(key string) (int64, error) {
	if s.quota <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, errors.Wrap(err, "listing store directory")
	}
	var used int64
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, ".") || name == key+fileExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		used += info.Size()
	}
	return used, nil
}
