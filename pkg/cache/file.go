package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xllucky21/xllucky/pkg/util"
)

// FileCache persists entries as JSON files under a directory so day-scoped
// provider responses survive between one-shot runs without Redis.
type FileCache struct {
	dir string
}

type fileEntry struct {
	ExpireAt time.Time       `json:"expire_at"`
	Value    json.RawMessage `json:"value"`
}

// NewFileCache creates the cache directory if needed.
func NewFileCache(opts ...FileOption) (*FileCache, error) {
	cfg := &FileConfig{Dir: ".cache"}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{dir: cfg.Dir}, nil
}

func (fc *FileCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	if !json.Valid(data) {
		if data, err = json.Marshal(string(data)); err != nil {
			return err
		}
	}
	b, err := json.Marshal(fileEntry{ExpireAt: expiryFrom(expiration), Value: data})
	if err != nil {
		return err
	}
	return util.WriteFileAtomic(fc.path(key), b)
}

func (fc *FileCache) Get(_ context.Context, key string, dest interface{}) error {
	entry, err := fc.read(key)
	if err != nil {
		return err
	}
	return decode(entry.Value, dest)
}

func (fc *FileCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		if err := os.Remove(fc.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (fc *FileCache) Exists(_ context.Context, keys ...string) (bool, error) {
	for _, key := range keys {
		if _, err := fc.read(key); err == nil {
			return true, nil
		}
	}
	return false, nil
}

// TryLock uses an exclusive-create lock file. A stale lock older than ttl is
// taken over.
func (fc *FileCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	p := fc.path(key) + ".lock"
	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err == nil {
		_ = f.Close()
		return true, nil
	}
	if !errors.Is(err, os.ErrExist) {
		return false, err
	}
	info, statErr := os.Stat(p)
	if statErr == nil && time.Since(info.ModTime()) > ttl {
		now := time.Now()
		if err := os.Chtimes(p, now, now); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (fc *FileCache) Unlock(_ context.Context, key string) error {
	err := os.Remove(fc.path(key) + ".lock")
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (fc *FileCache) read(key string) (*fileEntry, error) {
	b, err := os.ReadFile(fc.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	var entry fileEntry
	if err := json.Unmarshal(b, &entry); err != nil {
		return nil, ErrCacheMiss
	}
	if time.Now().After(entry.ExpireAt) {
		_ = os.Remove(fc.path(key))
		return nil, ErrCacheMiss
	}
	return &entry, nil
}

func (fc *FileCache) path(key string) string {
	return filepath.Join(fc.dir, HashKey(key)+".json")
}
