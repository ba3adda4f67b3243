package repository

import (
	"context"
	"errors"
	"time"

	"github.com/xllucky21/xllucky/internal/domain/repository"
	"github.com/xllucky21/xllucky/pkg/cache"
)

const fingerprintTTL = 30 * 24 * time.Hour

// CacheFingerprintStore keeps push fingerprints in the shared cache, so a
// file cache works for one-shot runs and Redis for several hosts.
type CacheFingerprintStore struct {
	c cache.Service
}

var _ repository.FingerprintStore = (*CacheFingerprintStore)(nil)

func NewCacheFingerprintStore(c cache.Service) *CacheFingerprintStore {
	return &CacheFingerprintStore{c: c}
}

func fingerprintKey(flow string) string {
	return cache.GenerateKey("push:fingerprint", flow)
}

// Load returns "" when nothing was pushed yet.
func (s *CacheFingerprintStore) Load(ctx context.Context, flow string) (string, error) {
	fp, err := cache.GetTyped[string](ctx, s.c, fingerprintKey(flow))
	if errors.Is(err, cache.ErrCacheMiss) {
		return "", nil
	}
	return fp, err
}

func (s *CacheFingerprintStore) Save(ctx context.Context, flow, fingerprint string) error {
	return s.c.Set(ctx, fingerprintKey(flow), fingerprint, fingerprintTTL)
}
