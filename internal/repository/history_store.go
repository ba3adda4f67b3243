package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/xllucky21/xllucky/internal/domain/models"
	"github.com/xllucky21/xllucky/internal/domain/repository"
	"github.com/xllucky21/xllucky/internal/report"
	"github.com/xllucky21/xllucky/pkg/logger"
)

// SnapshotPolicy describes how one report type is kept in its history file.
type SnapshotPolicy[T any] struct {
	// Name is the exported TS constant.
	Name string
	// Key identifies a trading day. Entries sharing the key of a newly saved
	// snapshot are replaced. An empty key never matches.
	Key         func(T) string
	GeneratedAt func(T) string
	// Compact strips heavy sections from every entry except the one being saved.
	Compact func(T) T
	// Limit caps the number of kept snapshots. Zero keeps everything.
	Limit int
}

// HistoryStore persists a newest-first list of report snapshots as a TS
// data module.
type HistoryStore[T any] struct {
	path   string
	policy SnapshotPolicy[T]
	mu     sync.Mutex
	l      *logger.Logger
}

// NewHistoryStore creates a store backed by the file at path.
func NewHistoryStore[T any](path string, policy SnapshotPolicy[T], l *logger.Logger) *HistoryStore[T] {
	if l == nil {
		l = logger.Nop()
	}
	return &HistoryStore[T]{path: path, policy: policy, l: l}
}

var _ repository.SnapshotStore[models.BondReport] = (*HistoryStore[models.BondReport])(nil)

// Path returns the backing file.
func (s *HistoryStore[T]) Path() string { return s.path }

// Load returns the stored snapshots. A missing file is an empty history; an
// unreadable one is logged and treated the same way so the next save
// rewrites it.
func (s *HistoryStore[T]) Load() ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *HistoryStore[T]) load() ([]T, error) {
	var out []T
	err := report.ReadTS(s.path, &out)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, os.ErrNotExist):
		return nil, nil
	default:
		s.l.Warn("history file unreadable, starting over",
			logger.String("path", s.path), logger.Error(err))
		return nil, nil
	}
}

// Save upserts v, compacts and prunes the history, and rewrites the file.
// It returns the persisted list.
func (s *HistoryStore[T]) Save(ctx context.Context, v T) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load()
	if err != nil {
		return nil, err
	}
	list := Upsert(existing, v, s.policy)
	if err := report.WriteTS(s.path, s.policy.Name, list); err != nil {
		return nil, fmt.Errorf("save %s: %w", s.policy.Name, err)
	}
	s.l.Info("history saved", logger.String("path", s.path), logger.Int("entries", len(list)))
	return list, nil
}

// Latest returns the newest snapshot or ErrNoSnapshot.
func (s *HistoryStore[T]) Latest() (T, error) {
	var zero T
	list, err := s.Load()
	if err != nil {
		return zero, err
	}
	if len(list) == 0 {
		return zero, repository.ErrNoSnapshot
	}
	return list[0], nil
}

// Upsert applies the policy to existing plus v without touching disk.
func Upsert[T any](existing []T, v T, p SnapshotPolicy[T]) []T {
	key := ""
	if p.Key != nil {
		key = p.Key(v)
	}
	out := make([]T, 0, len(existing)+1)
	out = append(out, v)
	for _, e := range existing {
		if key != "" && p.Key(e) == key {
			continue
		}
		if p.Compact != nil {
			e = p.Compact(e)
		}
		out = append(out, e)
	}
	if p.GeneratedAt != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return p.GeneratedAt(out[i]) > p.GeneratedAt(out[j])
		})
	}
	if p.Limit > 0 && len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out
}

// BondPolicy keys bond snapshots by their last data date. Only the newest
// keeps the raw series.
func BondPolicy(limit int) SnapshotPolicy[models.BondReport] {
	return SnapshotPolicy[models.BondReport]{
		Name:        "bondReports",
		Key:         func(r models.BondReport) string { return r.Conclusion.LastDate },
		GeneratedAt: func(r models.BondReport) string { return r.GeneratedAt },
		Compact: func(r models.BondReport) models.BondReport {
			r.Raw = nil
			return r
		},
		Limit: limit,
	}
}

// DividendPolicy keys dividend snapshots by the index's last date. Older
// entries drop the index raw tail and keep brief stock rows.
func DividendPolicy(limit int) SnapshotPolicy[models.DividendReport] {
	return SnapshotPolicy[models.DividendReport]{
		Name: "dividendData",
		Key: func(r models.DividendReport) string {
			if r.Index == nil {
				return ""
			}
			return r.Index.Conclusion.LastDate
		},
		GeneratedAt: func(r models.DividendReport) string { return r.GeneratedAt },
		Compact: func(r models.DividendReport) models.DividendReport {
			if r.Index != nil {
				idx := *r.Index
				idx.Raw = nil
				r.Index = &idx
			}
			brief := make([]models.StockAnalysis, len(r.Stocks))
			for i, st := range r.Stocks {
				brief[i] = st.Brief()
			}
			r.Stocks = brief
			return r
		},
		Limit: limit,
	}
}
