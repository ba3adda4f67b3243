package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/xllucky21/xllucky/internal/domain/models"
	domrepo "github.com/xllucky21/xllucky/internal/domain/repository"
	pkgch "github.com/xllucky21/xllucky/pkg/clickhouse"
	applogger "github.com/xllucky21/xllucky/pkg/logger"
)

const dateLayout = "2006-01-02"

// CHScoreStore keeps score events in the ClickHouse scores table. It is both
// the write sink of the jobs and the read side of the score API.
type CHScoreStore struct {
	ch       *pkgch.Client
	db       *sql.DB
	database string
	table    string
	l        *applogger.Logger
}

var (
	_ domrepo.ScoreSink   = (*CHScoreStore)(nil)
	_ domrepo.ScoreReader = (*CHScoreStore)(nil)
)

func NewCHScoreStore(ch *pkgch.Client, database string, l *applogger.Logger) *CHScoreStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHScoreStore{ch: ch, db: ch.DB(), database: database, table: database + ".scores", l: l}
}

func (s *CHScoreStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, pkgch.ScoreSchema(s.database))
}

// WriteScores inserts events in multi-row batches. Events without a
// parseable date are skipped.
func (s *CHScoreStore) WriteScores(ctx context.Context, events []models.ScoreEvent) error {
	if len(events) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(events); start += chunkSize {
		end := start + chunkSize
		if end > len(events) {
			end = len(events)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, e := range events[start:end] {
			d, err := time.Parse(dateLayout, e.Date)
			if err != nil || e.Job == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, e.Job, e.Subject, d, e.Score, e.Value, e.Label, e.GeneratedAt)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (job, subject, date, score, value, label, generated_at) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert scores error",
				applogger.String("table", s.table),
				applogger.Int("rows", len(values)),
				applogger.Error(err),
			)
			return fmt.Errorf("insert scores: %w", err)
		}
	}
	return nil
}

func (s *CHScoreStore) GetScores(ctx context.Context, job domrepo.Job, subject string, from, to time.Time) ([]models.ScoreEvent, error) {
	const qtpl = `
        SELECT job, subject, date, score, value, label, generated_at
        FROM %s FINAL
        WHERE job = ? AND subject = ? AND date >= ? AND date <= ?
        ORDER BY date ASC
    `
	return s.query(ctx, fmt.Sprintf(qtpl, s.table), string(job), subject, from, to)
}

// GetLatestNScores returns the newest n events in ascending date order.
func (s *CHScoreStore) GetLatestNScores(ctx context.Context, job domrepo.Job, subject string, n int) ([]models.ScoreEvent, error) {
	if n <= 0 {
		return nil, nil
	}
	const qtpl = `
        SELECT job, subject, date, score, value, label, generated_at
        FROM (
            SELECT job, subject, date, score, value, label, generated_at
            FROM %s FINAL
            WHERE job = ? AND subject = ?
            ORDER BY date DESC
            LIMIT ?
        )
        ORDER BY date ASC
    `
	return s.query(ctx, fmt.Sprintf(qtpl, s.table), string(job), subject, n)
}

func (s *CHScoreStore) query(ctx context.Context, q string, args ...interface{}) ([]models.ScoreEvent, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse score query error", applogger.String("table", s.table), applogger.Error(err))
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	out := make([]models.ScoreEvent, 0, 256)
	for rows.Next() {
		var e models.ScoreEvent
		var d time.Time
		if err := rows.Scan(&e.Job, &e.Subject, &d, &e.Score, &e.Value, &e.Label, &e.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		e.Date = d.Format(dateLayout)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *CHScoreStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

// Close is a no-op; the client is owned by the caller.
func (s *CHScoreStore) Close() error { return nil }
