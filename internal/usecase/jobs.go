// Package usecase holds the job pipelines: fetch, compute, persist, report.
package usecase

import (
	"context"
	"time"

	"github.com/xllucky21/xllucky/internal/domain/models"
	drepo "github.com/xllucky21/xllucky/internal/domain/repository"
	"github.com/xllucky21/xllucky/pkg/logger"
)

// timestampLayout is the generated_at format of every stored report.
const timestampLayout = "2006-01-02 15:04:05"

// reportDirLayout names the per-run report folder.
const reportDirLayout = "2006-01-02_15-04-05"

// ScoreEmitter receives the score events of a finished run. Implemented by
// middleware.ScorePipeline.
type ScoreEmitter interface {
	Process(ctx context.Context, events []models.ScoreEvent) error
}

// emit hands events to e. A sink failure never fails the job.
func emit(ctx context.Context, e ScoreEmitter, l *logger.Logger, events []models.ScoreEvent) {
	if e == nil || len(events) == 0 {
		return
	}
	if err := e.Process(ctx, events); err != nil {
		l.Warn("score events not delivered", logger.Int("events", len(events)), logger.Error(err))
	}
}

func recordJob(m drepo.Metrics, job string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.RecordJob(job, status, time.Since(start).Seconds())
}
