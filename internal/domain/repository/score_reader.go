package repository

import (
	"context"
	"time"

	"github.com/xllucky21/xllucky/internal/domain/models"
)

// ScoreReader provides read-only access to stored score history.
type ScoreReader interface {
	GetScores(ctx context.Context, job Job, subject string, from, to time.Time) ([]models.ScoreEvent, error)
	GetLatestNScores(ctx context.Context, job Job, subject string, n int) ([]models.ScoreEvent, error)
}
