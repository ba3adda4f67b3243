package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/xllucky21/xllucky/internal/domain/models"
	drepo "github.com/xllucky21/xllucky/internal/domain/repository"
)

// ScoreProcessor fans score events out to the configured sinks. Either sink
// may be nil.
type ScoreProcessor struct {
	pub     drepo.Publisher
	sink    drepo.ScoreSink
	metrics drepo.Metrics
}

func NewScoreProcessor(pub drepo.Publisher, sink drepo.ScoreSink, metrics drepo.Metrics) *ScoreProcessor {
	return &ScoreProcessor{pub: pub, sink: sink, metrics: metrics}
}

// ProcessScores delivers events to every sink and joins their errors.
func (p *ScoreProcessor) ProcessScores(ctx context.Context, events []models.ScoreEvent) error {
	if len(events) == 0 {
		return nil
	}
	var errs []error
	if p.pub != nil {
		if err := p.pub.PublishScores(ctx, events); err != nil {
			errs = append(errs, fmt.Errorf("publish scores: %w", err))
		} else {
			p.sent("kafka", len(events))
		}
	}
	if p.sink != nil {
		if err := p.sink.WriteScores(ctx, events); err != nil {
			errs = append(errs, fmt.Errorf("store scores: %w", err))
		} else {
			p.sent("clickhouse", len(events))
		}
	}
	if p.metrics != nil {
		for _, e := range events {
			p.metrics.RecordScore(e.Job, e.Subject, e.Score)
		}
	}
	return errors.Join(errs...)
}

func (p *ScoreProcessor) sent(sink string, n int) {
	if p.metrics == nil {
		return
	}
	for i := 0; i < n; i++ {
		p.metrics.RecordEventSent(sink)
	}
}

// Close closes both sinks and joins their errors.
func (p *ScoreProcessor) Close() error {
	var errs []error
	if p.pub != nil {
		if err := p.pub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if p.sink != nil {
		if err := p.sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close score store: %w", err))
		}
	}
	return errors.Join(errs...)
}
