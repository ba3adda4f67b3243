// Package middleware sits between the jobs and the optional score sinks.
package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/xllucky21/xllucky/internal/domain/models"
	domrepo "github.com/xllucky21/xllucky/internal/domain/repository"
	"github.com/xllucky21/xllucky/pkg/logger"
)

// Proc is the downstream the pipeline forwards accepted events to.
type Proc interface {
	ProcessScores(ctx context.Context, events []models.ScoreEvent) error
}

// ScorePipeline validates score events, drops duplicates within a batch and
// buffers events when the downstream is unavailable.
type ScorePipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	l       *logger.Logger
	bufSize int

	mu      sync.Mutex
	buf     []models.ScoreEvent
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

type PipelineOption func(*ScorePipeline)

// WithBufferSize caps the number of events held while the downstream fails.
func WithBufferSize(n int) PipelineOption {
	return func(p *ScorePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

func WithLogger(l *logger.Logger) PipelineOption {
	return func(p *ScorePipeline) {
		if l != nil {
			p.l = l
		}
	}
}

func NewScorePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *ScorePipeline {
	p := &ScorePipeline{
		proc:    proc,
		metrics: metrics,
		l:       logger.Nop(),
		bufSize: 5000,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process forwards the valid events of one job run. On a downstream error
// the batch is buffered and the error returned.
func (p *ScorePipeline) Process(ctx context.Context, events []models.ScoreEvent) error {
	batch := p.accept(events)
	if len(batch) == 0 {
		return nil
	}
	if err := p.proc.ProcessScores(ctx, batch); err != nil {
		p.buffer(batch)
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	return nil
}

// Flush retries buffered events once. Events that fail again stay buffered.
func (p *ScorePipeline) Flush(ctx context.Context) error {
	p.mu.Lock()
	pending := p.buf
	p.buf = nil
	p.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}
	if err := p.proc.ProcessScores(ctx, pending); err != nil {
		p.buffer(pending)
		return fmt.Errorf("pipeline flush: %w", err)
	}
	p.l.Info("buffered score events flushed", logger.Int("events", len(pending)))
	return nil
}

// Pending returns the number of buffered events.
func (p *ScorePipeline) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf)
}

// Start flushes the buffer in the background with capped exponential
// backoff until Stop.
func (p *ScorePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go func() {
		defer close(p.doneCh)
		const minBackoff = time.Second
		backoff := minBackoff
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if p.Pending() == 0 {
				backoff = minBackoff
				continue
			}
			if err := p.Flush(ctx); err != nil {
				if backoff < time.Minute {
					backoff *= 2
				}
				p.l.Warn("score flush failed", logger.Error(err), logger.Duration("backoff", backoff))
				continue
			}
			backoff = minBackoff
		}
	}()
}

// Stop ends the background flusher and waits for it.
func (p *ScorePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	close(p.stopCh)
	done := p.doneCh
	p.mu.Unlock()
	<-done
}

func (p *ScorePipeline) accept(events []models.ScoreEvent) []models.ScoreEvent {
	out := make([]models.ScoreEvent, 0, len(events))
	seen := make(map[string]int, len(events))
	for _, e := range events {
		if err := ValidateScore(e); err != nil {
			p.drop("invalid")
			p.l.Debug("score event rejected", logger.String("subject", e.Subject), logger.Error(err))
			continue
		}
		key := e.Job + "|" + e.Subject + "|" + e.Date
		if i, ok := seen[key]; ok {
			out[i] = e
			p.drop("duplicate")
			continue
		}
		seen[key] = len(out)
		out = append(out, e)
	}
	return out
}

func (p *ScorePipeline) buffer(events []models.ScoreEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf = append(p.buf, events...)
	if over := len(p.buf) - p.bufSize; over > 0 {
		p.buf = p.buf[over:]
		for i := 0; i < over; i++ {
			p.drop("buffer_full")
		}
	}
}

func (p *ScorePipeline) drop(reason string) {
	if p.metrics != nil {
		p.metrics.RecordEventDropped(reason)
	}
}

// ValidateScore checks the fields every sink relies on.
func ValidateScore(e models.ScoreEvent) error {
	if !domrepo.IsValidJob(domrepo.Job(e.Job)) {
		return fmt.Errorf("unknown job %q", e.Job)
	}
	if e.Subject == "" {
		return fmt.Errorf("subject empty")
	}
	if _, err := time.Parse("2006-01-02", e.Date); err != nil {
		return fmt.Errorf("date invalid: %w", err)
	}
	if math.IsNaN(e.Score) || e.Score < 0 || e.Score > 100 {
		return fmt.Errorf("score out of range: %v", e.Score)
	}
	if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
		return fmt.Errorf("value not finite")
	}
	return nil
}
