package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/xllucky21/xllucky/internal/usecase"
	applogger "github.com/xllucky21/xllucky/pkg/logger"
)

// Task is one scheduled unit of work.
type Task struct {
	Name string
	Spec string
	Run  func(context.Context) error
}

// Tasks returns the scheduled work of serve mode. An empty spec disables a
// task. Score jobs refresh summary.json after they finish; push tasks
// exist only when a webhook is configured.
func (a *App) Tasks() []Task {
	s := a.cfg.Schedule
	out := a.ReportDir()
	notify := a.cfg.Push.WebhookURL != "" || a.cfg.Push.LOFWebhookURL != ""
	tasks := []Task{
		{Name: "bond", Spec: s.Bond, Run: func(ctx context.Context) error {
			if _, err := a.jobs.Bond.Run(ctx, usecase.BondParams{Mode: usecase.ModeIncremental, Days: 30, OutDir: out}); err != nil {
				return err
			}
			_, err := a.jobs.Summary.Run(ctx)
			return err
		}},
		{Name: "dividend", Spec: s.Dividend, Run: func(ctx context.Context) error {
			if _, err := a.jobs.Dividend.Run(ctx, usecase.DividendParams{OutDir: out}); err != nil {
				return err
			}
			_, err := a.jobs.Summary.Run(ctx)
			return err
		}},
		{Name: "lof", Spec: s.LOF, Run: func(ctx context.Context) error {
			if _, err := a.jobs.LOF.Run(ctx, usecase.LOFParams{OutDir: out}); err != nil {
				return err
			}
			if !notify {
				return nil
			}
			return a.jobs.Push.Run(ctx, usecase.FlowLOF, false)
		}},
	}
	if a.cfg.Push.WebhookURL == "" {
		return tasks
	}
	return append(tasks,
		Task{Name: "push-daily", Spec: s.Daily, Run: func(ctx context.Context) error {
			return a.jobs.Push.Run(ctx, usecase.FlowDaily, false)
		}},
		Task{Name: "push-alert", Spec: s.Alert, Run: func(ctx context.Context) error {
			return a.jobs.Push.Run(ctx, usecase.FlowAlert, false)
		}},
	)
}

func (a *App) scheduler(ctx context.Context) (*cron.Cron, error) {
	cl := cronLogger{a.l}
	c := cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl)))
	for _, t := range a.Tasks() {
		if t.Spec == "" {
			continue
		}
		t := t
		if _, err := c.AddFunc(t.Spec, func() { a.runScheduled(ctx, t) }); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", t.Name, t.Spec, err)
		}
		a.l.Info("task scheduled", applogger.String("task", t.Name), applogger.String("spec", t.Spec))
	}
	return c, nil
}

func (a *App) runScheduled(ctx context.Context, t Task) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	err := a.Exclusive(ctx, t.Name, t.Run)
	switch {
	case errors.Is(err, ErrBusy):
		a.l.Warn("scheduled task skipped", applogger.String("task", t.Name), applogger.Error(err))
	case err != nil:
		a.l.Error("scheduled task failed", applogger.String("task", t.Name),
			applogger.Duration("elapsed", time.Since(start)), applogger.Error(err))
	default:
		a.l.Info("scheduled task done", applogger.String("task", t.Name),
			applogger.Duration("elapsed", time.Since(start)))
	}
}

// cronLogger routes cron's own messages through the app logger.
type cronLogger struct{ l *applogger.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, applogger.Any("kv", keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, applogger.Error(err), applogger.Any("kv", keysAndValues))
}
