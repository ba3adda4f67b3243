// Package cli is the xllucky command line: one-shot jobs, push flows and
// the long-running serve mode.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xllucky21/xllucky/internal/di"
	"github.com/xllucky21/xllucky/internal/service/sources"
	"github.com/xllucky21/xllucky/pkg/config"
	applogger "github.com/xllucky21/xllucky/pkg/logger"
	"github.com/xllucky21/xllucky/pkg/server"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitCritical = 2
)

const historyFile = "execution_history.json"

// ExitCode maps a command error onto the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, sources.ErrCritical):
		return ExitCritical
	default:
		return ExitFailure
	}
}

// Execute runs the CLI with os.Args and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
	}
	return ExitCode(err)
}

type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "xllucky",
		Short: "Market barometers for bonds, dividend stocks and LOF arbitrage",
		Long: `xllucky pulls market data, scores it and writes reports.

Examples:
  xllucky bond --mode incremental --days 30
  xllucky dividend
  xllucky lof && xllucky push lof
  xllucky summary && xllucky push daily
  xllucky serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&o.configPath, "config", "c", "configs/config.yaml", "config file path")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "override log.level (debug|info|warn|error)")

	cmd.AddCommand(
		newBondCmd(o),
		newDividendCmd(o),
		newLOFCmd(o),
		newSummaryCmd(o),
		newPushCmd(o),
		newServeCmd(o),
		newHistoryCmd(o),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, component string) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Output:    cfg.Log.Output,
		Component: component,
	})
}

// runResult carries what a command wants kept in the execution history.
type runResult struct {
	details map[string]interface{}
}

// run builds the app, executes fn under the job lock and appends an
// execution record. Infrastructure is closed before returning.
func (o *rootOptions) run(cmd *cobra.Command, name, trigger string, fn func(context.Context, *server.App) (runResult, error)) (err error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	l, err := newLogger(cfg, name)
	if err != nil {
		return err
	}
	app, err := di.InitializeApp(cfg, l)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	start := time.Now()
	var res runResult
	err = app.Exclusive(cmd.Context(), name, func(ctx context.Context) error {
		var ferr error
		res, ferr = fn(ctx, app)
		return ferr
	})

	rec := applogger.ExecutionRecord{
		Command:  name,
		Duration: int(time.Since(start).Seconds()),
		Trigger:  trigger,
		Details:  res.details,
	}
	switch {
	case err != nil:
		rec.Failed = 1
		if rec.Details == nil {
			rec.Details = map[string]interface{}{}
		}
		rec.Details["error"] = err.Error()
	default:
		rec.Success = 1
	}
	if c := l.Collector(); c != nil {
		rec.Warnings, rec.Errors = c.Counts()
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if cerr := app.Close(closeCtx); cerr != nil {
		l.Warn("close failed", applogger.Error(cerr))
	}

	if herr := applogger.NewExecutionHistory(cfg.CachePath(historyFile)).Record(rec); herr != nil {
		l.Warn("execution history not written", applogger.Error(herr))
	}
	l.Info("run finished",
		applogger.String("command", name),
		applogger.Int("warnings", rec.Warnings),
		applogger.Int("errors", rec.Errors),
		applogger.Duration("elapsed", time.Since(start)),
		applogger.Bool("ok", err == nil),
	)
	return err
}

func newHistoryCmd(o *rootOptions) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show execution statistics and the most recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			h := applogger.NewExecutionHistory(cfg.CachePath(historyFile))
			printHistory(cmd.OutOrStdout(), h, n)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "num", "n", 10, "number of recent runs to list")
	return cmd
}

func printHistory(w io.Writer, h *applogger.ExecutionHistory, n int) {
	fmt.Fprintln(w, h.Summary())
	recs := h.Recent(n)
	if len(recs) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, r := range recs {
		status := "✅"
		switch {
		case r.Failed > 0:
			status = "❌"
		case r.Unchanged > 0:
			status = "⏸️"
		}
		fmt.Fprintf(w, "%s %s %-9s %3ds  warn=%d err=%d  (%s)\n",
			status, r.Timestamp, r.Command, r.Duration, r.Warnings, r.Errors, r.Trigger)
	}
}
