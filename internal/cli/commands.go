package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xllucky21/xllucky/internal/di"
	"github.com/xllucky21/xllucky/internal/usecase"
	"github.com/xllucky21/xllucky/pkg/server"
)

func outDir(a *server.App, out string) string {
	if out != "" {
		return out
	}
	return a.ReportDir()
}

func newBondCmd(o *rootOptions) *cobra.Command {
	var (
		mode string
		days int
		out  string
	)
	cmd := &cobra.Command{
		Use:   "bond",
		Short: "Run the bond barometer",
		Long: `Fetch treasury yields, Shibor and the CSI 300 valuation, score the
bond market and update the bond history.

In incremental mode only the last --days days are fetched and merged into
the raw series of the newest stored report.`,
		Args: cobra.NoArgs,
		PreRunE: func(*cobra.Command, []string) error {
			if mode != usecase.ModeFull && mode != usecase.ModeIncremental {
				return fmt.Errorf("invalid --mode %q (full|incremental)", mode)
			}
			if days < 1 {
				return fmt.Errorf("--days must be positive")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd, "bond", "manual", func(ctx context.Context, a *server.App) (runResult, error) {
				r, err := a.Jobs().Bond.Run(ctx, usecase.BondParams{Mode: mode, Days: days, OutDir: outDir(a, out)})
				if err != nil {
					return runResult{}, err
				}
				return runResult{details: map[string]interface{}{
					"score":     r.Conclusion.Score,
					"weather":   r.Conclusion.Weather,
					"last_date": r.Conclusion.LastDate,
				}}, nil
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", usecase.ModeFull, "fetch mode: full|incremental")
	cmd.Flags().IntVar(&days, "days", 30, "days to refetch in incremental mode")
	cmd.Flags().StringVar(&out, "out", "", "report bundle directory (default <data_dir>/reports)")
	return cmd
}

func newDividendCmd(o *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "dividend",
		Short: "Run the dividend barometer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd, "dividend", "manual", func(ctx context.Context, a *server.App) (runResult, error) {
				r, err := a.Jobs().Dividend.Run(ctx, usecase.DividendParams{OutDir: outDir(a, out)})
				if err != nil {
					return runResult{}, err
				}
				d := map[string]interface{}{"stocks": len(r.Stocks), "bond_yield": r.BondYield}
				if r.Index != nil {
					d["score"] = r.Index.Conclusion.Score
				}
				return runResult{details: d}, nil
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "report bundle directory (default <data_dir>/reports)")
	return cmd
}

func newLOFCmd(o *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "lof",
		Short: "Scan listed LOFs for premium/discount arbitrage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd, "lof", "manual", func(ctx context.Context, a *server.App) (runResult, error) {
				r, err := a.Jobs().LOF.Run(ctx, usecase.LOFParams{OutDir: outDir(a, out)})
				if err != nil {
					return runResult{}, err
				}
				return runResult{details: map[string]interface{}{
					"funds":         r.Overview.TotalCount,
					"opportunities": len(r.Opportunities.Premium),
				}}, nil
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "report bundle directory (default <data_dir>/reports)")
	return cmd
}

func newSummaryCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Write summary.json from the newest reports and market quotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd, "summary", "manual", func(ctx context.Context, a *server.App) (runResult, error) {
				s, err := a.Jobs().Summary.Run(ctx)
				if err != nil {
					return runResult{}, err
				}
				return runResult{details: map[string]interface{}{
					"path":         a.Jobs().Summary.Path(),
					"generated_at": s.GeneratedAt,
				}}, nil
			})
		},
	}
}

func newPushCmd(o *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:       "push [" + strings.Join(usecase.Flows, "|") + "]",
		Short:     "Post a digest to the WeCom webhook (default daily)",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: usecase.Flows,
		RunE: func(cmd *cobra.Command, args []string) error {
			flow := usecase.FlowDaily
			if len(args) == 1 {
				flow = args[0]
			}
			trigger := "manual"
			if force {
				trigger = "force"
			}
			return o.run(cmd, "push-"+flow, trigger, func(ctx context.Context, a *server.App) (runResult, error) {
				return runResult{details: map[string]interface{}{"flow": flow}}, a.Jobs().Push.Run(ctx, flow, force)
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "push even when the LOF opportunities are unchanged")
	return cmd
}

func newServeCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the reports over HTTP and run the jobs on their schedules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			l, err := newLogger(cfg, "serve")
			if err != nil {
				return err
			}
			app, err := di.InitializeApp(cfg, l)
			if err != nil {
				return fmt.Errorf("init: %w", err)
			}
			return app.Serve(cmd.Context())
		},
	}
}
