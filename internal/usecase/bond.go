package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/xllucky21/xllucky/internal/domain/models"
	drepo "github.com/xllucky21/xllucky/internal/domain/repository"
	"github.com/xllucky21/xllucky/internal/report"
	"github.com/xllucky21/xllucky/internal/service/sources"
	"github.com/xllucky21/xllucky/internal/services/analytics"
	"github.com/xllucky21/xllucky/pkg/config"
	"github.com/xllucky21/xllucky/pkg/logger"
	"github.com/xllucky21/xllucky/pkg/util"
)

// Fetch modes of the bond job.
const (
	ModeFull        = "full"
	ModeIncremental = "incremental"
)

// csi300 provides the PE behind the ERP factor.
const csi300 = "000300"

const bondSubject = "CN10Y"

// BondParams are the per-run options of the bond job.
type BondParams struct {
	Mode string
	Days int
	// OutDir receives a Report_<time> folder with Markdown, chart and HTML.
	// Empty skips the bundle.
	OutDir string
}

// BondJob computes the bond barometer.
type BondJob struct {
	cfg     *config.Config
	data    drepo.MarketData
	store   drepo.SnapshotStore[models.BondReport]
	emitter ScoreEmitter
	metrics drepo.Metrics
	l       *logger.Logger
	now     func() time.Time
}

func NewBondJob(
	cfg *config.Config,
	data drepo.MarketData,
	store drepo.SnapshotStore[models.BondReport],
	emitter ScoreEmitter,
	metrics drepo.Metrics,
	l *logger.Logger,
) *BondJob {
	return &BondJob{cfg: cfg, data: data, store: store, emitter: emitter, metrics: metrics, l: l, now: time.Now}
}

// Run fetches, scores and persists one snapshot. A critical source failure
// returns before anything is written.
func (j *BondJob) Run(ctx context.Context, p BondParams) (_ *models.BondReport, err error) {
	now := j.now()
	defer func() { recordJob(j.metrics, string(drepo.JobBond), now, err) }()

	in, err := j.fetch(ctx, p, now)
	if err != nil {
		return nil, err
	}

	f := analytics.BuildBondFrame(in, analytics.DefaultIndicatorConfig())
	r := j.analyze(f, in, now)
	j.l.Info("bond scored",
		logger.String("date", r.Conclusion.LastDate),
		logger.Float("yield", r.Conclusion.LastYield),
		logger.Float("score", r.Conclusion.Score),
		logger.String("weather", r.Conclusion.Weather),
	)

	if _, err := j.store.Save(ctx, r); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		j.l.Error("bond history not saved", logger.Error(err))
	}

	if p.OutDir != "" {
		j.writeBundle(f, r, filepath.Join(p.OutDir, "Report_"+now.Format(reportDirLayout)))
	}

	emit(ctx, j.emitter, j.l, []models.ScoreEvent{{
		Job:         string(drepo.JobBond),
		Subject:     bondSubject,
		Date:        r.Conclusion.LastDate,
		Score:       r.Conclusion.Score,
		Value:       r.Conclusion.LastYield,
		Label:       r.Conclusion.Weather,
		GeneratedAt: now,
	}})
	return &r, nil
}

func (j *BondJob) fetch(ctx context.Context, p BondParams, now time.Time) (analytics.BondInputs, error) {
	if p.Mode == ModeIncremental {
		prev, err := j.store.Latest()
		switch {
		case err == nil && prev.Raw != nil && len(prev.Raw.Bond10Y) > 0:
			return j.fetchIncremental(ctx, prev.Raw, p.Days, now)
		case err != nil && !errors.Is(err, drepo.ErrNoSnapshot):
			j.l.Warn("bond history unreadable, running full fetch", logger.Error(err))
		default:
			j.l.Info("no stored raw series, running full fetch")
		}
	}
	return j.fetchFrom(ctx, util.YearsBefore(now, j.cfg.Bond.Years))
}

func (j *BondJob) fetchFrom(ctx context.Context, from time.Time) (analytics.BondInputs, error) {
	var in analytics.BondInputs
	cn, us, err := j.data.TreasuryYields(ctx, from)
	if err != nil {
		return in, sources.Critical("treasury", err)
	}
	if len(cn) == 0 {
		return in, sources.Critical("treasury", fmt.Errorf("no yield rows"))
	}
	in.Yield, in.USYield = cn, us

	if val, err := j.data.IndexValuation(ctx, csi300); err != nil {
		j.l.Warn("csi300 pe unavailable", logger.Error(err))
	} else {
		in.PE = val.PE
	}
	if s, err := j.data.Shibor(ctx, from); err != nil {
		j.l.Warn("shibor unavailable", logger.Error(err))
	} else {
		in.Shibor = s
	}
	return in, nil
}

// fetchIncremental pulls the last days of every series and merges them into
// the stored raw section. Fresh values win on shared dates.
func (j *BondJob) fetchIncremental(ctx context.Context, raw *models.BondRaw, days int, now time.Time) (analytics.BondInputs, error) {
	if days <= 0 {
		days = 30
	}
	fresh, err := j.fetchFrom(ctx, util.WindowFrom(now, days))
	if err != nil {
		return fresh, err
	}
	in := analytics.BondInputs{
		Yield:   models.Merge(models.SeriesFromRecords(raw.Bond10Y, analytics.ColYield), fresh.Yield),
		USYield: models.Merge(models.SeriesFromRecords(raw.USBond10Y, analytics.ColUSYield), fresh.USYield),
		PE:      models.Merge(models.SeriesFromRecords(raw.StockPE, analytics.ColPE), fresh.PE),
		Shibor:  models.Merge(models.SeriesFromRecords(raw.ShiborON, analytics.ColShibor), fresh.Shibor),
	}
	j.l.Info("bond series merged",
		logger.Int("days", days),
		logger.Int("fresh", len(fresh.Yield)),
		logger.Int("total", len(in.Yield)),
	)
	return in, nil
}

func (j *BondJob) analyze(f *models.Frame, in analytics.BondInputs, now time.Time) models.BondReport {
	i := f.Len() - 1
	pct := analytics.CurrentPercentile(f, j.cfg.Bond.Years)
	rc := analytics.DefaultRegimeConfig()
	sc := analytics.DefaultScoreConfig()
	regime := analytics.DetectRegime(f.Col(analytics.ColYield), f.Col(analytics.ColMA), i, rc)
	score := analytics.BondScore(analytics.FactorsAt(f, i, pct), &regime, sc)

	bt := analytics.DefaultBacktestConfig()
	bt.Horizon = j.cfg.Bond.Horizon
	bt.CarryRate = j.cfg.Bond.CarryRate
	bt.MinDuration = j.cfg.Bond.MinDuration
	bt.MaxDuration = j.cfg.Bond.MaxDuration

	return models.BondReport{
		GeneratedAt: now.Format(timestampLayout),
		Conclusion:  analytics.ConcludeBond(f, pct, score, regime),
		Backtest:    analytics.RunBacktest(f, bt, sc, rc),
		Raw: &models.BondRaw{
			Bond10Y:   in.Yield.Normalize().Records(analytics.ColYield),
			StockPE:   in.PE.Normalize().Records(analytics.ColPE),
			ShiborON:  in.Shibor.Normalize().Records(analytics.ColShibor),
			USBond10Y: in.USYield.Normalize().Records(analytics.ColUSYield),
		},
	}
}

func (j *BondJob) writeBundle(f *models.Frame, r models.BondReport, dir string) {
	var b report.Bundle
	png, err := bondChart(f, j.cfg.Bond.Years)
	if err != nil {
		j.l.Warn("bond chart skipped", logger.Error(err))
	}
	chartFile := ""
	if len(png) > 0 {
		b.Chart = png
		chartFile = report.ChartFile
	}
	b.Markdown = report.BondMarkdown(r, chartFile)

	c := r.Conclusion
	page := report.Page{
		Title:       "10年国债收益率分析报告",
		GeneratedAt: r.GeneratedAt,
		Headline:    fmt.Sprintf("%s · 综合评分 %.1f", c.Weather, c.Score),
		Rows: []report.Row{
			{Label: "10年国债收益率", Value: fmt.Sprintf("%.4f%%", c.LastYield), Status: c.LastDate},
			{Label: "历史分位", Value: fmt.Sprintf("%.1f%%", c.Percentile), Status: c.ValStatus},
			{Label: "趋势 (MA60)", Value: c.TrendVal, Status: c.TrendStatus},
			{Label: "MACD", Value: c.MACDVal, Status: c.MACDStatus},
			{Label: "股债性价比", Value: c.PEVal, Status: c.MacroMsg},
			{Label: "资金面 (Shibor)", Value: c.ShiborVal, Status: c.LiquidityMsg},
			{Label: "中美利差", Value: c.SpreadVal, Status: c.SpreadMsg},
			{Label: "市场状态", Value: c.MarketRegime.RegimeMsg},
		},
		Notes: []string{c.SuggestionCon, c.SuggestionAgg, r.Backtest.MonotonicMsg},
		Chart: png,
	}
	if html, err := report.RenderHTML(page); err != nil {
		j.l.Warn("bond html skipped", logger.Error(err))
	} else {
		b.HTML = html
	}

	if err := report.WriteBundle(dir, b); err != nil {
		j.l.Error("bond report bundle incomplete", logger.String("dir", dir), logger.Error(err))
		return
	}
	j.l.Info("bond report written", logger.String("dir", dir))
}

// bondChart plots the last two years of yield and MA60 against the 80th and
// 20th yield percentiles of the valuation window.
func bondChart(f *models.Frame, years int) ([]byte, error) {
	n := f.Len()
	if n == 0 {
		return nil, fmt.Errorf("empty frame")
	}
	last := f.Dates[n-1]
	from := last.AddDate(-2, 0, 0)
	yield := f.Series(analytics.ColYield).Since(from)
	ma := f.Series(analytics.ColMA).Since(from)

	window := f.Series(analytics.ColYield).Since(util.YearsBefore(last, years)).Values()
	sort.Float64s(window)
	lines := []report.Line{
		{Name: "10Y Yield", Series: yield, Color: "000000", Width: 2},
		{Name: "MA60", Series: ma, Color: "f59e0b", Width: 1.5, Dashed: true},
	}
	if len(window) > 0 {
		q80 := stat.Quantile(0.8, stat.LinInterp, window, nil)
		q20 := stat.Quantile(0.2, stat.LinInterp, window, nil)
		lines = append(lines,
			report.Flat("Buy Zone (P80)", yield, q80, "16a34a"),
			report.Flat("Sell Zone (P20)", yield, q20, "dc2626"),
		)
	}
	return report.RenderLineChart("China 10Y Treasury Yield", lines)
}
