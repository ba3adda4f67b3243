package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/xllucky21/xllucky/internal/domain/models"
	drepo "github.com/xllucky21/xllucky/internal/domain/repository"
	"github.com/xllucky21/xllucky/internal/report"
	"github.com/xllucky21/xllucky/internal/service/sources"
	"github.com/xllucky21/xllucky/internal/services/analytics"
	"github.com/xllucky21/xllucky/pkg/config"
	"github.com/xllucky21/xllucky/pkg/logger"
	"github.com/xllucky21/xllucky/pkg/util"
)

const (
	// indexHistoryYears covers the 2520-row score history with some margin
	// for the moving averages.
	indexHistoryYears = 11
	stockHistoryYears = 6
)

type DividendParams struct {
	OutDir string
}

// DividendJob computes the dividend barometer: the dividend index plus the
// monitored stock list. No source is critical; a missing index leaves
// Index nil.
type DividendJob struct {
	cfg     *config.Config
	data    drepo.MarketData
	store   drepo.SnapshotStore[models.DividendReport]
	stocks  []models.StockInfo
	emitter ScoreEmitter
	metrics drepo.Metrics
	l       *logger.Logger
	now     func() time.Time
}

func NewDividendJob(
	cfg *config.Config,
	data drepo.MarketData,
	store drepo.SnapshotStore[models.DividendReport],
	emitter ScoreEmitter,
	metrics drepo.Metrics,
	l *logger.Logger,
) *DividendJob {
	return &DividendJob{
		cfg:     cfg,
		data:    data,
		store:   store,
		stocks:  analytics.DividendStocks,
		emitter: emitter,
		metrics: metrics,
		l:       l,
		now:     time.Now,
	}
}

func (j *DividendJob) Run(ctx context.Context, p DividendParams) (_ *models.DividendReport, err error) {
	now := j.now()
	defer func() { recordJob(j.metrics, string(drepo.JobDividend), now, err) }()

	bondHistory, _, err := j.data.TreasuryYields(ctx, util.YearsBefore(now, j.cfg.Bond.Years))
	if err != nil {
		j.l.Warn("bond yield history unavailable", logger.Error(err))
		bondHistory = nil
	}
	bondYield := j.cfg.Dividend.BondYieldFallback
	if last, ok := bondHistory.Last(); ok {
		bondYield = last.Value
	} else {
		j.l.Warn("using fallback bond yield", logger.Float("bond_yield", bondYield))
	}

	index, f := j.analyzeIndex(ctx, bondHistory, now)
	stocks := j.analyzeStocks(ctx, bondYield, now)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := models.DividendReport{
		GeneratedAt: now.Format(timestampLayout),
		BondYield:   bondYield,
		Index:       index,
		Stocks:      stocks,
	}

	if _, err := j.store.Save(ctx, r); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		j.l.Error("dividend history not saved", logger.Error(err))
	}

	if p.OutDir != "" {
		j.writeBundle(f, r, filepath.Join(p.OutDir, "Dividend_"+now.Format(reportDirLayout)))
	}

	emit(ctx, j.emitter, j.l, dividendEvents(r, now))
	return &r, nil
}

func (j *DividendJob) analyzeIndex(ctx context.Context, bondHistory models.Series, now time.Time) (*models.IndexAnalysis, *models.Frame) {
	code := j.cfg.Dividend.IndexCode
	closes, err := j.data.IndexCloses(ctx, code, util.YearsBefore(now, indexHistoryYears))
	if err != nil || len(closes) == 0 {
		j.l.Warn("dividend index unavailable", logger.String("index", code), logger.Error(err))
		return nil, nil
	}
	var dy models.Series
	if val, err := j.data.IndexValuation(ctx, code); err != nil {
		j.l.Warn("index dividend yield unavailable", logger.String("index", code), logger.Error(err))
	} else {
		dy = val.DividendYield
	}

	cfg := analytics.DefaultDividendConfig()
	f := analytics.BuildDividendFrame(analytics.DividendInputs{Close: closes, DividendYield: dy, BondYield: bondHistory}, cfg)
	a := analytics.AnalyzeIndex(f, bondHistory, cfg)
	if a != nil {
		j.l.Info("dividend index scored",
			logger.String("date", a.Conclusion.LastDate),
			logger.Float("score", a.Conclusion.Score),
			logger.String("signal", string(a.Conclusion.Signal)),
		)
	}
	return a, f
}

func (j *DividendJob) analyzeStocks(ctx context.Context, bondYield float64, now time.Time) []models.StockAnalysis {
	secids := make([]string, len(j.stocks))
	for i, s := range j.stocks {
		secids[i] = sources.StockSecID(s.Code)
	}
	quotes := map[string]models.Quote{}
	if qs, err := j.data.Quotes(ctx, secids); err != nil {
		j.l.Warn("stock quotes unavailable", logger.Error(err))
	} else {
		for _, q := range qs {
			quotes[q.Code] = q
		}
	}

	out := make([]models.StockAnalysis, 0, len(j.stocks))
	for _, info := range j.stocks {
		if ctx.Err() != nil {
			break
		}
		in := j.stockInputs(ctx, info, quotes[info.Code], now)
		out = append(out, analytics.AnalyzeStock(info, in, bondYield, now))
	}
	analytics.RankStocks(out)
	return out
}

func (j *DividendJob) stockInputs(ctx context.Context, info models.StockInfo, q models.Quote, now time.Time) analytics.StockInputs {
	var in analytics.StockInputs
	warn := func(what string, err error) {
		j.l.Warn("stock source unavailable",
			logger.String("code", info.Code), logger.String("name", info.Name),
			logger.String("source", what), logger.Error(err))
	}
	if q.Price > 0 {
		price := q.Price
		in.Price = &price
	}
	pb, err := j.data.PBHistory(ctx, info.Code)
	if err != nil {
		warn("pb", err)
	}
	if len(pb) == 0 && q.PB != nil {
		pb = models.Series{{Date: util.Day(now), Value: *q.PB}}
	}
	in.PB = pb
	if in.Prices, err = j.data.StockPrices(ctx, info.Code, util.YearsBefore(now, stockHistoryYears)); err != nil {
		warn("prices", err)
	}
	if in.Dividends, err = j.data.Dividends(ctx, info.Code); err != nil {
		warn("dividends", err)
	}
	return in
}

func dividendEvents(r models.DividendReport, now time.Time) []models.ScoreEvent {
	events := make([]models.ScoreEvent, 0, len(r.Stocks)+1)
	if r.Index != nil {
		c := r.Index.Conclusion
		v := 0.0
		if c.DividendYield != nil {
			v = *c.DividendYield
		}
		events = append(events, models.ScoreEvent{
			Job:         string(drepo.JobDividend),
			Subject:     "index",
			Date:        c.LastDate,
			Score:       c.Score,
			Value:       v,
			Label:       string(c.Signal),
			GeneratedAt: now,
		})
	}
	day := util.DateKey(now)
	for _, s := range r.Stocks {
		v := 0.0
		if s.Metrics.DividendYield != nil {
			v = *s.Metrics.DividendYield
		}
		events = append(events, models.ScoreEvent{
			Job:         string(drepo.JobDividend),
			Subject:     s.Code,
			Date:        day,
			Score:       s.TotalScore,
			Value:       v,
			Label:       s.Name,
			GeneratedAt: now,
		})
	}
	return events
}

func (j *DividendJob) writeBundle(f *models.Frame, r models.DividendReport, dir string) {
	var b report.Bundle
	chartFile := ""
	if f != nil {
		png, err := dividendChart(f)
		if err != nil {
			j.l.Warn("dividend chart skipped", logger.Error(err))
		} else {
			b.Chart = png
			chartFile = report.ChartFile
		}
	}
	b.Markdown = report.DividendMarkdown(r, chartFile)

	page := report.Page{
		Title:       "中证红利指数分析报告",
		GeneratedAt: r.GeneratedAt,
		Headline:    fmt.Sprintf("10年国债 %.2f%%", r.BondYield),
		Chart:       b.Chart,
	}
	if r.Index != nil {
		c := r.Index.Conclusion
		page.Headline = fmt.Sprintf("%s · 综合评分 %.1f", c.Weather, c.Score)
		page.Rows = append(page.Rows,
			report.Row{Label: "指数收盘", Value: fmt.Sprintf("%.2f", c.LastClose), Status: c.LastDate},
			report.Row{Label: "股息率", Value: pctOrNA(c.DividendYield), Status: c.SpreadStatus},
			report.Row{Label: "股债利差", Value: pctOrNA(c.Spread)},
			report.Row{Label: "趋势", Value: pctOrNA(c.MADeviation), Status: c.TrendStatus},
		)
		page.Notes = append(page.Notes, c.SuggestionCon, c.SuggestionAgg)
	}
	for _, s := range r.Stocks {
		page.Rows = append(page.Rows, report.Row{
			Label:  fmt.Sprintf("%s (%s)", s.Name, s.Code),
			Value:  fmt.Sprintf("%.1f", s.TotalScore),
			Status: "股息率 " + pctOrNA(s.Metrics.DividendYield),
		})
	}
	if html, err := report.RenderHTML(page); err != nil {
		j.l.Warn("dividend html skipped", logger.Error(err))
	} else {
		b.HTML = html
	}
	if err := report.WriteBundle(dir, b); err != nil {
		j.l.Error("dividend report bundle incomplete", logger.String("dir", dir), logger.Error(err))
		return
	}
	j.l.Info("dividend report written", logger.String("dir", dir))
}

// dividendChart plots two years of index closes and MA60 with the yield
// spread on the right axis.
func dividendChart(f *models.Frame) ([]byte, error) {
	n := f.Len()
	if n == 0 {
		return nil, fmt.Errorf("empty frame")
	}
	from := f.Dates[n-1].AddDate(-2, 0, 0)
	return report.RenderLineChart("CSI Dividend Index", []report.Line{
		{Name: "Close", Series: f.Series(analytics.ColClose).Since(from), Color: "111827", Width: 2},
		{Name: "MA60", Series: f.Series(analytics.ColMA).Since(from), Color: "f59e0b", Width: 1.5, Dashed: true},
		{Name: "Spread", Series: f.Series(analytics.ColDYSpread).Since(from), Color: "2563eb", Width: 1, Secondary: true},
	})
}

func pctOrNA(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", *p)
}
