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
	"github.com/xllucky21/xllucky/pkg/cache"
	"github.com/xllucky21/xllucky/pkg/config"
	"github.com/xllucky21/xllucky/pkg/logger"
	"github.com/xllucky21/xllucky/pkg/util"
)

const (
	premiumTopN  = 20
	hotTail      = 30
	lofCacheTTL  = 24 * time.Hour
	lofTSName    = "LOF_DATA"
	lofDesc      = "LOF基金套利监测数据（基于盘中实时估值）"
	lofNote      = "折溢价率基于【实时估值】计算 | 申购状态是套利生死线！"
	lofTSComment = "核心改进：使用【盘中实时估值】计算折溢价，而非T-1净值"
)

type LOFParams struct {
	OutDir string
}

// LOFJob evaluates listed LOFs against their intraday estimated NAV.
// Estimates and spot quotes are critical; subscribe status is optional.
type LOFJob struct {
	cfg     *config.Config
	data    drepo.FundData
	cache   cache.Service
	hot     []models.HotLOF
	emitter ScoreEmitter
	metrics drepo.Metrics
	l       *logger.Logger
	now     func() time.Time
}

// NewLOFJob builds the job. c caches NAV lookups per day and may be nil.
func NewLOFJob(
	cfg *config.Config,
	data drepo.FundData,
	c cache.Service,
	emitter ScoreEmitter,
	metrics drepo.Metrics,
	l *logger.Logger,
) *LOFJob {
	return &LOFJob{
		cfg:     cfg,
		data:    data,
		cache:   c,
		hot:     analytics.HotLOFs,
		emitter: emitter,
		metrics: metrics,
		l:       l,
		now:     time.Now,
	}
}

func (j *LOFJob) Run(ctx context.Context, p LOFParams) (_ *models.LOFReport, err error) {
	now := j.now()
	defer func() { recordJob(j.metrics, string(drepo.JobLOF), now, err) }()

	ests, err := j.data.FundEstimates(ctx)
	if err != nil {
		return nil, sources.Critical("fund_estimate", err)
	}
	quotes, err := j.data.LOFQuotes(ctx)
	if err != nil {
		return nil, sources.Critical("lof_spot", err)
	}
	if len(quotes) == 0 {
		return nil, sources.Critical("lof_spot", fmt.Errorf("no quotes"))
	}
	statuses, err := j.data.SubscribeStatuses(ctx)
	if err != nil {
		j.l.Warn("subscribe status unavailable, treating all funds as subscribable", logger.Error(err))
		statuses = nil
	}
	if ests == nil {
		ests = map[string]models.FundEstimate{}
	}
	j.fillMissingNAV(ctx, quotes, ests, now)

	funds := make([]models.LOFFund, 0, len(quotes))
	for _, q := range quotes {
		var st *models.SubscribeStatus
		if s, ok := statuses[q.Code]; ok {
			st = &s
		}
		if f, ok := analytics.EvaluateFund(q, ests[q.Code], st, j.cfg.LOF.LowLiquidityWan); ok {
			funds = append(funds, f)
		}
	}

	updated := now.Format(timestampLayout)
	r := models.LOFReport{
		Meta:          models.LOFMeta{UpdatedAt: updated, Desc: lofDesc, Note: lofNote},
		Overview:      analytics.Overview(funds),
		Opportunities: models.Opportunities{Premium: analytics.PremiumOpportunities(funds, premiumTopN)},
		AllFunds:      funds,
		HotFunds:      j.hotFunds(ctx, funds, now),
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	j.l.Info("lof evaluated",
		logger.Int("funds", len(funds)),
		logger.Int("premium", len(r.Opportunities.Premium)),
		logger.Float("avg_discount", r.Overview.AvgDiscountRate),
	)

	if err := report.WriteTS(j.cfg.DataPath(j.cfg.LOF.TSFile), lofTSName, r,
		"LOF基金套利监测数据", "自动生成于 "+updated, lofTSComment); err != nil {
		j.l.Error("lof ts not written", logger.Error(err))
	}
	if p.OutDir != "" {
		j.writeBundle(r, filepath.Join(p.OutDir, "LOF_"+now.Format(reportDirLayout)))
	}

	emit(ctx, j.emitter, j.l, lofEvents(r, now))
	return &r, nil
}

// fillMissingNAV uses the latest published NAV as both estimate and T-1 NAV
// for quoted funds without an intraday estimate. Lookups are capped and
// cached for the day.
func (j *LOFJob) fillMissingNAV(ctx context.Context, quotes []models.FundQuote, ests map[string]models.FundEstimate, now time.Time) {
	limit := j.cfg.LOF.NAVLookupLimit
	day := util.DateKey(now)
	looked, filled := 0, 0
	for _, q := range quotes {
		if looked >= limit || ctx.Err() != nil {
			break
		}
		if est, ok := ests[q.Code]; (ok && est.EstNAV != nil) || q.Price <= 0 {
			continue
		}
		looked++
		code := q.Code
		nav, err := cache.Remember(ctx, j.cache, cache.GenerateKeyWithParams("lof:t1nav", day, code), lofCacheTTL,
			func(ctx context.Context) (float64, error) {
				pts, err := j.data.NAVHistory(ctx, code, 1)
				if err != nil {
					return 0, err
				}
				if len(pts) == 0 {
					return 0, fmt.Errorf("no nav published")
				}
				return pts[len(pts)-1].NAV, nil
			})
		if err != nil {
			j.l.Debug("t-1 nav unavailable", logger.String("code", code), logger.Error(err))
			continue
		}
		ests[code] = models.FundEstimate{Code: code, Name: q.Name, EstNAV: &nav, PrevNAV: &nav}
		filled++
	}
	if looked > 0 {
		j.l.Info("t-1 nav fallback", logger.Int("looked_up", looked), logger.Int("filled", filled))
	}
}

// hotFunds attaches price and discount history to the watched funds that
// were evaluated. Histories are cached per day and watch list.
func (j *LOFJob) hotFunds(ctx context.Context, funds []models.LOFFund, now time.Time) []models.HotFund {
	byCode := make(map[string]models.HotLOF, len(j.hot))
	codes := make([]string, 0, len(j.hot))
	for _, h := range j.hot {
		byCode[h.Code] = h
		codes = append(codes, h.Code)
	}
	day := util.DateKey(now)
	hash := cache.CodesHash(codes)
	days := j.cfg.LOF.HistoryDays

	out := []models.HotFund{}
	for _, f := range funds {
		h, ok := byCode[f.Code]
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		code := f.Code
		navs, err := cache.Remember(ctx, j.cache, cache.GenerateKeyWithParams("lof:navhist", day, hash, code), lofCacheTTL,
			func(ctx context.Context) ([]models.NAVPoint, error) { return j.data.NAVHistory(ctx, code, days) })
		if err != nil {
			j.l.Warn("nav history unavailable", logger.String("code", code), logger.Error(err))
		}
		prices, err := cache.Remember(ctx, j.cache, cache.GenerateKeyWithParams("lof:pricehist", day, hash, code), lofCacheTTL,
			func(ctx context.Context) ([]models.PricePoint, error) { return j.data.PriceHistory(ctx, code, days) })
		if err != nil {
			j.l.Warn("price history unavailable", logger.String("code", code), logger.Error(err))
		}
		out = append(out, models.HotFund{
			LOFFund:         f,
			TrackIndex:      h.TrackIndex,
			PriceHistory:    tail(prices, hotTail),
			DiscountHistory: tail(analytics.DiscountHistory(prices, navs), hotTail),
		})
	}
	return out
}

func tail[T any](s []T, n int) []T {
	if s == nil {
		return []T{}
	}
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

func lofEvents(r models.LOFReport, now time.Time) []models.ScoreEvent {
	day := util.DateKey(now)
	events := make([]models.ScoreEvent, 0, len(r.Opportunities.Premium))
	for _, f := range r.Opportunities.Premium {
		events = append(events, models.ScoreEvent{
			Job:         string(drepo.JobLOF),
			Subject:     f.Code,
			Date:        day,
			Score:       f.SignalStrength,
			Value:       f.RealtimeDiscount,
			Label:       f.FundType,
			GeneratedAt: now,
		})
	}
	return events
}

func (j *LOFJob) writeBundle(r models.LOFReport, dir string) {
	b := report.Bundle{Markdown: report.LOFMarkdown(r)}
	o := r.Overview
	page := report.Page{
		Title:       "LOF 套利监控",
		GeneratedAt: r.Meta.UpdatedAt,
		Headline:    fmt.Sprintf("%d 只基金 · 平均溢价 %.2f%%", o.TotalCount, o.AvgDiscountRate),
		Notes:       []string{r.Meta.Note},
	}
	for _, f := range r.Opportunities.Premium {
		page.Rows = append(page.Rows, report.Row{
			Label:  fmt.Sprintf("%s (%s)", f.Name, f.Code),
			Value:  fmt.Sprintf("%+.2f%%", f.RealtimeDiscount),
			Status: f.SubscribeStatus,
		})
	}
	if html, err := report.RenderHTML(page); err != nil {
		j.l.Warn("lof html skipped", logger.Error(err))
	} else {
		b.HTML = html
	}
	if err := report.WriteBundle(dir, b); err != nil {
		j.l.Error("lof report bundle incomplete", logger.String("dir", dir), logger.Error(err))
	}
}
