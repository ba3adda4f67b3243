package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/xllucky21/xllucky/internal/domain/models"
	drepo "github.com/xllucky21/xllucky/internal/domain/repository"
	"github.com/xllucky21/xllucky/internal/report"
	"github.com/xllucky21/xllucky/pkg/cache"
	"github.com/xllucky21/xllucky/pkg/config"
)

// ErrScoresDisabled is returned by Scores when no score store is configured.
var ErrScoresDisabled = errors.New("score history store disabled")

const lofReportTTL = time.Minute

// ReportsUseCase serves the stored reports to the HTTP API.
type ReportsUseCase struct {
	cfg       *config.Config
	bonds     drepo.SnapshotStore[models.BondReport]
	dividends drepo.SnapshotStore[models.DividendReport]
	scores    drepo.ScoreReader
	cache     cache.Service
	timeout   time.Duration
}

// NewReportsUseCase builds the query side. scores and c may be nil.
func NewReportsUseCase(
	cfg *config.Config,
	bonds drepo.SnapshotStore[models.BondReport],
	dividends drepo.SnapshotStore[models.DividendReport],
	scores drepo.ScoreReader,
	c cache.Service,
) *ReportsUseCase {
	return &ReportsUseCase{cfg: cfg, bonds: bonds, dividends: dividends, scores: scores, cache: c, timeout: 10 * time.Second}
}

// BondHistory returns up to limit snapshots, newest first.
func (uc *ReportsUseCase) BondHistory(limit int) ([]models.BondReport, error) {
	list, err := uc.bonds.Load()
	if err != nil {
		return nil, err
	}
	return head(list, limit), nil
}

func (uc *ReportsUseCase) DividendHistory(limit int) ([]models.DividendReport, error) {
	list, err := uc.dividends.Load()
	if err != nil {
		return nil, err
	}
	return head(list, limit), nil
}

// LOF returns the latest arbitrage report with AllFunds filtered by req.
// The decoded file is cached briefly since it is rewritten at most a few
// times a day.
func (uc *ReportsUseCase) LOF(ctx context.Context, req models.LOFRequest) (*models.LOFReport, error) {
	path := uc.cfg.DataPath(uc.cfg.LOF.TSFile)
	r, err := cache.Remember(ctx, uc.cache, cache.GenerateKey("api:lof", path), lofReportTTL, func(context.Context) (models.LOFReport, error) {
		var r models.LOFReport
		err := report.ReadTS(path, &r)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("read lof report: %w", err)
	}
	r.AllFunds = FilterFunds(r.AllFunds, req)
	return &r, nil
}

// FilterFunds applies the fund type, minimum absolute discount and
// arbitrage filters, then the limit.
func FilterFunds(funds []models.LOFFund, req models.LOFRequest) []models.LOFFund {
	out := make([]models.LOFFund, 0, len(funds))
	for _, f := range funds {
		if req.Type != "" && f.FundType != req.Type {
			continue
		}
		if math.Abs(f.RealtimeDiscount) < req.MinDiscount {
			continue
		}
		if req.OnlyArbable && (f.ArbPath == models.ArbNone || f.ArbPath == "") {
			continue
		}
		out = append(out, f)
	}
	return head(out, req.Limit)
}

func (uc *ReportsUseCase) Summary() (*models.Summary, error) {
	return ReadSummary(uc.cfg.DataPath(SummaryFile))
}

// Scores reads score history from the score store, oldest first.
func (uc *ReportsUseCase) Scores(ctx context.Context, req models.ScoresRequest) ([]models.ScoreEvent, error) {
	if uc.scores == nil {
		return nil, ErrScoresDisabled
	}
	job := drepo.Job(req.Job)
	if !drepo.IsValidJob(job) {
		return nil, fmt.Errorf("unknown job %q", req.Job)
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	return uc.scores.GetLatestNScores(ctx, job, req.Subject, req.Limit)
}

// Overview reads every section concurrently. Section failures are reported
// in Errors rather than failing the call.
func (uc *ReportsUseCase) Overview(ctx context.Context) *models.Overview {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	res := &models.Overview{Timestamp: time.Now(), Errors: map[string]string{}}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 4)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		r, err := uc.bonds.Latest()
		ch <- item{"bond", r, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		r, err := uc.dividends.Latest()
		ch <- item{"dividend", r, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		r, err := uc.LOF(ctx, models.LOFRequest{Limit: 1})
		ch <- item{"lof", r, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		s, err := uc.Summary()
		ch <- item{"summary", s, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			res.Errors[it.name] = it.err.Error()
			continue
		}
		switch it.name {
		case "bond":
			v := it.val.(models.BondReport)
			res.Bond = &v.Conclusion
		case "dividend":
			v := it.val.(models.DividendReport)
			if v.Index != nil {
				res.Dividend = &v.Index.Conclusion
			}
		case "lof":
			v := it.val.(*models.LOFReport)
			res.LOF = &v.Overview
		case "summary":
			res.Summary = it.val.(*models.Summary)
		}
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res
}

func head[T any](list []T, n int) []T {
	if n > 0 && len(list) > n {
		return list[:n]
	}
	return list
}
