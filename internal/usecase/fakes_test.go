package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/xllucky21/xllucky/internal/domain/models"
	drepo "github.com/xllucky21/xllucky/internal/domain/repository"
	"github.com/xllucky21/xllucky/pkg/config"
)

var testNow = time.Date(2024, 6, 28, 15, 30, 0, 0, time.UTC)

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.DataDir = dir
	cfg.CacheDir = dir
	return cfg
}

// daily builds a business-day series ending at end.
func daily(end time.Time, vals []float64) models.Series {
	out := make(models.Series, 0, len(vals))
	d := end
	for i := len(vals) - 1; i >= 0; i-- {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, -1)
		}
		out = append(out, models.Point{Date: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), Value: vals[i]})
		d = d.AddDate(0, 0, -1)
	}
	return out.Normalize()
}

type fakeMarket struct {
	mu sync.Mutex

	cn, us       models.Series
	treasuryErr  error
	treasuryFrom []time.Time
	shibor       models.Series
	val          models.IndexValuation
	valErr       error
	closes       models.Series
	closesErr    error
	quotes       []models.Quote
	quotesErr    error
	quoteCalls   [][]string
}

func (f *fakeMarket) TreasuryYields(_ context.Context, from time.Time) (models.Series, models.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.treasuryFrom = append(f.treasuryFrom, from)
	if f.treasuryErr != nil {
		return nil, nil, f.treasuryErr
	}
	return f.cn.Since(from), f.us.Since(from), nil
}

func (f *fakeMarket) Shibor(_ context.Context, from time.Time) (models.Series, error) {
	return f.shibor.Since(from), nil
}

func (f *fakeMarket) IndexValuation(context.Context, string) (models.IndexValuation, error) {
	return f.val, f.valErr
}

func (f *fakeMarket) IndexCloses(_ context.Context, _ string, from time.Time) (models.Series, error) {
	if f.closesErr != nil {
		return nil, f.closesErr
	}
	return f.closes.Since(from), nil
}

func (f *fakeMarket) Quotes(_ context.Context, secids []string) ([]models.Quote, error) {
	f.mu.Lock()
	f.quoteCalls = append(f.quoteCalls, secids)
	f.mu.Unlock()
	return f.quotes, f.quotesErr
}

func (f *fakeMarket) StockPrices(context.Context, string, time.Time) (models.Series, error) {
	return nil, nil
}

func (f *fakeMarket) PBHistory(context.Context, string) (models.Series, error) { return nil, nil }

func (f *fakeMarket) Dividends(context.Context, string) ([]models.DividendRecord, error) {
	return nil, nil
}

type fakeFunds struct {
	ests       map[string]models.FundEstimate
	estErr     error
	quotes     []models.FundQuote
	quotesErr  error
	statuses   map[string]models.SubscribeStatus
	statusErr  error
	navs       map[string][]models.NAVPoint
	navLookups []string
	prices     map[string][]models.PricePoint
}

func (f *fakeFunds) FundEstimates(context.Context) (map[string]models.FundEstimate, error) {
	return f.ests, f.estErr
}

func (f *fakeFunds) LOFQuotes(context.Context) ([]models.FundQuote, error) {
	return f.quotes, f.quotesErr
}

func (f *fakeFunds) SubscribeStatuses(context.Context) (map[string]models.SubscribeStatus, error) {
	return f.statuses, f.statusErr
}

func (f *fakeFunds) NAVHistory(_ context.Context, code string, _ int) ([]models.NAVPoint, error) {
	f.navLookups = append(f.navLookups, code)
	return f.navs[code], nil
}

func (f *fakeFunds) PriceHistory(_ context.Context, code string, _ int) ([]models.PricePoint, error) {
	return f.prices[code], nil
}

type memStore[T any] struct {
	list    []T
	saveErr error
	saves   int
}

func (s *memStore[T]) Load() ([]T, error) { return s.list, nil }

func (s *memStore[T]) Save(_ context.Context, v T) ([]T, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.saves++
	s.list = append([]T{v}, s.list...)
	return s.list, nil
}

func (s *memStore[T]) Latest() (T, error) {
	var zero T
	if len(s.list) == 0 {
		return zero, drepo.ErrNoSnapshot
	}
	return s.list[0], nil
}

type fakeEmitter struct {
	events []models.ScoreEvent
	err    error
}

func (e *fakeEmitter) Process(_ context.Context, events []models.ScoreEvent) error {
	e.events = append(e.events, events...)
	return e.err
}

type sentMessage struct {
	url, content string
}

type fakeNotifier struct {
	sent []sentMessage
	err  error
}

func (n *fakeNotifier) SendMarkdown(_ context.Context, url, content string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{url, content})
	return nil
}

type memFingerprints map[string]string

func (m memFingerprints) Load(_ context.Context, flow string) (string, error) { return m[flow], nil }

func (m memFingerprints) Save(_ context.Context, flow, fp string) error {
	m[flow] = fp
	return nil
}

type fakeMetrics struct {
	mu       sync.Mutex
	jobs     map[string]string
	webhooks map[string]string
	scores   int
	sent     map[string]int
	dropped  map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		jobs:     map[string]string{},
		webhooks: map[string]string{},
		sent:     map[string]int{},
		dropped:  map[string]int{},
	}
}

func (m *fakeMetrics) RecordSourceFetch(string, bool, float64) {}

func (m *fakeMetrics) RecordJob(job, status string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job] = status
}

func (m *fakeMetrics) RecordScore(string, string, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores++
}

func (m *fakeMetrics) RecordWebhook(flow, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.webhooks[flow] = status
}

func (m *fakeMetrics) RecordEventSent(sink string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[sink]++
}

func (m *fakeMetrics) RecordEventDropped(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped[reason]++
}
