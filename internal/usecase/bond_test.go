package usecase

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xllucky21/xllucky/internal/domain/models"
	drepo "github.com/xllucky21/xllucky/internal/domain/repository"
	"github.com/xllucky21/xllucky/internal/report"
	"github.com/xllucky21/xllucky/internal/service/sources"
	"github.com/xllucky21/xllucky/internal/services/analytics"
	"github.com/xllucky21/xllucky/pkg/logger"
)

func yieldWave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 2.8 + 0.4*math.Sin(float64(i)/45) + 0.05*math.Sin(float64(i)/3)
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func bondMarket(n int) *fakeMarket {
	return &fakeMarket{
		cn:     daily(testNow, yieldWave(n)),
		us:     daily(testNow, constant(n, 4.2)),
		shibor: daily(testNow, constant(n, 1.6)),
		val:    models.IndexValuation{PE: daily(testNow, constant(n, 12))},
	}
}

func newTestBondJob(t *testing.T, data drepo.MarketData, store drepo.SnapshotStore[models.BondReport], em ScoreEmitter) (*BondJob, *fakeMetrics) {
	t.Helper()
	m := newFakeMetrics()
	j := NewBondJob(testConfig(t.TempDir()), data, store, em, m, logger.Nop())
	j.now = func() time.Time { return testNow }
	return j, m
}

func TestBondJobCriticalSourceWritesNothing(t *testing.T) {
	data := &fakeMarket{treasuryErr: errors.New("connection reset")}
	store := &memStore[models.BondReport]{}
	em := &fakeEmitter{}
	j, m := newTestBondJob(t, data, store, em)
	out := t.TempDir()

	r, err := j.Run(context.Background(), BondParams{Mode: ModeFull, OutDir: out})
	require.Error(t, err)
	assert.Nil(t, r)
	assert.True(t, errors.Is(err, sources.ErrCritical))
	assert.Equal(t, 0, store.saves)
	assert.Empty(t, em.events)
	assert.Equal(t, "error", m.jobs["bond"])

	_, statErr := os.Stat(j.cfg.DataPath(j.cfg.Bond.TSFile))
	assert.True(t, os.IsNotExist(statErr))
	entries, _ := os.ReadDir(out)
	assert.Empty(t, entries)
}

func TestBondJobEmptyYieldIsCritical(t *testing.T) {
	j, _ := newTestBondJob(t, &fakeMarket{}, &memStore[models.BondReport]{}, nil)
	_, err := j.Run(context.Background(), BondParams{})
	assert.ErrorIs(t, err, sources.ErrCritical)
}

func TestBondJobFullRun(t *testing.T) {
	data := bondMarket(700)
	store := &memStore[models.BondReport]{}
	em := &fakeEmitter{}
	j, m := newTestBondJob(t, data, store, em)

	r, err := j.Run(context.Background(), BondParams{Mode: ModeFull})
	require.NoError(t, err)
	require.NotNil(t, r)

	c := r.Conclusion
	assert.Equal(t, "2024-06-28", c.LastDate)
	assert.GreaterOrEqual(t, c.Score, 0.0)
	assert.LessOrEqual(t, c.Score, 100.0)
	assert.Equal(t, "4.20%", c.USYield)
	require.NotNil(t, r.Raw)
	assert.Len(t, r.Raw.Bond10Y, 700)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "ok", m.jobs["bond"])

	require.Len(t, em.events, 1)
	ev := em.events[0]
	assert.Equal(t, "bond", ev.Job)
	assert.Equal(t, bondSubject, ev.Subject)
	assert.Equal(t, c.LastDate, ev.Date)
	assert.Equal(t, c.Weather, ev.Label)

	// the store owns the history file
	require.Len(t, store.list, 1)
	assert.Equal(t, c.LastDate, store.list[0].Conclusion.LastDate)
	assert.NoFileExists(t, j.cfg.DataPath(j.cfg.Bond.TSFile))

	// the fetch window spans the configured valuation years
	require.Len(t, data.treasuryFrom, 1)
	assert.Equal(t, testNow.Year()-j.cfg.Bond.Years, data.treasuryFrom[0].Year())
}

func TestBondJobIncrementalMergesStoredSeries(t *testing.T) {
	full := bondMarket(700)
	stored := &memStore[models.BondReport]{}

	// seed the store with a full run ending 10 days earlier
	seedData := bondMarket(700)
	cut := testNow.AddDate(0, 0, -10)
	seedData.cn = seedData.cn[:len(seedData.cn)-len(seedData.cn.Since(cut))]
	seed, _ := newTestBondJob(t, seedData, stored, nil)
	_, err := seed.Run(context.Background(), BondParams{Mode: ModeFull})
	require.NoError(t, err)
	before := len(stored.list[0].Raw.Bond10Y)

	// the incremental run only sees the window, with a revised last value
	full.cn[len(full.cn)-1].Value = 3.33
	j, _ := newTestBondJob(t, full, stored, nil)
	r, err := j.Run(context.Background(), BondParams{Mode: ModeIncremental, Days: 30})
	require.NoError(t, err)

	require.Len(t, full.treasuryFrom, 1)
	assert.Equal(t, testNow.AddDate(0, 0, -30).Format("2006-01-02"), full.treasuryFrom[0].Format("2006-01-02"))

	merged := models.SeriesFromRecords(r.Raw.Bond10Y, analytics.ColYield)
	assert.Greater(t, len(merged), before)
	assert.Len(t, merged, 700)
	last, ok := merged.Last()
	require.True(t, ok)
	assert.Equal(t, 3.33, last.Value)
	assert.InDelta(t, 3.33, r.Conclusion.LastYield, 1e-9)
	for i := 1; i < len(merged); i++ {
		assert.True(t, merged[i-1].Date.Before(merged[i].Date))
	}
}

func TestBondJobIncrementalWithoutHistoryRunsFull(t *testing.T) {
	data := bondMarket(400)
	j, _ := newTestBondJob(t, data, &memStore[models.BondReport]{}, nil)
	_, err := j.Run(context.Background(), BondParams{Mode: ModeIncremental})
	require.NoError(t, err)
	require.Len(t, data.treasuryFrom, 1)
	assert.Equal(t, testNow.Year()-10, data.treasuryFrom[0].Year())
}

func TestBondJobEmitterFailureDoesNotFailRun(t *testing.T) {
	em := &fakeEmitter{err: errors.New("broker down")}
	j, _ := newTestBondJob(t, bondMarket(400), &memStore[models.BondReport]{}, em)
	_, err := j.Run(context.Background(), BondParams{})
	assert.NoError(t, err)
	assert.Len(t, em.events, 1)
}

func TestBondJobWritesBundle(t *testing.T) {
	j, _ := newTestBondJob(t, bondMarket(700), &memStore[models.BondReport]{}, nil)
	out := t.TempDir()
	_, err := j.Run(context.Background(), BondParams{OutDir: out})
	require.NoError(t, err)

	dir := filepath.Join(out, "Report_"+testNow.Format(reportDirLayout))
	for _, name := range []string{report.MarkdownFile, report.HTMLFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}
