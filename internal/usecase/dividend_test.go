package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xllucky21/xllucky/internal/domain/models"
	"github.com/xllucky21/xllucky/pkg/logger"
)

var testStocks = []models.StockInfo{
	{Code: "601088", Name: "中国神华", Industry: "煤炭", Type: models.IndustryCyclical},
	{Code: "600900", Name: "长江电力", Industry: "电力", Type: models.IndustryStable},
}

func newTestDividendJob(t *testing.T, data *fakeMarket, em ScoreEmitter) (*DividendJob, *memStore[models.DividendReport]) {
	t.Helper()
	store := &memStore[models.DividendReport]{}
	j := NewDividendJob(testConfig(t.TempDir()), data, store, em, newFakeMetrics(), logger.Nop())
	j.stocks = testStocks
	j.now = func() time.Time { return testNow }
	return j, store
}

func TestDividendJobFallsBackWhenSourcesFail(t *testing.T) {
	data := &fakeMarket{
		treasuryErr: errors.New("timeout"),
		closesErr:   errors.New("timeout"),
		quotesErr:   errors.New("timeout"),
	}
	em := &fakeEmitter{}
	j, store := newTestDividendJob(t, data, em)

	r, err := j.Run(context.Background(), DividendParams{})
	require.NoError(t, err)
	assert.Equal(t, 1.7, r.BondYield)
	assert.Nil(t, r.Index)
	require.Len(t, r.Stocks, 2)
	assert.Equal(t, 1, store.saves)

	// no index analysis, one event per stock
	require.Len(t, em.events, 2)
	for _, ev := range em.events {
		assert.Equal(t, "dividend", ev.Job)
		assert.Equal(t, "2024-06-28", ev.Date)
	}

	assert.Len(t, store.list, 1)
	assert.NoFileExists(t, j.cfg.DataPath(j.cfg.Dividend.TSFile))
}

func TestDividendJobUsesLatestBondYield(t *testing.T) {
	n := 800
	data := &fakeMarket{
		cn:     daily(testNow, append(constant(n-1, 2.5), 2.1)),
		closes: daily(testNow, yieldWave(n)),
		val:    models.IndexValuation{DividendYield: daily(testNow, constant(n, 5.2))},
	}
	em := &fakeEmitter{}
	j, _ := newTestDividendJob(t, data, em)

	r, err := j.Run(context.Background(), DividendParams{})
	require.NoError(t, err)
	assert.Equal(t, 2.1, r.BondYield)
	require.NotNil(t, r.Index)
	assert.Equal(t, "2024-06-28", r.Index.Conclusion.LastDate)

	require.NotEmpty(t, em.events)
	assert.Equal(t, "index", em.events[0].Subject)

	// one batched quote call for every monitored stock
	require.Len(t, data.quoteCalls, 1)
	assert.Equal(t, []string{"1.601088", "1.600900"}, data.quoteCalls[0])
}

func TestDividendJobPBFallsBackToQuote(t *testing.T) {
	pb := 0.85
	data := &fakeMarket{
		treasuryErr: errors.New("down"),
		closesErr:   errors.New("down"),
		quotes:      []models.Quote{{Code: "601088", Name: "中国神华", Price: 40.1, PB: &pb}},
	}
	j, _ := newTestDividendJob(t, data, nil)
	r, err := j.Run(context.Background(), DividendParams{})
	require.NoError(t, err)

	var found bool
	for _, s := range r.Stocks {
		if s.Code == "601088" {
			found = true
			require.NotNil(t, s.Metrics.PB)
			assert.Equal(t, 0.85, *s.Metrics.PB)
		}
	}
	assert.True(t, found)
}
