package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xllucky21/xllucky/internal/domain/models"
	drepo "github.com/xllucky21/xllucky/internal/domain/repository"
	"github.com/xllucky21/xllucky/internal/report"
	"github.com/xllucky21/xllucky/pkg/cache"
)

type fakeScores struct {
	job     drepo.Job
	subject string
	n       int
}

func (f *fakeScores) GetScores(context.Context, drepo.Job, string, time.Time, time.Time) ([]models.ScoreEvent, error) {
	return nil, nil
}

func (f *fakeScores) GetLatestNScores(_ context.Context, job drepo.Job, subject string, n int) ([]models.ScoreEvent, error) {
	f.job, f.subject, f.n = job, subject, n
	return sampleEvents[:1], nil
}

func TestFilterFunds(t *testing.T) {
	funds := []models.LOFFund{
		{Code: "a", FundType: "A股行业", RealtimeDiscount: 2.5, ArbPath: models.ArbInToOut},
		{Code: "b", FundType: "A股行业", RealtimeDiscount: -0.2, ArbPath: models.ArbNone},
		{Code: "c", FundType: "QDII全球", RealtimeDiscount: -4.1, ArbPath: models.ArbNone},
		{Code: "d", FundType: "A股行业", RealtimeDiscount: 1.9, ArbPath: models.ArbPriceReversion},
	}
	codes := func(fs []models.LOFFund) []string {
		out := []string{}
		for _, f := range fs {
			out = append(out, f.Code)
		}
		return out
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, codes(FilterFunds(funds, models.LOFRequest{})))
	assert.Equal(t, []string{"a", "b", "d"}, codes(FilterFunds(funds, models.LOFRequest{Type: "A股行业"})))
	assert.Equal(t, []string{"a", "c"}, codes(FilterFunds(funds, models.LOFRequest{MinDiscount: 2})))
	assert.Equal(t, []string{"a", "d"}, codes(FilterFunds(funds, models.LOFRequest{OnlyArbable: true})))
	assert.Equal(t, []string{"a"}, codes(FilterFunds(funds, models.LOFRequest{Limit: 1})))
}

func TestReportsHistoryLimit(t *testing.T) {
	bonds := &memStore[models.BondReport]{list: []models.BondReport{
		{GeneratedAt: "3"}, {GeneratedAt: "2"}, {GeneratedAt: "1"},
	}}
	uc := NewReportsUseCase(testConfig(t.TempDir()), bonds, &memStore[models.DividendReport]{}, nil, nil)
	got, err := uc.BondHistory(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].GeneratedAt)

	all, err := uc.BondHistory(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestReportsScores(t *testing.T) {
	uc := NewReportsUseCase(testConfig(t.TempDir()), &memStore[models.BondReport]{}, &memStore[models.DividendReport]{}, nil, nil)
	_, err := uc.Scores(context.Background(), models.ScoresRequest{Job: "bond", Limit: 10})
	assert.ErrorIs(t, err, ErrScoresDisabled)

	fs := &fakeScores{}
	uc = NewReportsUseCase(testConfig(t.TempDir()), &memStore[models.BondReport]{}, &memStore[models.DividendReport]{}, fs, nil)
	got, err := uc.Scores(context.Background(), models.ScoresRequest{Job: "dividend", Subject: "601088", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, drepo.JobDividend, fs.job)
	assert.Equal(t, "601088", fs.subject)
	assert.Equal(t, 10, fs.n)

	_, err = uc.Scores(context.Background(), models.ScoresRequest{Job: "stocks"})
	assert.Error(t, err)
}

func TestReportsOverviewCollectsSectionErrors(t *testing.T) {
	cfg := testConfig(t.TempDir())
	bonds := &memStore[models.BondReport]{list: []models.BondReport{sampleBondReport()}}
	lof := models.LOFReport{Overview: models.LOFOverview{TotalCount: 12}}
	require.NoError(t, report.WriteTS(cfg.DataPath(cfg.LOF.TSFile), lofTSName, lof))

	c := cache.NewMemoryCache()
	uc := NewReportsUseCase(cfg, bonds, &memStore[models.DividendReport]{}, nil, c)
	o := uc.Overview(context.Background())

	require.NotNil(t, o.Bond)
	assert.Equal(t, "2024-06-28", o.Bond.LastDate)
	require.NotNil(t, o.LOF)
	assert.Equal(t, 12, o.LOF.TotalCount)
	assert.Nil(t, o.Dividend)
	assert.Nil(t, o.Summary)
	assert.Contains(t, o.Errors, "dividend")
	assert.Contains(t, o.Errors, "summary")
	assert.NotContains(t, o.Errors, "bond")
}
