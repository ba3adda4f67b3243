package repository

import (
	"context"
	"errors"
	"time"

	"github.com/xllucky21/xllucky/internal/domain/models"
)

// ErrNoSnapshot is returned when a history store holds no report yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// MarketData is the stock, index and rate side of the provider layer.
type MarketData interface {
	TreasuryYields(ctx context.Context, from time.Time) (cn, us models.Series, err error)
	Shibor(ctx context.Context, from time.Time) (models.Series, error)
	IndexValuation(ctx context.Context, code string) (models.IndexValuation, error)
	IndexCloses(ctx context.Context, code string, from time.Time) (models.Series, error)
	Quotes(ctx context.Context, secids []string) ([]models.Quote, error)
	StockPrices(ctx context.Context, code string, from time.Time) (models.Series, error)
	PBHistory(ctx context.Context, code string) (models.Series, error)
	Dividends(ctx context.Context, code string) ([]models.DividendRecord, error)
}

// FundData is the LOF side of the provider layer.
type FundData interface {
	FundEstimates(ctx context.Context) (map[string]models.FundEstimate, error)
	LOFQuotes(ctx context.Context) ([]models.FundQuote, error)
	SubscribeStatuses(ctx context.Context) (map[string]models.SubscribeStatus, error)
	NAVHistory(ctx context.Context, code string, n int) ([]models.NAVPoint, error)
	PriceHistory(ctx context.Context, code string, n int) ([]models.PricePoint, error)
}

// SnapshotStore keeps the report history of one job, newest first.
type SnapshotStore[T any] interface {
	Load() ([]T, error)
	Save(ctx context.Context, snapshot T) ([]T, error)
	Latest() (T, error)
}

// ScoreSink stores score events for later querying.
type ScoreSink interface {
	Init(ctx context.Context) error
	WriteScores(ctx context.Context, events []models.ScoreEvent) error
	Health(ctx context.Context) error
	Close() error
}

// Publisher fans score events out to subscribers.
type Publisher interface {
	PublishScores(ctx context.Context, events []models.ScoreEvent) error
	Close() error
}

// FingerprintStore remembers the last pushed content per flow.
type FingerprintStore interface {
	Load(ctx context.Context, flow string) (string, error)
	Save(ctx context.Context, flow, fingerprint string) error
}

type Metrics interface {
	RecordSourceFetch(source string, ok bool, seconds float64)
	RecordJob(job, status string, seconds float64)
	RecordScore(job, subject string, score float64)
	RecordWebhook(flow, status string)
	RecordEventSent(sink string)
	RecordEventDropped(reason string)
}
