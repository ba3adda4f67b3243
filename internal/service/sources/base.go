// Package sources adapts market-data providers into canonical series.
package sources

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/xllucky21/xllucky/internal/domain/repository"
	"github.com/xllucky21/xllucky/pkg/config"
	xhttp "github.com/xllucky21/xllucky/pkg/http"
	"github.com/xllucky21/xllucky/pkg/logger"
	"github.com/xllucky21/xllucky/pkg/util"
)

// ErrCritical marks a failure of a source a job cannot run without.
var ErrCritical = errors.New("critical source unavailable")

// Critical wraps err so that errors.Is(err, ErrCritical) holds.
func Critical(source string, err error) error {
	return fmt.Errorf("%s: %w: %w", source, ErrCritical, err)
}

// URLs are the provider endpoints.
type URLs struct {
	DataCenter   string
	Kline        string
	Quote        string
	List         string
	CSIndex      string
	FundEstimate string
	FundNAV      string
	FundPurchase string
	SinaDividend string
	FundReferer  string
}

// URLsFromConfig copies the endpoints out of the sources section.
func URLsFromConfig(cfg *config.Config) URLs {
	s := cfg.Sources
	return URLs{
		DataCenter:   s.DataCenterURL,
		Kline:        s.KlineURL,
		Quote:        s.QuoteURL,
		List:         s.ListURL,
		CSIndex:      s.CSIndexURL,
		FundEstimate: s.FundEstimateURL,
		FundNAV:      s.FundNAVURL,
		FundPurchase: s.FundPurchaseURL,
		SinaDividend: s.SinaDividendURL,
		FundReferer:  s.FundReferer,
	}
}

// Client implements MarketData and FundData on top of one scoped HTTP
// client, so pacing is shared by every provider call of a run.
type Client struct {
	client  *xhttp.Client
	urls    URLs
	metrics repository.Metrics
	l       *logger.Logger
}

var (
	_ repository.MarketData = (*Client)(nil)
	_ repository.FundData   = (*Client)(nil)
)

// NewHTTPClient builds the scoped HTTP client from config.
func NewHTTPClient(cfg *config.Config) *xhttp.Client {
	h := cfg.HTTP
	return xhttp.NewClient(
		xhttp.WithTimeout(h.Timeout),
		xhttp.WithHeader("User-Agent", h.UserAgent),
		xhttp.WithHeader("Referer", h.Referer),
		xhttp.WithHeader("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8"),
		xhttp.WithInsecureTLS(h.InsecureTLS),
		xhttp.WithPacing(h.RequestGap, h.Jitter),
		xhttp.WithRetry(h.Retries, h.RetryBackoff),
	)
}

// NewClient creates the provider client. metrics and l may be nil.
func NewClient(client *xhttp.Client, urls URLs, metrics repository.Metrics, l *logger.Logger) *Client {
	if l == nil {
		l = logger.Nop()
	}
	return &Client{client: client, urls: urls, metrics: metrics, l: l}
}

// get fetches url and returns the raw body.
func (c *Client) get(ctx context.Context, source, url string, query map[string]string, headers map[string]string) ([]byte, error) {
	if c.client == nil || url == "" {
		return nil, fmt.Errorf("%s: client not initialized", source)
	}
	params := make(map[string][]string, len(query))
	for k, v := range query {
		params[k] = []string{v}
	}

	start := time.Now()
	var body []byte
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         url,
		Headers:     headers,
		QueryParams: params,
	}, &body)
	elapsed := time.Since(start)
	if c.metrics != nil {
		c.metrics.RecordSourceFetch(source, err == nil, elapsed.Seconds())
	}
	if err != nil {
		c.l.Debug("source fetch failed",
			logger.String("source", source),
			logger.Duration("elapsed", elapsed),
			logger.Error(err),
		)
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	c.l.Debug("source fetch ok",
		logger.String("source", source),
		logger.Int("bytes", len(body)),
		logger.Duration("elapsed", elapsed),
	)
	return body, nil
}

// getJSON fetches url and parses the body with gjson.
func (c *Client) getJSON(ctx context.Context, source, url string, query map[string]string, headers map[string]string) (gjson.Result, error) {
	body, err := c.get(ctx, source, url, query, headers)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%s: response is not valid json", source)
	}
	return gjson.ParseBytes(body), nil
}

// num reads a provider cell that may be a number, a numeric string or a
// placeholder such as "-". Missing cells give NaN.
func num(r gjson.Result) float64 {
	switch r.Type {
	case gjson.Number:
		return r.Float()
	case gjson.String:
		return util.ParseFloat(r.Str)
	}
	return math.NaN()
}

// optional returns nil for NaN.
func optional(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func orZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func itoa(n int) string { return strconv.Itoa(n) }
