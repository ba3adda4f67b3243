package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/xllucky21/xllucky/internal/domain/models"
	drepo "github.com/xllucky21/xllucky/internal/domain/repository"
	"github.com/xllucky21/xllucky/pkg/config"
	"github.com/xllucky21/xllucky/pkg/logger"
	"github.com/xllucky21/xllucky/pkg/util"
)

// SummaryFile is written under the data directory.
const SummaryFile = "summary.json"

const (
	secidSH     = "1.000001"
	secidSZ     = "0.399001"
	secidNasdaq = "100.NDX"
	secidSPX    = "100.SPX"
	secidVIX    = "100.VIX"
)

type megaCap struct {
	secid, code, name string
}

var mag7 = []megaCap{
	{"105.AAPL", "AAPL", "苹果"},
	{"105.MSFT", "MSFT", "微软"},
	{"105.NVDA", "NVDA", "英伟达"},
	{"105.GOOGL", "GOOGL", "谷歌"},
	{"105.AMZN", "AMZN", "亚马逊"},
	{"105.META", "META", "Meta"},
	{"105.TSLA", "TSLA", "特斯拉"},
}

// SummaryBuilder condenses the newest stored reports, plus live index
// quotes when a market source is set, into the notifier digest.
type SummaryBuilder struct {
	cfg       *config.Config
	bonds     drepo.SnapshotStore[models.BondReport]
	dividends drepo.SnapshotStore[models.DividendReport]
	market    drepo.MarketData
	l         *logger.Logger
	now       func() time.Time
}

// NewSummaryBuilder builds a SummaryBuilder. market may be nil, which omits
// the A-share and US sections.
func NewSummaryBuilder(
	cfg *config.Config,
	bonds drepo.SnapshotStore[models.BondReport],
	dividends drepo.SnapshotStore[models.DividendReport],
	market drepo.MarketData,
	l *logger.Logger,
) *SummaryBuilder {
	return &SummaryBuilder{cfg: cfg, bonds: bonds, dividends: dividends, market: market, l: l, now: time.Now}
}

// Path is where Run writes the digest.
func (b *SummaryBuilder) Path() string { return b.cfg.DataPath(SummaryFile) }

// Run builds the digest and replaces summary.json.
func (b *SummaryBuilder) Run(ctx context.Context) (*models.Summary, error) {
	s, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}
	if err := util.WriteFileAtomic(b.Path(), data); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}
	b.l.Info("summary written", logger.String("path", b.Path()))
	return s, nil
}

func (b *SummaryBuilder) Build(ctx context.Context) (*models.Summary, error) {
	s := &models.Summary{GeneratedAt: b.now().Format("2006-01-02 15:04")}

	var bond *models.BondReport
	if r, err := b.bonds.Latest(); err == nil {
		bond = &r
		s.Bond = BondSummaryOf(r)
	} else if !errors.Is(err, drepo.ErrNoSnapshot) {
		b.l.Warn("bond history unreadable", logger.Error(err))
	}
	if r, err := b.dividends.Latest(); err == nil {
		s.Dividend = DividendSummaryOf(r)
	} else if !errors.Is(err, drepo.ErrNoSnapshot) {
		b.l.Warn("dividend history unreadable", logger.Error(err))
	}

	if b.market != nil {
		if err := b.addMarkets(ctx, s, bond); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			b.l.Warn("market quotes unavailable, summary without market sections", logger.Error(err))
		}
	}
	return s, nil
}

func (b *SummaryBuilder) addMarkets(ctx context.Context, s *models.Summary, bond *models.BondReport) error {
	secids := []string{secidSH, secidSZ, secidNasdaq, secidSPX, secidVIX}
	for _, m := range mag7 {
		secids = append(secids, m.secid)
	}
	quotes, err := b.market.Quotes(ctx, secids)
	if err != nil {
		return err
	}
	bySecid := make(map[string]models.Quote, len(quotes))
	for _, q := range quotes {
		bySecid[q.Code] = q
	}
	code := func(secid string) string { return secid[strings.IndexByte(secid, '.')+1:] }

	sh, okSH := bySecid[code(secidSH)]
	sz, okSZ := bySecid[code(secidSZ)]
	if okSH && okSZ {
		s.Stocks = StocksSummaryOf(sh, sz)
	}

	us := &models.USSummary{}
	p := message.NewPrinter(language.English)
	if q, ok := bySecid[code(secidNasdaq)]; ok {
		us.Nasdaq = p.Sprintf("%.0f", q.Price)
		us.NasdaqChange, us.NasdaqChangeClass = signedPct(q.ChangePct, 2)
	}
	if q, ok := bySecid[code(secidSPX)]; ok {
		us.SPX = p.Sprintf("%.0f", q.Price)
		us.SPXChange, us.SPXChangeClass = signedPct(q.ChangePct, 2)
	}
	if q, ok := bySecid[code(secidVIX)]; ok {
		us.VIX = fmt.Sprintf("%.1f", q.Price)
		switch {
		case q.Price >= vixAlert:
			us.VIXClass = "up"
		case q.Price >= 20:
			us.VIXClass = "neutral"
		default:
			us.VIXClass = "down"
		}
	}
	if bond != nil && bond.Conclusion.USYield != "N/A" {
		us.Bond10Y = bond.Conclusion.USYield
	}
	for _, m := range mag7 {
		if q, ok := bySecid[m.code]; ok {
			change, class := signedPct(q.ChangePct, 1)
			us.Mag7 = append(us.Mag7, models.StarChange{Name: m.name, Change: change, ChangeClass: class})
		}
	}
	if us.Nasdaq != "" || us.SPX != "" || us.VIX != "" || len(us.Mag7) > 0 {
		s.USStocks = us
	}
	return nil
}

// StocksSummaryOf renders the A-share section from the two main indices.
// Amount is summed across both exchanges.
func StocksSummaryOf(sh, sz models.Quote) *models.StocksSummary {
	out := &models.StocksSummary{
		SHIndex: fmt.Sprintf("%.0f", sh.Price),
		SZIndex: fmt.Sprintf("%.0f", sz.Price),
	}
	out.SHChange, out.SHChangeClass = signedPct(sh.ChangePct, 2)
	out.SZChange, out.SZChangeClass = signedPct(sz.ChangePct, 2)

	yi := (sh.Amount + sz.Amount) / 1e8
	if yi >= 10000 {
		out.Volume = fmt.Sprintf("%.2f万亿", yi/10000)
	} else {
		out.Volume = fmt.Sprintf("%.0f亿", yi)
	}

	switch {
	case out.SHChangeClass == "up" && out.SZChangeClass == "up":
		out.Sentiment, out.SentimentClass = "偏多", "up"
	case out.SHChangeClass == "down" && out.SZChangeClass == "down":
		out.Sentiment, out.SentimentClass = "偏空", "down"
	default:
		out.Sentiment, out.SentimentClass = "震荡", "neutral"
	}
	return out
}

// BondSummaryOf condenses the bond conclusion.
func BondSummaryOf(r models.BondReport) *models.BondSummary {
	c := r.Conclusion
	return &models.BondSummary{
		Score:       util.Round(c.Score, 1),
		Weather:     c.Weather,
		WeatherIcon: weatherIcon(c.Weather),
		Yield:       fmt.Sprintf("%.2f%%", c.LastYield),
		Percentile:  fmt.Sprintf("%.1f", c.Percentile),
		Valuation:   stripMarks(c.ValStatus, "🔴 ", "🟢 ", "🟡 "),
		Trend:       stripMarks(c.TrendStatus, "🔴 ", "🟢 "),
		Suggestion:  shortSuggestion(c.SuggestionCon),
		Date:        c.LastDate,
	}
}

// DividendSummaryOf condenses the index conclusion and the five best
// stocks with a known yield. It returns nil without an index analysis.
func DividendSummaryOf(r models.DividendReport) *models.DividendSummary {
	if r.Index == nil {
		return nil
	}
	c := r.Index.Conclusion
	signal := string(c.Signal)
	switch c.Signal {
	case models.SignalBuy, models.SignalSell, models.SignalHold:
	default:
		signal = string(models.SignalHold)
	}
	out := &models.DividendSummary{
		Score:         util.Round(c.Score, 1),
		Weather:       c.Weather,
		WeatherIcon:   weatherIcon(c.Weather),
		Signal:        signal,
		DividendYield: "--",
		Spread:        "--",
		Suggestion:    shortSuggestion(c.SuggestionCon),
		TopStocks:     []models.TopStock{},
		Date:          c.LastDate,
	}
	if c.DividendYield != nil {
		out.DividendYield = fmt.Sprintf("%.2f%%", *c.DividendYield)
	}
	if c.Spread != nil {
		out.Spread = fmt.Sprintf("%.2f%%", *c.Spread)
	}
	if c.RSI != nil {
		out.RSI = util.Round(*c.RSI, 1)
	}
	for _, s := range r.Stocks {
		if len(out.TopStocks) == 5 {
			break
		}
		if s.Metrics.DividendYield == nil {
			continue
		}
		out.TopStocks = append(out.TopStocks, models.TopStock{
			Code:  s.Code,
			Name:  s.Name,
			Score: util.Round(s.TotalScore, 1),
			Yield: fmt.Sprintf("%.2f%%", *s.Metrics.DividendYield),
		})
	}
	return out
}

// ReadSummary loads a digest written by SummaryBuilder.Run.
func ReadSummary(path string) (*models.Summary, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s models.Summary
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &s, nil
}

func weatherIcon(w string) string {
	switch {
	case strings.Contains(w, "大雨"), strings.Contains(w, "暴雨"),
		strings.Contains(w, "小雨"), strings.Contains(w, "阴"):
		return "🌧️"
	case strings.Contains(w, "多云"):
		return "⛅"
	default:
		return "☀️"
	}
}

func stripMarks(s string, marks ...string) string {
	for _, m := range marks {
		s = strings.ReplaceAll(s, m, "")
	}
	return s
}

func shortSuggestion(s string) string {
	s = strings.ReplaceAll(s, "【", "")
	s = strings.ReplaceAll(s, "】", " - ")
	if r := []rune(s); len(r) > 100 {
		return string(r[:100])
	}
	return s
}

// signedPct renders a change as "+1.23%" with its up/down class.
func signedPct(v float64, decimals int) (string, string) {
	if v >= 0 {
		return fmt.Sprintf("+%.*f%%", decimals, v), "up"
	}
	return fmt.Sprintf("%.*f%%", decimals, v), "down"
}
