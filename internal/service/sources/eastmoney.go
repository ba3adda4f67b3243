package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/xllucky21/xllucky/internal/domain/models"
	"github.com/xllucky21/xllucky/pkg/util"
)

// datacenter report names and columns
const (
	reportTreasury  = "RPTA_WEB_TREASURYYIELD"
	reportRate      = "RPTA_WEB_RATE"
	reportValuation = "RPT_VALUEANALYSIS_DET"

	colTreasuryDate = "SOLAR_DATE"
	colCN10Y        = "EMM00166469"
	colUS10Y        = "EMG00001310"

	dataCenterPageSize = 500
	listPageSize       = 500
)

// Shibor overnight headers seen across providers. When none matches, the
// second column holds the overnight rate.
var shiborColumns = []string{"隔夜", "ON", "O/N", "1D", "Day"}

// kline fields2: f51 date, f52 open, f53 close, f54 high, f55 low, f56 volume, f57 amount
const klineFields = "f51,f52,f53,f54,f55,f56,f57"

// dataCenter pages through a datacenter report, newest rows first. maxPages
// of zero reads every page. An empty report is an empty table, not an error.
func (c *Client) dataCenter(ctx context.Context, source, report string, columns []string, filter string, sortCol string, maxPages int) (*RawTable, error) {
	t := &RawTable{Headers: columns}
	for page := 1; maxPages <= 0 || page <= maxPages; page++ {
		res, err := c.getJSON(ctx, source, c.urls.DataCenter, map[string]string{
			"reportName":  report,
			"columns":     strings.Join(columns, ","),
			"filter":      filter,
			"sortColumns": sortCol,
			"sortTypes":   "-1",
			"pageNumber":  itoa(page),
			"pageSize":    itoa(dataCenterPageSize),
			"source":      "WEB",
			"client":      "WEB",
		}, nil)
		if err != nil {
			return nil, err
		}
		if !res.Get("success").Bool() {
			if page == 1 && res.Get("code").Int() != 9201 {
				return nil, fmt.Errorf("%s: datacenter %s: %s", source, report, res.Get("message").String())
			}
			break
		}
		rows := res.Get("result.data").Array()
		for _, r := range rows {
			row := make([]string, len(columns))
			for i, col := range columns {
				row[i] = r.Get(col).String()
			}
			t.Rows = append(t.Rows, row)
		}
		if len(rows) == 0 || page >= int(res.Get("result.pages").Int()) {
			break
		}
	}
	return t, nil
}

// TreasuryYields returns the China and US 10-year government bond yields.
func (c *Client) TreasuryYields(ctx context.Context, from time.Time) (models.Series, models.Series, error) {
	t, err := c.dataCenter(ctx, "treasury", reportTreasury,
		[]string{colTreasuryDate, colCN10Y, colUS10Y},
		fmt.Sprintf("(SOLAR_DATE>='%s')", util.DateKey(from)), colTreasuryDate, 0)
	if err != nil {
		return nil, nil, err
	}
	date := t.Column(colTreasuryDate, "日期")
	cn := t.Series(date, t.Column(colCN10Y, "中国国债收益率10年"))
	us := t.Series(date, t.Column(colUS10Y, "美国国债收益率10年"))
	if len(cn) == 0 {
		return nil, nil, fmt.Errorf("treasury: no 10y yield rows since %s", util.DateKey(from))
	}
	return cn, us, nil
}

// Shibor returns the overnight Shibor rate.
func (c *Client) Shibor(ctx context.Context, from time.Time) (models.Series, error) {
	t, err := c.dataCenter(ctx, "shibor", reportRate,
		[]string{"REPORT_DATE", "IR_RATE"},
		fmt.Sprintf(`(MARKET_CODE="001")(CURRENCY_CODE="CNY")(INDICATOR_ID="001")(REPORT_DATE>='%s')`, util.DateKey(from)),
		"REPORT_DATE", 0)
	if err != nil {
		return nil, err
	}
	return t.Series(t.ColumnOr(0, "REPORT_DATE", "日期"), t.ColumnOr(1, shiborColumns...)), nil
}

// PBHistory returns the daily price-to-book ratio of a stock, about six
// years deep.
func (c *Client) PBHistory(ctx context.Context, code string) (models.Series, error) {
	t, err := c.dataCenter(ctx, "pb_history", reportValuation,
		[]string{"TRADE_DATE", "PB_MRQ"},
		fmt.Sprintf(`(SECURITY_CODE="%s")`, code), "TRADE_DATE", 3)
	if err != nil {
		return nil, err
	}
	return t.Series(0, 1), nil
}

// StockSecID maps a six-digit code to the exchange-qualified id. Shanghai
// listings (6xx stocks, 5xx funds, 9xx B shares) are market 1.
func StockSecID(code string) string {
	if strings.Contains(code, ".") {
		return code
	}
	switch {
	case strings.HasPrefix(code, "6"), strings.HasPrefix(code, "5"), strings.HasPrefix(code, "9"):
		return "1." + code
	}
	return "0." + code
}

// IndexSecID maps an index code. Shenzhen indices start with 399.
func IndexSecID(code string) string {
	if strings.Contains(code, ".") {
		return code
	}
	if strings.HasPrefix(code, "399") {
		return "0." + code
	}
	return "1." + code
}

// kline returns daily bars. fqt 0 is unadjusted, 1 forward-adjusted. A
// positive limit keeps only the newest bars.
func (c *Client) kline(ctx context.Context, source, secid string, fqt int, from time.Time, limit int) ([]models.Bar, error) {
	q := map[string]string{
		"secid":   secid,
		"fields1": "f1,f2,f3,f4,f5,f6",
		"fields2": klineFields,
		"klt":     "101",
		"fqt":     itoa(fqt),
		"beg":     "0",
		"end":     "20500101",
	}
	if !from.IsZero() {
		q["beg"] = from.Format("20060102")
	}
	if limit > 0 {
		q["lmt"] = itoa(limit)
	}
	res, err := c.getJSON(ctx, source, c.urls.Kline, q, nil)
	if err != nil {
		return nil, err
	}
	lines := res.Get("data.klines").Array()
	out := make([]models.Bar, 0, len(lines))
	for _, l := range lines {
		if bar, ok := parseKline(l.String()); ok {
			out = append(out, bar)
		}
	}
	return out, nil
}

func parseKline(line string) (models.Bar, bool) {
	f := strings.Split(line, ",")
	if len(f) < 7 {
		return models.Bar{}, false
	}
	d, ok := util.ParseDate(f[0])
	if !ok {
		return models.Bar{}, false
	}
	return models.Bar{
		Date:   d,
		Open:   util.ParseFloat(f[1]),
		Close:  util.ParseFloat(f[2]),
		High:   util.ParseFloat(f[3]),
		Low:    util.ParseFloat(f[4]),
		Volume: util.ParseFloat(f[5]),
		Amount: util.ParseFloat(f[6]),
	}, true
}

func closes(bars []models.Bar) models.Series {
	out := make(models.Series, 0, len(bars))
	for _, b := range bars {
		out = append(out, models.Point{Date: b.Date, Value: b.Close})
	}
	return out.Normalize()
}

// IndexCloses returns the daily closes of an index.
func (c *Client) IndexCloses(ctx context.Context, code string, from time.Time) (models.Series, error) {
	bars, err := c.kline(ctx, "index_kline", IndexSecID(code), 0, from, 0)
	if err != nil {
		return nil, err
	}
	return closes(bars), nil
}

// StockPrices returns forward-adjusted daily closes of a stock.
func (c *Client) StockPrices(ctx context.Context, code string, from time.Time) (models.Series, error) {
	bars, err := c.kline(ctx, "stock_kline", StockSecID(code), 1, from, 0)
	if err != nil {
		return nil, err
	}
	return closes(bars), nil
}

// PriceHistory returns the newest n unadjusted bars of an exchange-listed fund.
func (c *Client) PriceHistory(ctx context.Context, code string, n int) ([]models.PricePoint, error) {
	bars, err := c.kline(ctx, "fund_kline", StockSecID(code), 0, time.Time{}, n)
	if err != nil {
		return nil, err
	}
	out := make([]models.PricePoint, 0, len(bars))
	for _, b := range bars {
		out = append(out, models.PricePoint{Date: util.DateKey(b.Date), Close: b.Close, Volume: int64(b.Volume)})
	}
	return out, nil
}

// Quotes returns realtime snapshots for the given exchange-qualified ids.
// ulist with fltt=2 reports plain decimals.
func (c *Client) Quotes(ctx context.Context, secids []string) ([]models.Quote, error) {
	if len(secids) == 0 {
		return nil, nil
	}
	res, err := c.getJSON(ctx, "quotes", c.urls.Quote, map[string]string{
		"fltt":   "2",
		"invt":   "2",
		"secids": strings.Join(secids, ","),
		"fields": "f2,f3,f6,f12,f13,f14,f18,f23",
	}, nil)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var out []models.Quote
	res.Get("data.diff").ForEach(func(_, r gjson.Result) bool {
		q := models.Quote{
			Code:      r.Get("f12").String(),
			Name:      r.Get("f14").String(),
			Price:     num(r.Get("f2")),
			ChangePct: num(r.Get("f3")),
			PrevClose: num(r.Get("f18")),
			Amount:    num(r.Get("f6")),
			PB:        optional(num(r.Get("f23"))),
			At:        now,
		}
		if q.Code != "" {
			out = append(out, q)
		}
		return true
	})
	return out, nil
}

// LOF boards on the list endpoint.
const lofBoards = "b:MK0404,b:MK0405,b:MK0406,b:MK0407"

// LOFQuotes returns exchange quotes of every listed LOF.
func (c *Client) LOFQuotes(ctx context.Context) ([]models.FundQuote, error) {
	var out []models.FundQuote
	for page := 1; ; page++ {
		res, err := c.getJSON(ctx, "lof_spot", c.urls.List, map[string]string{
			"pn":     itoa(page),
			"pz":     itoa(listPageSize),
			"po":     "1",
			"np":     "1",
			"fltt":   "2",
			"invt":   "2",
			"fid":    "f3",
			"fs":     lofBoards,
			"fields": "f2,f3,f5,f6,f8,f12,f14,f18",
		}, nil)
		if err != nil {
			return nil, err
		}
		rows := res.Get("data.diff").Array()
		for _, r := range rows {
			out = append(out, models.FundQuote{
				Code:         r.Get("f12").String(),
				Name:         r.Get("f14").String(),
				Price:        num(r.Get("f2")),
				ChangePct:    optional(num(r.Get("f3"))),
				Volume:       orZero(num(r.Get("f5"))),
				Amount:       num(r.Get("f6")),
				TurnoverRate: optional(num(r.Get("f8"))),
				PrevClose:    optional(num(r.Get("f18"))),
			})
		}
		if len(rows) == 0 || len(out) >= int(res.Get("data.total").Int()) {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("lof_spot: empty quote list")
	}
	return out, nil
}
