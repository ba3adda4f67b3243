package sources

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/xllucky21/xllucky/internal/domain/models"
	"github.com/xllucky21/xllucky/pkg/util"
)

// Daily limits at or above this are reported by the provider for funds
// without a limit.
const unlimitedDaily = 1e9

// Fund_JJJZ datas row layout
const (
	purchaseCode = iota
	purchaseName
	purchaseType
	purchaseNAV
	purchaseDate
	purchaseSubscribe
	purchaseRedeem
	purchaseNextOpen
	purchaseMinBuy
	purchaseDailyLimit
)

// subscribable statuses; 限大额 caps big tickets only
var subscribable = map[string]bool{"开放申购": true, "限大额": true}

func (c *Client) fundHeaders() map[string]string {
	return map[string]string{"Referer": c.urls.FundReferer}
}

// FundEstimates returns the intraday estimated NAV of every fund, by code.
func (c *Client) FundEstimates(ctx context.Context) (map[string]models.FundEstimate, error) {
	res, err := c.getJSON(ctx, "fund_estimate", c.urls.FundEstimate, map[string]string{
		"type":      "1",
		"sort":      "3",
		"orderType": "desc",
		"canbuy":    "0",
		"pageIndex": "1",
		"pageSize":  "20000",
	}, c.fundHeaders())
	if err != nil {
		return nil, err
	}
	out := map[string]models.FundEstimate{}
	res.Get("Data.list").ForEach(func(_, r gjson.Result) bool {
		code := r.Get("bzdm").String()
		if code == "" {
			return true
		}
		out[code] = models.FundEstimate{
			Code:         code,
			Name:         r.Get("jjjc").String(),
			EstNAV:       optional(num(r.Get("gsz"))),
			EstChangePct: optional(num(r.Get("gszzl"))),
			PrevNAV:      optional(num(r.Get("dwjz"))),
		}
		return true
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("fund_estimate: empty estimate list")
	}
	return out, nil
}

// NAVHistory returns the newest n published NAVs of a fund, oldest first.
func (c *Client) NAVHistory(ctx context.Context, code string, n int) ([]models.NAVPoint, error) {
	res, err := c.getJSON(ctx, "fund_nav", c.urls.FundNAV, map[string]string{
		"fundCode":  code,
		"pageIndex": "1",
		"pageSize":  itoa(n),
	}, c.fundHeaders())
	if err != nil {
		return nil, err
	}
	rows := res.Get("Data.LSJZList").Array()
	out := make([]models.NAVPoint, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		d, ok := util.ParseDate(rows[i].Get("FSRQ").String())
		nav := num(rows[i].Get("DWJZ"))
		if !ok || math.IsNaN(nav) {
			continue
		}
		out = append(out, models.NAVPoint{Date: util.DateKey(d), NAV: nav})
	}
	return out, nil
}

// SubscribeStatuses returns the primary-market state of every fund.
func (c *Client) SubscribeStatuses(ctx context.Context) (map[string]models.SubscribeStatus, error) {
	body, err := c.get(ctx, "fund_purchase", c.urls.FundPurchase, map[string]string{
		"t":    "8",
		"page": "1,50000",
		"js":   "reData",
		"sort": "fcode,asc",
	}, c.fundHeaders())
	if err != nil {
		return nil, err
	}
	raw, ok := extractArray(string(body), "datas:")
	if !ok || !gjson.Valid(raw) {
		return nil, fmt.Errorf("fund_purchase: datas array not found")
	}
	out := map[string]models.SubscribeStatus{}
	gjson.Parse(raw).ForEach(func(_, row gjson.Result) bool {
		cells := row.Array()
		if len(cells) <= purchaseDailyLimit {
			return true
		}
		sub := strings.TrimSpace(cells[purchaseSubscribe].String())
		limit := optional(num(cells[purchaseDailyLimit]))
		if limit != nil && *limit >= unlimitedDaily {
			limit = nil
		}
		out[cells[purchaseCode].String()] = models.SubscribeStatus{
			SubscribeStatus: sub,
			RedeemStatus:    strings.TrimSpace(cells[purchaseRedeem].String()),
			CanSubscribe:    subscribable[sub],
			DailyLimit:      limit,
		}
		return true
	})
	return out, nil
}

// extractArray returns the bracketed array that follows marker in a JS
// assignment such as `var reData={datas:[[...]],...}`. Brackets inside
// string literals are ignored.
func extractArray(s, marker string) (string, bool) {
	i := strings.Index(s, marker)
	if i < 0 {
		return "", false
	}
	start := strings.IndexByte(s[i+len(marker):], '[')
	if start < 0 {
		return "", false
	}
	start += i + len(marker)

	depth := 0
	inString := false
	escaped := false
	for j := start; j < len(s); j++ {
		ch := s[j]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '[':
			depth++
		case ch == ']':
			depth--
			if depth == 0 {
				return s[start : j+1], true
			}
		}
	}
	return "", false
}
