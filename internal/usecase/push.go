package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xllucky21/xllucky/internal/domain/models"
	drepo "github.com/xllucky21/xllucky/internal/domain/repository"
	domsvc "github.com/xllucky21/xllucky/internal/domain/service"
	"github.com/xllucky21/xllucky/internal/report"
	"github.com/xllucky21/xllucky/pkg/cache"
	"github.com/xllucky21/xllucky/pkg/config"
	"github.com/xllucky21/xllucky/pkg/logger"
)

// Push flows.
const (
	FlowDaily   = "daily"
	FlowAlert   = "alert"
	FlowRanking = "ranking"
	FlowLOF     = "lof"
	FlowTest    = "test"
	FlowFull    = "full"
)

var Flows = []string{FlowDaily, FlowAlert, FlowRanking, FlowLOF, FlowTest, FlowFull}

const (
	indexAlert = 3.0
	highAlert  = 5.0
	vixAlert   = 30.0
	stockAlert = 5.0

	footer = `<font color="comment">数据仅供参考，投资需谨慎</font>`
)

// ErrUnknownFlow is returned by Pusher.Run for an unsupported flow name.
var ErrUnknownFlow = errors.New("unknown push flow")

// Pusher renders the digests and posts them to the group webhooks.
type Pusher struct {
	cfg          *config.Config
	notifier     domsvc.Notifier
	fingerprints drepo.FingerprintStore
	metrics      drepo.Metrics
	l            *logger.Logger
	now          func() time.Time
}

func NewPusher(cfg *config.Config, n domsvc.Notifier, fp drepo.FingerprintStore, m drepo.Metrics, l *logger.Logger) *Pusher {
	return &Pusher{cfg: cfg, notifier: n, fingerprints: fp, metrics: m, l: l, now: time.Now}
}

// Run executes one flow. force bypasses the LOF change detection.
func (p *Pusher) Run(ctx context.Context, flow string, force bool) error {
	switch flow {
	case FlowDaily:
		return p.daily(ctx)
	case FlowAlert:
		return p.alert(ctx)
	case FlowRanking:
		return p.ranking(ctx)
	case FlowLOF:
		return p.lof(ctx, force)
	case FlowTest:
		return p.send(ctx, FlowTest, p.cfg.Push.WebhookURL, TestContent(p.now()))
	case FlowFull:
		if err := p.daily(ctx); err != nil {
			return err
		}
		return p.alert(ctx)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFlow, flow)
}

func (p *Pusher) send(ctx context.Context, flow, url, content string) error {
	err := p.notifier.SendMarkdown(ctx, url, content)
	status := "ok"
	if err != nil {
		status = "error"
	}
	if p.metrics != nil {
		p.metrics.RecordWebhook(flow, status)
	}
	if err != nil {
		return fmt.Errorf("push %s: %w", flow, err)
	}
	p.l.Info("push sent", logger.String("flow", flow), logger.Int("bytes", len(content)))
	return nil
}

func (p *Pusher) summary() (*models.Summary, error) {
	return ReadSummary(p.cfg.DataPath(SummaryFile))
}

func (p *Pusher) daily(ctx context.Context) error {
	s, err := p.summary()
	var content string
	if err != nil {
		p.l.Warn("summary unavailable, sending plain notice", logger.Error(err))
		content = fmt.Sprintf("## 📊 XLLucky 数据更新完成\n\n> ⏰ 更新时间: %s", p.now().Format(timestampLayout))
	} else {
		content = DailyContent(s)
	}
	return p.send(ctx, FlowDaily, p.cfg.Push.WebhookURL, content)
}

func (p *Pusher) alert(ctx context.Context) error {
	s, err := p.summary()
	if err != nil {
		return fmt.Errorf("push alert: %w", err)
	}
	alerts := CheckAlerts(s)
	if len(alerts) == 0 {
		p.l.Info("no alerts")
		return nil
	}
	p.l.Warn("market alerts detected", logger.Int("count", len(alerts)))
	return p.send(ctx, FlowAlert, p.cfg.Push.WebhookURL, AlertContent(alerts, p.now()))
}

func (p *Pusher) ranking(ctx context.Context) error {
	s, err := p.summary()
	if err != nil {
		return fmt.Errorf("push ranking: %w", err)
	}
	content := RankingContent(s)
	if content == "" {
		p.l.Info("no mega-cap quotes in summary, ranking skipped")
		return nil
	}
	return p.send(ctx, FlowRanking, p.cfg.Push.WebhookURL, content)
}

func (p *Pusher) lof(ctx context.Context, force bool) error {
	var r models.LOFReport
	if err := report.ReadTS(p.cfg.DataPath(p.cfg.LOF.TSFile), &r); err != nil {
		return fmt.Errorf("push lof: %w", err)
	}
	top, total := LOFOpportunities(r, p.cfg.Push.TopLOF)
	if total == 0 {
		p.l.Info("no actionable LOF opportunities")
		return nil
	}

	fp := LOFFingerprint(top)
	if !force {
		last, err := p.fingerprints.Load(ctx, FlowLOF)
		if err != nil {
			p.l.Warn("fingerprint unreadable", logger.Error(err))
		}
		if last == fp {
			p.l.Info("LOF opportunities unchanged, push skipped", logger.String("fingerprint", fp))
			return nil
		}
	}

	url := p.cfg.Push.LOFWebhookURL
	if url == "" {
		url = p.cfg.Push.WebhookURL
	}
	if err := p.send(ctx, FlowLOF, url, LOFContent(r.Meta.UpdatedAt, top, total)); err != nil {
		return err
	}
	if err := p.fingerprints.Save(ctx, FlowLOF, fp); err != nil {
		p.l.Warn("fingerprint not saved", logger.Error(err))
	}
	return nil
}

// DailyContent renders the daily digest.
func DailyContent(s *models.Summary) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}
	generated := s.GeneratedAt
	if generated == "" {
		generated = "未知"
	}
	line("# 📊 XLLucky 市场日报")
	line(`<font color="comment">更新时间: %s</font>`, generated)
	line("")

	if d := s.Bond; d != nil {
		line("---")
		line("### 💰 债基晴雨表")
		line("**天气**: %s", d.Weather)
		line(`**评分**: <font color="%s">%s</font>`, scoreColor(d.Score), pyFloat(d.Score))
		line("**收益率**: %s　**估值**: %s", d.Yield, d.Valuation)
		if d.Suggestion != "" {
			line("> 💡 %s", d.Suggestion)
		}
		line("")
	}

	if d := s.Dividend; d != nil {
		line("---")
		line("### 🎯 红利股票")
		line("**天气**: %s", d.Weather)
		line(`**评分**: <font color="%s">%s</font>`, scoreColor(d.Score), pyFloat(d.Score))
		line("**股息率**: %s　**股债利差**: %s　**RSI**: %s", d.DividendYield, d.Spread, pyFloat(d.RSI))
		if d.Suggestion != "" {
			line("> 💡 %s", d.Suggestion)
		}
		if len(d.TopStocks) > 0 {
			line("")
			line("**TOP5 红利股**:")
			for i, st := range d.TopStocks {
				if i == 5 {
					break
				}
				line("> %d. %s　股息率 %s　评分 %s", i+1, st.Name, st.Yield, pyFloat(st.Score))
			}
		}
		line("")
	}

	if d := s.Stocks; d != nil {
		line("---")
		line("### 🇨🇳 A股行情")
		line(`**上证**: %s <font color="%s">%s</font>`, d.SHIndex, changeColor(d.SHChange), d.SHChange)
		line(`**深证**: %s <font color="%s">%s</font>`, d.SZIndex, changeColor(d.SZChange), d.SZChange)
		vol := "**成交量**: " + d.Volume
		if pct := d.VolumePercentile; pct != nil {
			color := "info"
			switch {
			case *pct >= 80:
				color = "warning"
			case *pct <= 20:
				color = "comment"
			}
			vol += fmt.Sprintf(` <font color="%s">(%d%%分位)</font>`, color, *pct)
		}
		line("%s　**情绪**: %s", vol, d.Sentiment)
		line("")
	}

	if d := s.USStocks; d != nil {
		line("---")
		line("### 🇺🇸 美股行情")
		line(`**纳斯达克**: %s <font color="%s">%s</font>`, orNA(d.Nasdaq), changeColor(d.NasdaqChange), orNA(d.NasdaqChange))
		line(`**标普500**: %s <font color="%s">%s</font>`, orNA(d.SPX), changeColor(d.SPXChange), orNA(d.SPXChange))
		line("**VIX**: %s　**10Y国债**: %s", orNA(d.VIX), orNA(d.Bond10Y))
		if len(d.Mag7) > 0 {
			line("")
			line("**七巨头**:")
			for _, st := range d.Mag7 {
				line(`> %s <font color="%s">%s</font>`, st.Name, changeColor(st.Change), st.Change)
			}
		}
		line("")
	}

	if d := s.Economic; d != nil {
		line("---")
		line("### 📈 宏观经济")
		line("**CPI**: %s　**PPI**: %s　**剪刀差**: %s", orNA(d.CPI), orNA(d.PPI), orNA(d.Scissors))
		line("**PMI**: %s　**社融**: %s　**LPR(5Y)**: %s", orNA(d.PMI), orNA(d.SocialFinancing), orNA(d.LPR5Y))
		line("")
	}

	line("---")
	b.WriteString(footer)
	return b.String()
}

// CheckAlerts scans the digest for abnormal moves. Unparseable values are
// skipped.
func CheckAlerts(s *models.Summary) []models.Alert {
	var out []models.Alert
	index := func(name, change string) {
		v, ok := parseChange(change)
		if !ok || math.Abs(v) < indexAlert {
			return
		}
		level := models.AlertMedium
		if math.Abs(v) >= highAlert {
			level = models.AlertHigh
		}
		out = append(out, models.Alert{
			Type:    "index",
			Level:   level,
			Message: fmt.Sprintf("🚨 %s%s %s", name, direction(v), change),
		})
	}

	if st := s.Stocks; st != nil {
		index("上证指数", st.SHChange)
		index("深证成指", st.SZChange)
	}
	if us := s.USStocks; us != nil {
		if v, err := strconv.ParseFloat(us.VIX, 64); err == nil && v >= vixAlert {
			out = append(out, models.Alert{
				Type:    "vix",
				Level:   models.AlertHigh,
				Message: fmt.Sprintf("⚠️ VIX恐慌指数飙升至 %s，市场恐慌情绪加剧", us.VIX),
			})
		}
		index("纳斯达克", us.NasdaqChange)
		for _, st := range us.Mag7 {
			v, ok := parseChange(st.Change)
			if !ok || math.Abs(v) < stockAlert {
				continue
			}
			out = append(out, models.Alert{
				Type:    "stock",
				Level:   models.AlertMedium,
				Message: fmt.Sprintf("📈 %s%s %s", st.Name, direction(v), st.Change),
			})
		}
	}
	return out
}

// AlertContent groups alerts by level. It returns "" for no alerts.
func AlertContent(alerts []models.Alert, now time.Time) string {
	if len(alerts) == 0 {
		return ""
	}
	lines := []string{
		"# ⚠️ XLLucky 市场异常预警",
		fmt.Sprintf(`<font color="warning">预警时间: %s</font>`, now.Format("2006-01-02 15:04")),
		"",
	}
	for _, g := range []struct {
		level models.AlertLevel
		title string
	}{
		{models.AlertHigh, "### 🔴 高级预警"},
		{models.AlertMedium, "### 🟡 中级预警"},
	} {
		var group []string
		for _, a := range alerts {
			if a.Level == g.level {
				group = append(group, "> "+a.Message)
			}
		}
		if len(group) == 0 {
			continue
		}
		lines = append(lines, g.title)
		lines = append(lines, group...)
		lines = append(lines, "")
	}
	lines = append(lines, "---", `<font color="comment">请关注市场动态，谨慎操作</font>`)
	return strings.Join(lines, "\n")
}

// RankingContent lists the three best and worst mega-cap moves. It returns
// "" when the digest has no mega-cap quotes.
func RankingContent(s *models.Summary) string {
	if s.USStocks == nil || len(s.USStocks.Mag7) == 0 {
		return ""
	}
	type move struct {
		name, change string
		v            float64
	}
	var gainers, losers []move
	for _, st := range s.USStocks.Mag7 {
		v, ok := parseChange(st.Change)
		switch {
		case !ok:
		case v > 0:
			gainers = append(gainers, move{st.Name, st.Change, v})
		case v < 0:
			losers = append(losers, move{st.Name, st.Change, v})
		}
	}
	sort.SliceStable(gainers, func(i, j int) bool { return gainers[i].v > gainers[j].v })
	sort.SliceStable(losers, func(i, j int) bool { return losers[i].v < losers[j].v })

	generated := s.GeneratedAt
	if generated == "" {
		generated = "未知"
	}
	lines := []string{
		"# 📊 七巨头涨跌排行",
		fmt.Sprintf(`<font color="comment">更新时间: %s</font>`, generated),
		"",
		"### 📈 涨幅榜",
	}
	if len(gainers) == 0 {
		lines = append(lines, "> 暂无上涨")
	}
	for i, m := range gainers {
		if i == 3 {
			break
		}
		lines = append(lines, fmt.Sprintf(`> %d. %s <font color="info">%s</font>`, i+1, m.name, m.change))
	}
	lines = append(lines, "", "### 📉 跌幅榜")
	if len(losers) == 0 {
		lines = append(lines, "> 暂无下跌")
	}
	for i, m := range losers {
		if i == 3 {
			break
		}
		lines = append(lines, fmt.Sprintf(`> %d. %s <font color="warning">%s</font>`, i+1, m.name, m.change))
	}
	return strings.Join(lines, "\n")
}

// LOFOpportunities keeps the premium funds that can be subscribed and are
// liquid, best annualized return first. It returns the first n and the
// number that qualified.
func LOFOpportunities(r models.LOFReport, n int) ([]models.LOFFund, int) {
	var picks []models.LOFFund
	for _, f := range r.Opportunities.Premium {
		if f.CanSubscribe && !f.LowLiquidity {
			picks = append(picks, f)
		}
	}
	sort.SliceStable(picks, func(i, j int) bool { return picks[i].AnnualizedReturn > picks[j].AnnualizedReturn })
	if n <= 0 {
		n = 5
	}
	if len(picks) > n {
		return picks[:n], len(picks)
	}
	return picks, len(picks)
}

// LOFFingerprint identifies a push by fund codes and whole-percent premiums,
// so premium moves under half a point do not trigger a new message.
func LOFFingerprint(top []models.LOFFund) string {
	parts := make([]string, len(top))
	for i, f := range top {
		parts[i] = fmt.Sprintf("%s:%d", f.Code, int64(math.RoundToEven(f.RealtimeDiscount)))
	}
	return cache.ShortHash(strings.Join(parts, ","), 16)
}

// LOFContent renders the arbitrage push for the selected funds.
func LOFContent(updatedAt string, top []models.LOFFund, total int) string {
	if updatedAt == "" {
		updatedAt = "未知"
	}
	lines := []string{
		"# 🔄 LOF套利机会监测",
		fmt.Sprintf(`<font color="comment">更新时间: %s</font>`, updatedAt),
		"",
		fmt.Sprintf("### 💰 发现 %d 个套利机会", total),
		"",
	}
	for i, f := range top {
		color := "info"
		if f.RealtimeDiscount >= 5 {
			color = "warning"
		}
		limit, profit := "无限额", "无上限"
		if f.DailyLimit != nil && *f.DailyLimit != 0 {
			limit, profit = formatLimit(*f.DailyLimit, f.RealtimeDiscount)
		}
		settlement := f.SettlementDays
		if settlement == 0 {
			settlement = 2
		}
		lines = append(lines,
			fmt.Sprintf("**%d. %s** (%s)", i+1, f.Name, f.Code),
			fmt.Sprintf(`> 溢价率: <font color="%s">+%s%%</font>`, color, pyFloat(f.RealtimeDiscount)),
			fmt.Sprintf("> 年化: %s%%　结算: T+%d", pyFloat(f.AnnualizedReturn), settlement),
			fmt.Sprintf("> 限额: %s　预期收益: %s", limit, profit),
			"",
		)
	}
	if total > len(top) {
		lines = append(lines, fmt.Sprintf(`<font color="comment">还有 %d 个机会，详见工具箱</font>`, total-len(top)), "")
	}
	lines = append(lines, "---", `<font color="comment">⚠️ 套利有风险：申购确认价≠当前估值，溢价可能收窄</font>`)
	return strings.Join(lines, "\n")
}

// formatLimit renders a daily subscription cap in yuan and the profit of
// subscribing the full cap at premium percent.
func formatLimit(limit, premium float64) (string, string) {
	var l string
	wan := limit / 1e4
	switch {
	case wan >= 1e4:
		l = fmt.Sprintf("%.0f亿", wan/1e4)
	case wan >= 1:
		l = fmt.Sprintf("%.0f万", wan)
	default:
		l = fmt.Sprintf("%.0f元", limit)
	}
	profit := limit * premium / 100
	if profit >= 1e4 {
		return l, fmt.Sprintf("%.2f万", profit/1e4)
	}
	return l, fmt.Sprintf("%.0f元", profit)
}

// TestContent is the connectivity check message.
func TestContent(now time.Time) string {
	return fmt.Sprintf("## 📊 XLLucky 推送测试\n\n> ✅ 企业微信群机器人配置成功！\n> ⏰ 测试时间: %s\n\n后续定时任务将自动推送市场日报。",
		now.Format(timestampLayout))
}

func scoreColor(score float64) string {
	if score >= 60 {
		return "info"
	}
	return "warning"
}

func changeColor(change string) string {
	if strings.Contains(change, "+") {
		return "info"
	}
	return "warning"
}

func direction(v float64) string {
	if v > 0 {
		return "暴涨"
	}
	return "暴跌"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// parseChange reads "+1.23%" style strings.
func parseChange(s string) (float64, bool) {
	s = strings.NewReplacer("%", "", "+", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

// pyFloat prints whole numbers with one decimal ("72.0") and others in
// their shortest form.
func pyFloat(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
