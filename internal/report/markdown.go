package report

import (
	"fmt"
	"strings"

	"github.com/xllucky21/xllucky/internal/domain/models"
)

const disclaimer = "*免责声明：本报告由量化程序自动生成，仅供参考，不构成投资建议。*\n"

// BondMarkdown renders the bond barometer report. chartFile is linked
// relative to the Markdown file.
func BondMarkdown(r models.BondReport, chartFile string) string {
	c := r.Conclusion
	var b strings.Builder
	fmt.Fprintf(&b, "# 🏆 债基智能投顾分析报告\n\n> **生成时间**: %s\n\n---\n\n", r.GeneratedAt)
	fmt.Fprintf(&b, "## 🔮 综合评分: %.1f 分\n\n### 🌤️ 当前天气: **%s**\n\n", c.Score, c.Weather)
	fmt.Fprintf(&b, "> %s\n\n---\n\n", c.MarketRegime.RegimeMsg)

	b.WriteString("## 📊 核心指标拆解\n\n")
	b.WriteString("| 维度 | 指标值 | 状态 | 解释 |\n| :--- | :--- | :--- | :--- |\n")
	fmt.Fprintf(&b, "| **国债收益率** | **%.4f%%** | - | 债市锚点 |\n", c.LastYield)
	fmt.Fprintf(&b, "| **估值水位** | **%.1f%%** | %s | 历史分位数 (越高越便宜) |\n", c.Percentile, c.ValStatus)
	fmt.Fprintf(&b, "| **长期趋势** | %s | %s | 60日均线判定 |\n", c.TrendVal, c.TrendStatus)
	fmt.Fprintf(&b, "| **短期动量** | %s | %s | MACD 动能 |\n", c.MACDVal, c.MACDStatus)
	fmt.Fprintf(&b, "| **宏观对冲** | %s | %s | 股债性价比 (ERP) |\n", c.PEVal, c.MacroMsg)
	fmt.Fprintf(&b, "| **流动性** | %s (%s) | %s | 资金面松紧 (Shibor) |\n", c.ShiborVal, c.ShiborChange, c.LiquidityMsg)
	fmt.Fprintf(&b, "| **中美利差** | %s (%s) | %s | 美债 %s |\n\n---\n\n", c.SpreadVal, c.SpreadChange, c.SpreadMsg, c.USYield)

	b.WriteString("## 💡 投资操作建议\n\n")
	fmt.Fprintf(&b, "### 🐢 稳健型 (理财替代)\n> **%s**\n\n", c.SuggestionCon)
	fmt.Fprintf(&b, "### 🐇 激进型 (波段交易)\n> **%s**\n\n---\n\n", c.SuggestionAgg)

	bt := r.Backtest
	fmt.Fprintf(&b, "## 🧪 回测验证 (持有 %d 个交易日)\n\n", bt.HorizonDays)
	b.WriteString("| 分数区间 | 样本数 | 平均收益 | 收益率变动 |\n| :--- | ---: | ---: | ---: |\n")
	for _, k := range bt.Buckets {
		fmt.Fprintf(&b, "| %d-%d | %d | %s | %s |\n", k.MinScore, k.MaxScore, k.Count,
			optPct(k.AvgForwardReturn), optBP(k.AvgForwardYieldChangeBP))
	}
	fmt.Fprintf(&b, "\n%s\n\n---\n\n", bt.MonotonicMsg)

	if chartFile != "" {
		fmt.Fprintf(&b, "## 📈 市场全景图\n\n![Market Chart](%s)\n\n---\n\n", chartFile)
	}
	b.WriteString(disclaimer)
	return b.String()
}

// DividendMarkdown renders the dividend barometer report.
func DividendMarkdown(r models.DividendReport, chartFile string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# 🧧 红利指数分析报告\n\n> **生成时间**: %s | **10年国债**: %.2f%%\n\n---\n\n", r.GeneratedAt, r.BondYield)

	if r.Index != nil {
		c := r.Index.Conclusion
		fmt.Fprintf(&b, "## 🔮 中证红利评分: %.1f 分\n\n### 🌤️ 当前天气: **%s**\n\n", c.Score, c.Weather)
		b.WriteString("| 指标 | 数值 | 状态 |\n| :--- | :--- | :--- |\n")
		fmt.Fprintf(&b, "| **收盘点位** | %.2f | %s |\n", c.LastClose, c.LastDate)
		fmt.Fprintf(&b, "| **股息率** | %s | - |\n", optPct(c.DividendYield))
		fmt.Fprintf(&b, "| **股债利差** | %s | %s |\n", optPct(c.Spread), c.SpreadStatus)
		fmt.Fprintf(&b, "| **均线形态** | %s | %s |\n", optPct(c.MADeviation), c.TrendStatus)
		fmt.Fprintf(&b, "| **RSI** | %s | - |\n", optNum(c.RSI))
		fmt.Fprintf(&b, "| **近5日/20日** | %s / %s | - |\n\n", optPct(c.PctChange5D), optPct(c.PctChange20D))
		fmt.Fprintf(&b, "### 🐢 稳健型\n> **%s**\n\n### 🐇 激进型\n> **%s**\n\n---\n\n", c.SuggestionCon, c.SuggestionAgg)
	}

	if len(r.Stocks) > 0 {
		b.WriteString("## 🏦 红利个股评分\n\n")
		b.WriteString("| 排名 | 股票 | 总分 | 股息率 | 利差 | PB |\n| ---: | :--- | ---: | ---: | ---: | ---: |\n")
		for i, s := range r.Stocks {
			fmt.Fprintf(&b, "| %d | %s (%s) | %.1f | %s | %s | %s |\n", i+1, s.Name, s.Code, s.TotalScore,
				optPct(s.Metrics.DividendYield), optPct(s.Metrics.Spread), optNum(s.Metrics.PB))
		}
		b.WriteString("\n---\n\n")
	}

	if chartFile != "" {
		fmt.Fprintf(&b, "## 📈 指数与评分走势\n\n![Dividend Chart](%s)\n\n---\n\n", chartFile)
	}
	b.WriteString(disclaimer)
	return b.String()
}

// LOFMarkdown renders the arbitrage overview and the top premium list.
func LOFMarkdown(r models.LOFReport) string {
	o := r.Overview
	var b strings.Builder
	fmt.Fprintf(&b, "# 💹 LOF 套利监控\n\n> **更新时间**: %s\n\n", r.Meta.UpdatedAt)
	fmt.Fprintf(&b, "共 %d 只基金，平均溢价 %.2f%%，最大折价 %.2f%%，最大溢价 %.2f%%\n\n",
		o.TotalCount, o.AvgDiscountRate, o.MaxDiscount, o.MaxPremium)
	d := o.Distribution
	fmt.Fprintf(&b, "| 深度折价 | 轻度折价 | 合理 | 轻度溢价 | 深度溢价 |\n| ---: | ---: | ---: | ---: | ---: |\n| %d | %d | %d | %d | %d |\n\n",
		d.DeepDiscount, d.SlightDiscount, d.FairValue, d.SlightPremium, d.DeepPremium)

	if len(r.Opportunities.Premium) > 0 {
		b.WriteString("## 🎯 溢价机会\n\n| 基金 | 溢价 | 阈值 | 年化 | 申购 | 成交额(万) |\n| :--- | ---: | ---: | ---: | :--- | ---: |\n")
		for _, f := range r.Opportunities.Premium {
			fmt.Fprintf(&b, "| %s (%s) | %.2f%% | %.1f%% | %.1f%% | %s | %.0f |\n", f.Name, f.Code,
				f.RealtimeDiscount, f.Threshold, f.AnnualizedReturn, f.SubscribeStatus, f.Amount)
		}
		b.WriteString("\n")
	}
	b.WriteString(r.Meta.Note + "\n")
	return b.String()
}

func optPct(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", *p)
}

func optNum(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *p)
}

func optBP(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return fmt.Sprintf("%+.1fbp", *p)
}
