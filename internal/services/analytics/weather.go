package analytics

import "github.com/xllucky21/xllucky/internal/domain/models"

// Weather is the human-facing reading of a score band.
type Weather struct {
	Label        string
	Conservative string
	Aggressive   string
	Signal       models.DividendSignal
}

var bondWeather = [5]Weather{
	{
		Label:        "☀️ 烈日 (极好)",
		Conservative: "【值得买入】债券便宜，当前是较好的买点，可以大胆建仓。",
		Aggressive:   "【重仓出击】估值极低，可考虑长久期债基或杠杆债基。",
	},
	{
		Label:        "🌤️ 晴朗 (较好)",
		Conservative: "【可以买入】估值合理偏低，适合定投或分批建仓。",
		Aggressive:   "【逢低加仓】如遇回调，可大胆加仓。",
	},
	{
		Label:        "☁️ 多云 (震荡)",
		Conservative: "【持有观望】估值中性，已持仓可继续持有，新资金暂缓。",
		Aggressive:   "【小仓试探】可小仓位参与，等待更好机会。",
	},
	{
		Label:        "🌧️ 小雨 (较差)",
		Conservative: "【暂不建议买入】估值偏贵，建议等待更好的入场时机。",
		Aggressive:   "【减仓观望】已有持仓可逐步止盈，锁定利润。",
	},
	{
		Label:        "⛈️ 暴雨 (极差)",
		Conservative: "【不建议买入】估值过高，风险大于收益，建议回避。",
		Aggressive:   "【清仓回避】极度高估，转入货币基金等待机会。",
	},
}

var dividendWeather = [5]Weather{
	{
		Label:        "☀️ 烈日 (极佳买点)",
		Conservative: "【强烈建议买入】红利股估值极低，股息率远超国债，是绝佳的配置时机。",
		Aggressive:   "【重仓出击】可考虑红利ETF或高股息个股，长期持有吃股息。",
		Signal:       models.SignalStrongBuy,
	},
	{
		Label:        "🌤️ 晴朗 (较好买点)",
		Conservative: "【建议买入】估值合理偏低，股债性价比良好，适合定投建仓。",
		Aggressive:   "【逢低加仓】可分批买入，重点关注高股息龙头。",
		Signal:       models.SignalBuy,
	},
	{
		Label:        "☁️ 多云 (观望)",
		Conservative: "【持有观望】估值中性，已有持仓可继续持有，新资金暂缓。",
		Aggressive:   "【小仓试探】可小仓位参与，等待更好的入场时机。",
		Signal:       models.SignalHold,
	},
	{
		Label:        "🌧️ 小雨 (谨慎)",
		Conservative: "【暂不建议买入】估值偏高，股债性价比下降，建议等待回调。",
		Aggressive:   "【减仓观望】已有持仓可逐步止盈，锁定利润。",
		Signal:       models.SignalReduce,
	},
	{
		Label:        "⛈️ 暴雨 (卖出信号)",
		Conservative: "【建议卖出】估值过高，股息率已无吸引力，风险大于收益。",
		Aggressive:   "【清仓离场】建议转入债券或货币基金，等待下一轮机会。",
		Signal:       models.SignalSell,
	},
}

// Band returns the index of the first cut the score reaches, 4 below all cuts.
func (c WeatherCuts) Band(score float64) int {
	for i, cut := range c {
		if score >= cut {
			return i
		}
	}
	return len(c)
}

func BondWeather(score float64) Weather {
	return bondWeather[BondWeatherCuts.Band(score)]
}

func DividendWeather(score float64) Weather {
	return dividendWeather[DividendWeatherCuts.Band(score)]
}
