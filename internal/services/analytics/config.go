package analytics

import (
	"fmt"

	"github.com/creasty/defaults"
)

// ScoreConfig holds the bond composite score weights. They are policy
// parameters; callers may tune them per run.
type ScoreConfig struct {
	Base              float64 `yaml:"base" default:"50"`
	PercentileWeight  float64 `yaml:"percentile_weight" default:"0.6"`
	TrendBonus        float64 `yaml:"trend_bonus" default:"8"`
	TrendDeviationCap float64 `yaml:"trend_deviation_cap" default:"5"`
	RSIBonus          float64 `yaml:"rsi_bonus" default:"6"`
	LiquidityPenalty  float64 `yaml:"liquidity_penalty" default:"8"`
	ShiborMaxChange   float64 `yaml:"shibor_max_change" default:"0.5"`
	SpreadMaxChange   float64 `yaml:"spread_max_change" default:"0.5"`
	ERPLow            float64 `yaml:"erp_low" default:"1.5"`
	ERPHigh           float64 `yaml:"erp_high" default:"6"`
	ERPLowBonus       float64 `yaml:"erp_low_bonus" default:"5"`
	ERPHighPenalty    float64 `yaml:"erp_high_penalty" default:"10"`
	ExtendedBearTrend float64 `yaml:"extended_bear_trend" default:"0.3"`
	ExtendedBullRSI   float64 `yaml:"extended_bull_rsi" default:"0.5"`
}

// RegimeConfig controls the MA-side run detector.
type RegimeConfig struct {
	MAPeriod        int `yaml:"ma_period" default:"60"`
	ConsecutiveDays int `yaml:"consecutive_days" default:"40"`
	Lookback        int `yaml:"lookback" default:"120"`
}

// IndicatorConfig lists the bond indicator windows.
type IndicatorConfig struct {
	MAPeriod       int     `yaml:"ma_period" default:"60"`
	MACDFast       int     `yaml:"macd_fast" default:"12"`
	MACDSlow       int     `yaml:"macd_slow" default:"26"`
	MACDSignal     int     `yaml:"macd_signal" default:"9"`
	RSIPeriod      int     `yaml:"rsi_period" default:"14"`
	BBPeriod       int     `yaml:"bb_period" default:"20"`
	BBStd          float64 `yaml:"bb_std" default:"2"`
	ShiborLookback int     `yaml:"shibor_lookback" default:"20"`
	SpreadLookback int     `yaml:"spread_lookback" default:"60"`
	ChangeStdWin   int     `yaml:"change_std_window" default:"252"`
}

// BacktestConfig parameterises the walk-forward backtest.
type BacktestConfig struct {
	Horizon     int     `yaml:"horizon" default:"126"`
	MinPeriods  int     `yaml:"min_periods" default:"252"`
	CarryRate   float64 `yaml:"carry_rate" default:"2.0"`
	MinDuration float64 `yaml:"min_duration" default:"5"`
	MaxDuration float64 `yaml:"max_duration" default:"10"`
	SampleEvery int     `yaml:"sample_every" default:"10"`
}

// WeatherCuts are the lower bounds of the four upper weather bands.
type WeatherCuts [4]float64

var (
	BondWeatherCuts     = WeatherCuts{80, 60, 40, 20}
	DividendWeatherCuts = WeatherCuts{80, 65, 50, 35}
)

// DividendConfig holds the index scorer weights and status thresholds.
type DividendConfig struct {
	Base                 float64 `yaml:"base" default:"50"`
	SpreadWeight         float64 `yaml:"spread_weight" default:"0.5"`
	TrendWeight          float64 `yaml:"trend_weight" default:"0.5"`
	SpreadNeutral        float64 `yaml:"spread_neutral" default:"0"`
	SpreadVeryAttractive float64 `yaml:"spread_very_attractive" default:"2"`
	SpreadAttractive     float64 `yaml:"spread_attractive" default:"1"`
	SpreadUnattractive   float64 `yaml:"spread_unattractive" default:"-1"`
	MAShort              int     `yaml:"ma_short" default:"20"`
	MALong               int     `yaml:"ma_long" default:"60"`
	RSIPeriod            int     `yaml:"rsi_period" default:"14"`
	RSIOversold          float64 `yaml:"rsi_oversold" default:"30"`
	RSIOverbought        float64 `yaml:"rsi_overbought" default:"70"`
}

func withDefaults[T any]() T {
	var c T
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("analytics defaults: %v", err))
	}
	return c
}

func DefaultScoreConfig() ScoreConfig         { return withDefaults[ScoreConfig]() }
func DefaultRegimeConfig() RegimeConfig       { return withDefaults[RegimeConfig]() }
func DefaultIndicatorConfig() IndicatorConfig { return withDefaults[IndicatorConfig]() }
func DefaultBacktestConfig() BacktestConfig   { return withDefaults[BacktestConfig]() }
func DefaultDividendConfig() DividendConfig   { return withDefaults[DividendConfig]() }
