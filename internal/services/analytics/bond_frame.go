package analytics

import (
	"github.com/xllucky21/xllucky/internal/domain/models"
	"github.com/xllucky21/xllucky/internal/services/indicators"
)

// Bond frame column names.
const (
	ColYield           = "yield"
	ColPE              = "pe"
	ColShibor          = "shibor"
	ColUSYield         = "us_yield"
	ColSpread          = "cn_us_spread"
	ColSpreadChange    = "spread_change"
	ColSpreadChangeStd = "spread_change_std"
	ColShiborChange    = "shibor_change"
	ColShiborChangeStd = "shibor_change_std"
	ColMA              = "MA60"
	ColMACD            = "MACD"
	ColSignalLine      = "Signal_Line"
	ColMACDHist        = "MACD_Hist"
	ColRSI             = "RSI"
	ColBBMid           = "BB_Mid"
	ColBBUp            = "BB_Up"
	ColBBLow           = "BB_Low"
)

// BondInputs are the canonical series fetched for a bond run. Only Yield is
// required; the others may be empty.
type BondInputs struct {
	Yield   models.Series
	USYield models.Series
	PE      models.Series
	Shibor  models.Series
}

// BuildBondFrame aligns every input on the CN 10y date axis, forward-fills,
// and derives the spread, change and technical columns.
func BuildBondFrame(in BondInputs, cfg IndicatorConfig) *models.Frame {
	f := models.NewFrame(ColYield, in.Yield)
	f.JoinLeft(ColPE, in.PE)
	f.JoinLeft(ColShibor, in.Shibor)
	f.JoinLeft(ColUSYield, in.USYield)
	f.FFill()

	spread := indicators.Sub(f.Col(ColYield), f.Col(ColUSYield))
	f.Set(ColSpread, spread)
	spreadChg := indicators.Diff(spread, cfg.SpreadLookback)
	f.Set(ColSpreadChange, spreadChg)
	f.Set(ColSpreadChangeStd, indicators.RollingStd(spreadChg, cfg.ChangeStdWin))

	shiborChg := indicators.Diff(f.Col(ColShibor), cfg.ShiborLookback)
	f.Set(ColShiborChange, shiborChg)
	f.Set(ColShiborChangeStd, indicators.RollingStd(shiborChg, cfg.ChangeStdWin))

	y := f.Col(ColYield)
	f.Set(ColMA, indicators.SMA(y, cfg.MAPeriod))
	macd, sig, hist := indicators.MACD(y, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	f.Set(ColMACD, macd)
	f.Set(ColSignalLine, sig)
	f.Set(ColMACDHist, hist)
	f.Set(ColRSI, indicators.RSI(y, cfg.RSIPeriod))
	up, mid, low := indicators.Bollinger(y, cfg.BBPeriod, cfg.BBStd)
	f.Set(ColBBMid, mid)
	f.Set(ColBBUp, up)
	f.Set(ColBBLow, low)
	return f
}

// FactorsAt reads scorer input from row i with the given yield percentile.
func FactorsAt(f *models.Frame, i int, percentile float64) BondFactors {
	y := f.At(ColYield, i)
	return BondFactors{
		Yield:           y,
		MA:              f.At(ColMA, i),
		RSI:             f.At(ColRSI, i),
		Percentile:      percentile,
		ShiborChange:    f.At(ColShiborChange, i),
		ShiborChangeStd: f.At(ColShiborChangeStd, i),
		ERP:             ERP(f.At(ColPE, i), y),
		SpreadChange:    f.At(ColSpreadChange, i),
		SpreadChangeStd: f.At(ColSpreadChangeStd, i),
	}
}
