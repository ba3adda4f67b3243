package models

type BondSummary struct {
	Score       float64 `json:"score"`
	Weather     string  `json:"weather"`
	WeatherIcon string  `json:"weather_icon"`
	Yield       string  `json:"yield"`
	Percentile  string  `json:"percentile"`
	Valuation   string  `json:"valuation"`
	Trend       string  `json:"trend"`
	Suggestion  string  `json:"suggestion"`
	Date        string  `json:"date"`
}

type TopStock struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Yield string  `json:"yield"`
}

type DividendSummary struct {
	Score         float64    `json:"score"`
	Weather       string     `json:"weather"`
	WeatherIcon   string     `json:"weather_icon"`
	Signal        string     `json:"signal"`
	DividendYield string     `json:"dividend_yield"`
	Spread        string     `json:"spread"`
	RSI           float64    `json:"rsi"`
	Suggestion    string     `json:"suggestion"`
	TopStocks     []TopStock `json:"top_stocks"`
	Date          string     `json:"date"`
}

type StocksSummary struct {
	SHIndex          string `json:"sh_index,omitempty"`
	SHChange         string `json:"sh_change,omitempty"`
	SHChangeClass    string `json:"sh_change_class,omitempty"`
	SZIndex          string `json:"sz_index,omitempty"`
	SZChange         string `json:"sz_change,omitempty"`
	SZChangeClass    string `json:"sz_change_class,omitempty"`
	Volume           string `json:"volume,omitempty"`
	VolumePercentile *int   `json:"volume_percentile,omitempty"`
	Sentiment        string `json:"sentiment,omitempty"`
	SentimentClass   string `json:"sentiment_class,omitempty"`
}

type StarChange struct {
	Name        string `json:"name"`
	Change      string `json:"change"`
	ChangeClass string `json:"change_class"`
}

type USSummary struct {
	Nasdaq            string       `json:"nasdaq,omitempty"`
	NasdaqChange      string       `json:"nasdaq_change,omitempty"`
	NasdaqChangeClass string       `json:"nasdaq_change_class,omitempty"`
	SPX               string       `json:"spx,omitempty"`
	SPXChange         string       `json:"spx_change,omitempty"`
	SPXChangeClass    string       `json:"spx_change_class,omitempty"`
	VIX               string       `json:"vix,omitempty"`
	VIXClass          string       `json:"vix_class,omitempty"`
	Bond10Y           string       `json:"bond_10y,omitempty"`
	Mag7              []StarChange `json:"mag7,omitempty"`
}

type EconomicSummary struct {
	CPI             string `json:"cpi,omitempty"`
	PPI             string `json:"ppi,omitempty"`
	PMI             string `json:"pmi,omitempty"`
	Scissors        string `json:"scissors,omitempty"`
	SocialFinancing string `json:"social_financing,omitempty"`
	LPR5Y           string `json:"lpr_5y,omitempty"`
}

// Summary is the digest the notifier renders. Empty sections are omitted
// from the rendered message.
type Summary struct {
	GeneratedAt string           `json:"generated_at"`
	Bond        *BondSummary     `json:"bond,omitempty"`
	Dividend    *DividendSummary `json:"dividend,omitempty"`
	Economic    *EconomicSummary `json:"economic,omitempty"`
	Stocks      *StocksSummary   `json:"stocks,omitempty"`
	USStocks    *USSummary       `json:"us_stocks,omitempty"`
}
