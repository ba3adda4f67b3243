package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	xhttp "github.com/xllucky21/xllucky/pkg/http"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	u := srv.URL
	return NewClient(xhttp.NewClient(xhttp.WithTimeout(5*time.Second)), URLs{
		DataCenter:   u + "/datacenter",
		Kline:        u + "/kline",
		Quote:        u + "/ulist",
		List:         u + "/clist",
		CSIndex:      u + "/csindex",
		FundEstimate: u + "/gz",
		FundNAV:      u + "/lsjz",
		FundPurchase: u + "/jjjz",
		SinaDividend: u + "/sina/%s.phtml",
		FundReferer:  "https://fund.eastmoney.com/",
	}, nil, nil)
}

func TestCritical_IsSentinel(t *testing.T) {
	cause := errors.New("timeout")
	err := Critical("treasury", cause)
	assert.ErrorIs(t, err, ErrCritical)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "treasury")
}

func TestRawTable_ColumnSniffing(t *testing.T) {
	tbl := &RawTable{Headers: []string{"日期", "隔夜利率", "1W"}}
	assert.Equal(t, 1, tbl.Column(shiborColumns...))

	tbl = &RawTable{Headers: []string{"date", "on", "1w"}}
	assert.Equal(t, 1, tbl.Column(shiborColumns...))

	tbl = &RawTable{Headers: []string{"MONTH", "RATE"}}
	assert.Equal(t, -1, tbl.Column(shiborColumns...), "ascii candidates never match by substring")
	assert.Equal(t, 1, tbl.ColumnOr(1, shiborColumns...))
}

func TestRawTable_Series(t *testing.T) {
	tbl := &RawTable{
		Headers: []string{"date", "v"},
		Rows: [][]string{
			{"2024-01-03", "2.5"},
			{"2024-01-02 00:00:00", "2.4"},
			{"bad", "1"},
			{"2024-01-04", "-"},
			{"2024-01-03", "2.6"},
		},
	}
	s := tbl.Series(0, 1)
	require.Len(t, s, 2)
	assert.Equal(t, "2024-01-02", s[0].Date.Format("2006-01-02"))
	assert.Equal(t, 2.6, s[1].Value, "duplicate date keeps the last write")
}

func TestTreasuryYields_Pages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/datacenter", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, reportTreasury, r.URL.Query().Get("reportName"))
		assert.Equal(t, "(SOLAR_DATE>='2024-01-01')", r.URL.Query().Get("filter"))
		switch r.URL.Query().Get("pageNumber") {
		case "1":
			fmt.Fprint(w, `{"success":true,"result":{"pages":2,"data":[
				{"SOLAR_DATE":"2024-01-03 00:00:00","EMM00166469":2.51,"EMG00001310":3.91},
				{"SOLAR_DATE":"2024-01-02 00:00:00","EMM00166469":2.55,"EMG00001310":null}]}}`)
		default:
			fmt.Fprint(w, `{"success":true,"result":{"pages":2,"data":[
				{"SOLAR_DATE":"2024-01-01 00:00:00","EMM00166469":2.56,"EMG00001310":3.88}]}}`)
		}
	})
	c := newTestClient(t, mux)

	cn, us, err := c.TreasuryYields(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, cn, 3)
	assert.Equal(t, []float64{2.56, 2.55, 2.51}, cn.Values())
	assert.Equal(t, []float64{3.88, 3.91}, us.Values())
}

func TestTreasuryYields_EmptyIsError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/datacenter", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"code":9201,"message":"返回数据为空"}`)
	})
	_, _, err := newTestClient(t, mux).TreasuryYields(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestShibor_FallsBackToSecondColumn(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/datacenter", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"result":{"pages":1,"data":[
			{"REPORT_DATE":"2024-01-02 00:00:00","IR_RATE":1.71},
			{"REPORT_DATE":"2024-01-03 00:00:00","IR_RATE":1.65}]}}`)
	})
	s, err := newTestClient(t, mux).Shibor(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, []float64{1.71, 1.65}, s.Values())
}

func TestKline_Parsing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/kline", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1.000922", r.URL.Query().Get("secid"))
		assert.Equal(t, "0", r.URL.Query().Get("fqt"))
		fmt.Fprint(w, `{"data":{"klines":[
			"2024-01-02,5000.1,5010.5,5020.0,4990.0,123456,7890000.0",
			"2024-01-03,5010.5,5030.0,5040.0,5000.0,223456,8890000.0",
			"broken"]}}`)
	})
	s, err := newTestClient(t, mux).IndexCloses(context.Background(), "000922", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []float64{5010.5, 5030.0}, s.Values())
}

func TestPriceHistory_UsesLimit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/kline", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0.161725", r.URL.Query().Get("secid"))
		assert.Equal(t, "60", r.URL.Query().Get("lmt"))
		fmt.Fprint(w, `{"data":{"klines":["2024-01-02,1.0,1.02,1.03,0.99,5000,5100.0"]}}`)
	})
	p, err := newTestClient(t, mux).PriceHistory(context.Background(), "161725", 60)
	require.NoError(t, err)
	require.Len(t, p, 1)
	assert.Equal(t, "2024-01-02", p[0].Date)
	assert.Equal(t, 1.02, p[0].Close)
	assert.Equal(t, int64(5000), p[0].Volume)
}

func TestSecIDs(t *testing.T) {
	assert.Equal(t, "1.600036", StockSecID("600036"))
	assert.Equal(t, "1.501018", StockSecID("501018"))
	assert.Equal(t, "0.000651", StockSecID("000651"))
	assert.Equal(t, "0.161725", StockSecID("161725"))
	assert.Equal(t, "1.000922", IndexSecID("000922"))
	assert.Equal(t, "0.399001", IndexSecID("399001"))
	assert.Equal(t, "100.NDX", IndexSecID("100.NDX"))
}

func TestQuotes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ulist", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1.000001,0.399001", r.URL.Query().Get("secids"))
		fmt.Fprint(w, `{"data":{"diff":[
			{"f2":3050.12,"f3":-0.35,"f6":4.1e11,"f12":"000001","f14":"上证指数","f18":3060.8,"f23":"-"},
			{"f2":9500.5,"f3":1.2,"f6":5.2e11,"f12":"399001","f14":"深证成指","f18":9387.9,"f23":1.5}]}}`)
	})
	q, err := newTestClient(t, mux).Quotes(context.Background(), []string{"1.000001", "0.399001"})
	require.NoError(t, err)
	require.Len(t, q, 2)
	assert.Equal(t, "上证指数", q[0].Name)
	assert.Equal(t, -0.35, q[0].ChangePct)
	assert.Nil(t, q[0].PB)
	require.NotNil(t, q[1].PB)
	assert.Equal(t, 1.5, *q[1].PB)
}

func TestLOFQuotes_Paginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/clist", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, lofBoards, r.URL.Query().Get("fs"))
		if r.URL.Query().Get("pn") == "1" {
			fmt.Fprint(w, `{"data":{"total":2,"diff":[{"f2":1.05,"f3":0.5,"f5":1000,"f6":3000000,"f8":"-","f12":"161725","f14":"招商中证白酒","f18":1.04}]}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"total":2,"diff":[{"f2":"-","f3":"-","f5":"-","f6":"-","f8":"-","f12":"501018","f14":"南方原油","f18":"-"}]}}`)
	})
	q, err := newTestClient(t, mux).LOFQuotes(context.Background())
	require.NoError(t, err)
	require.Len(t, q, 2)
	assert.Equal(t, 1.05, q[0].Price)
	assert.Nil(t, q[0].TurnoverRate)
	assert.Equal(t, 0.0, q[1].Volume)
}

func TestFundEstimates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gz", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://fund.eastmoney.com/", r.Header.Get("Referer"))
		fmt.Fprint(w, `{"Data":{"list":[
			{"bzdm":"161725","jjjc":"招商中证白酒","gsz":"1.0012","gszzl":"0.52","dwjz":"0.9960"},
			{"bzdm":"501018","jjjc":"南方原油","gsz":"--","gszzl":"--","dwjz":"1.2300"}]}}`)
	})
	m, err := newTestClient(t, mux).FundEstimates(context.Background())
	require.NoError(t, err)
	require.Contains(t, m, "161725")
	assert.Equal(t, 1.0012, *m["161725"].EstNAV)
	assert.Nil(t, m["501018"].EstNAV)
	assert.Equal(t, 1.23, *m["501018"].PrevNAV)
}

func TestNAVHistory_OldestFirst(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/lsjz", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "161725", r.URL.Query().Get("fundCode"))
		fmt.Fprint(w, `{"Data":{"LSJZList":[
			{"FSRQ":"2024-01-03","DWJZ":"1.0100"},
			{"FSRQ":"2024-01-02","DWJZ":"1.0000"}]}}`)
	})
	navs, err := newTestClient(t, mux).NAVHistory(context.Background(), "161725", 2)
	require.NoError(t, err)
	require.Len(t, navs, 2)
	assert.Equal(t, "2024-01-02", navs[0].Date)
	assert.Equal(t, 1.01, navs[1].NAV)
}

func TestSubscribeStatuses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/jjjz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `var reData={datas:[`+
			`["161725","招商中证白酒","指数型-股票","1.0830","2024-01-02","开放申购","开放赎回","","10","1.00000000000E+11","0.12%"],`+
			`["501018","南方原油[LOF]","QDII","1.2300","2024-01-02","暂停申购","开放赎回","","10","","0.12%"],`+
			`["164906","交银中证海外互联网","QDII","1.5000","2024-01-02","限大额","开放赎回","","10","1000.00","0.12%"]`+
			`],record:"3",pages:"1",curpage:"1"};`)
	})
	m, err := newTestClient(t, mux).SubscribeStatuses(context.Background())
	require.NoError(t, err)
	require.Len(t, m, 3)

	assert.True(t, m["161725"].CanSubscribe)
	assert.Nil(t, m["161725"].DailyLimit, "provider sentinel for unlimited")
	assert.False(t, m["501018"].CanSubscribe)
	assert.Equal(t, "暂停申购", m["501018"].SubscribeStatus)
	assert.True(t, m["164906"].CanSubscribe)
	require.NotNil(t, m["164906"].DailyLimit)
	assert.Equal(t, 1000.0, *m["164906"].DailyLimit)
}

func TestExtractArray(t *testing.T) {
	s, ok := extractArray(`var x={datas:[["a]","b"],["c"]],n:1}`, "datas:")
	require.True(t, ok)
	assert.Equal(t, `[["a]","b"],["c"]]`, s)

	_, ok = extractArray(`var x={rows:[]}`, "datas:")
	assert.False(t, ok)
	_, ok = extractArray(`var x={datas:[[1,2]`, "datas:")
	assert.False(t, ok)
}

func TestIndexValuation_PEFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/csindex/000300", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":"200","data":[
			{"tradeDate":"20240102","peg1":null,"peg2":12.1,"dp1":2.8,"dp2":2.9},
			{"tradeDate":"20240103","peg1":null,"peg2":12.3,"dp1":2.7,"dp2":2.8}]}`)
	})
	v, err := newTestClient(t, mux).IndexValuation(context.Background(), "000300")
	require.NoError(t, err)
	assert.Equal(t, []float64{12.1, 12.3}, v.PE.Values())
	assert.Equal(t, []float64{2.8, 2.7}, v.DividendYield.Values())
}

const sinaPage = `<html><head><meta charset="gb2312"></head><body>
<table id="sharebonus_1"><thead><tr><th>公告日期</th></tr></thead><tbody>
<tr><td>2024-06-28</td><td>0</td><td>0</td><td>19.72</td><td>实施</td><td>2024-07-11</td><td>2024-07-10</td><td>--</td><td><a>查看</a></td></tr>
<tr><td>2024-03-26</td><td>0</td><td>0</td><td>19.72</td><td>预案</td><td>--</td><td>--</td><td>--</td><td><a>查看</a></td></tr>
<tr><td colspan="9">没有数据</td></tr>
</tbody></table></body></html>`

func TestDividends_GBKPage(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String(sinaPage)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/sina/600036.phtml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=gbk")
		fmt.Fprint(w, gbk)
	})
	recs, err := newTestClient(t, mux).Dividends(context.Background(), "600036")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "实施", recs[0].Progress)
	assert.Equal(t, 19.72, recs[0].CashPer10)
	assert.Equal(t, "2024-07-11", recs[0].ExDate)
	assert.Equal(t, "--", recs[1].ExDate)
}

func TestGet_StatusErrorIsWrapped(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/csindex/000922", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})
	_, err := newTestClient(t, mux).IndexValuation(context.Background(), "000922")
	var se *xhttp.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)
}
