package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/xllucky21/xllucky/internal/domain/models"
)

// csindex field keys and the headers they are published under
var csindexColumns = []struct{ key, header string }{
	{"tradeDate", "日期"},
	{"peg1", "市盈率1"},
	{"peg2", "市盈率2"},
	{"dp1", "股息率1"},
	{"dp2", "股息率2"},
}

// IndexValuation returns the PE and dividend yield series published for a
// CSI index. PE prefers 市盈率1 and falls back to 市盈率2.
func (c *Client) IndexValuation(ctx context.Context, code string) (models.IndexValuation, error) {
	url := strings.TrimRight(c.urls.CSIndex, "/") + "/" + code
	res, err := c.getJSON(ctx, "csindex", url, nil, nil)
	if err != nil {
		return models.IndexValuation{}, err
	}
	t := &RawTable{}
	for _, col := range csindexColumns {
		t.Headers = append(t.Headers, col.header)
	}
	res.Get("data").ForEach(func(_, r gjson.Result) bool {
		row := make([]string, len(csindexColumns))
		for i, col := range csindexColumns {
			row[i] = r.Get(col.key).String()
		}
		t.Rows = append(t.Rows, row)
		return true
	})
	if t.Len() == 0 {
		return models.IndexValuation{}, fmt.Errorf("csindex: no rows for %s", code)
	}

	date := t.Column("日期")
	pe := t.Series(date, t.Column("市盈率1"))
	if len(pe) == 0 {
		pe = t.Series(date, t.Column("市盈率2"))
	}
	return models.IndexValuation{
		PE:            pe,
		DividendYield: t.Series(date, t.Column("股息率1")),
	}, nil
}
