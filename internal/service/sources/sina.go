package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/xllucky21/xllucky/internal/domain/models"
	"github.com/xllucky21/xllucky/pkg/util"
)

// Dividends scrapes the dividend table of a stock. The page is GBK encoded;
// rows are 公告日期, 送股, 转增, 派息, 进度, 除权除息日.
func (c *Client) Dividends(ctx context.Context, code string) ([]models.DividendRecord, error) {
	body, err := c.get(ctx, "sina_dividend", fmt.Sprintf(c.urls.SinaDividend, code), nil, nil)
	if err != nil {
		return nil, err
	}
	utf8Body, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), body)
	if err != nil {
		return nil, fmt.Errorf("sina_dividend: decode gbk: %w", err)
	}
	return parseDividendTable(utf8Body)
}

func parseDividendTable(page []byte) ([]models.DividendRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("sina_dividend: parse html: %w", err)
	}
	var out []models.DividendRecord
	doc.Find("#sharebonus_1 tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td").Map(func(_ int, td *goquery.Selection) string {
			return strings.TrimSpace(td.Text())
		})
		if len(cells) < 6 {
			return
		}
		if _, ok := util.ParseDate(cells[0]); !ok {
			return
		}
		out = append(out, models.DividendRecord{
			AnnounceDate: cells[0],
			BonusShares:  util.ParseFloatDefault(cells[1], 0),
			Transfer:     util.ParseFloatDefault(cells[2], 0),
			CashPer10:    util.ParseFloatDefault(cells[3], 0),
			Progress:     cells[4],
			ExDate:       cells[5],
		})
	})
	return out, nil
}
