package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
)

// Row is one labelled metric on the HTML page.
type Row struct {
	Label  string
	Value  string
	Status string
}

// Page is a standalone HTML report with an inline chart.
type Page struct {
	Title       string
	GeneratedAt string
	Headline    string
	Rows        []Row
	Notes       []string
	Chart       []byte
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:-apple-system,"PingFang SC","Microsoft YaHei",sans-serif;max-width:1240px;margin:24px auto;color:#1f2937}
table{border-collapse:collapse;width:100%;margin:16px 0}
td,th{border:1px solid #e5e7eb;padding:6px 10px;text-align:left}
th{background:#f9fafb}
.muted{color:#6b7280}
img{max-width:100%}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="muted">生成时间: {{.GeneratedAt}}</p>
{{if .Headline}}<h2>{{.Headline}}</h2>{{end}}
{{if .Rows}}<table>
<tr><th>指标</th><th>数值</th><th>状态</th></tr>
{{range .Rows}}<tr><td>{{.Label}}</td><td>{{.Value}}</td><td>{{.Status}}</td></tr>
{{end}}</table>{{end}}
{{if .ChartSrc}}<img alt="chart" src="{{.ChartSrc}}">{{end}}
{{range .Notes}}<p>{{.}}</p>
{{end}}<p class="muted">本页面由量化程序自动生成，仅供参考，不构成投资建议。</p>
</body>
</html>
`))

// RenderHTML renders p with the chart embedded as a data URL.
func RenderHTML(p Page) ([]byte, error) {
	data := struct {
		Page
		ChartSrc template.URL
	}{Page: p}
	if len(p.Chart) > 0 {
		data.ChartSrc = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(p.Chart))
	}
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}
