// Package wecom posts Markdown messages to a WeCom group robot webhook.
package wecom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xllucky21/xllucky/internal/domain/service"
	xhttp "github.com/xllucky21/xllucky/pkg/http"
)

// WeCom rejects markdown content above 4096 bytes.
const maxContentBytes = 4096

var ErrNoWebhook = errors.New("webhook url not configured")

type markdownMessage struct {
	MsgType  string `json:"msgtype"`
	Markdown struct {
		Content string `json:"content"`
	} `json:"markdown"`
}

type response struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Client implements service.Notifier.
type Client struct {
	http *xhttp.Client
}

var _ service.Notifier = (*Client)(nil)

func New(timeout time.Duration, insecureTLS bool) *Client {
	return &Client{http: xhttp.NewClient(
		xhttp.WithTimeout(timeout),
		xhttp.WithInsecureTLS(insecureTLS),
	)}
}

// SendMarkdown posts content. A non-zero errcode is a failure.
func (c *Client) SendMarkdown(ctx context.Context, webhookURL, content string) error {
	if webhookURL == "" {
		return ErrNoWebhook
	}
	var msg markdownMessage
	msg.MsgType = "markdown"
	msg.Markdown.Content = Truncate(content, maxContentBytes)

	var resp response
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     webhookURL,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    msg,
	}, &resp)
	if err != nil {
		return fmt.Errorf("wecom send: %w", err)
	}
	if resp.ErrCode != 0 {
		return fmt.Errorf("wecom send: errcode %d: %s", resp.ErrCode, resp.ErrMsg)
	}
	return nil
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
