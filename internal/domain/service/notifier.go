package service

import "context"

// Notifier posts a Markdown message to a group-chat webhook.
type Notifier interface {
	SendMarkdown(ctx context.Context, webhookURL, content string) error
}
