package alert

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Discord sends notifications via Discord webhook.
type Discord struct {
	client     *http.Client
	webhookURL string
}

// NewDiscord creates a new Discord notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n *Notification) error {
	desc := n.Summary()
	for _, h := range n.Highlights {
		desc += "\n• " + h
	}

	embed := map[string]any{
		"title":       n.Title,
		"description": strings.TrimSpace(desc),
		"color":       0x1E90FF,
		"timestamp":   n.Time.Format(time.RFC3339),
	}
	if n.ImageURL != "" {
		embed["image"] = map[string]any{"url": n.ImageURL}
	}

	body, err := json.Marshal(map[string]any{"embeds": []map[string]any{embed}})
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}
	if err := post(ctx, d.client, d.webhookURL, body, nil); err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}
