// Package notify announces new requests on a Discord channel webhook.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/emilythestrangee/feedback-board/backend/internal/feed"
	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

const embedColor = 0x5865F2

type Discord struct {
	session   *discordgo.Session
	webhookID string
	token     string
	baseURL   string
}

// NewDiscord builds a webhook-only client; no bot token is needed. baseURL
// is the public board address used to link the announced request.
func NewDiscord(webhookID, token, baseURL string) (*Discord, error) {
	s, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	return &Discord{
		session:   s,
		webhookID: webhookID,
		token:     token,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}, nil
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Filter() feed.Filter {
	return feed.Filter{Table: "product_requests"}
}

// Deliver posts an embed for inserted requests and ignores everything else.
func (d *Discord) Deliver(ctx context.Context, e feed.Event) error {
	if e.Type != feed.Insert || e.Bulk() {
		return nil
	}
	var req models.Request
	if err := e.Decode(&req); err != nil {
		return err
	}

	_, err := d.session.WebhookExecute(d.webhookID, d.token, false, &discordgo.WebhookParams{
		Username: "Feedback Board",
		Embeds:   []*discordgo.MessageEmbed{requestEmbed(req, d.baseURL)},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error executing discord webhook: %w", err)
	}
	return nil
}

func requestEmbed(req models.Request, baseURL string) *discordgo.MessageEmbed {
	desc := req.Description
	if len(desc) > 1024 {
		desc = desc[:1021] + "..."
	}

	embed := &discordgo.MessageEmbed{
		Title:       req.Title,
		Description: desc,
		Color:       embedColor,
		Timestamp:   req.CreatedAt.UTC().Format(time.RFC3339),
	}
	if baseURL != "" {
		embed.URL = fmt.Sprintf("%s/requests/%s", baseURL, req.ID)
	}
	if len(req.Tags) > 0 {
		embed.Fields = []*discordgo.MessageEmbedField{
			{
				Name:   "Tags",
				Value:  strings.Join(req.Tags, ", "),
				Inline: true,
			},
		}
	}
	return embed
}
