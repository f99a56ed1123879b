package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shyabid/rolevia/internal/domain"
)

// Client delivers messages through a chat-platform webhook endpoint,
// impersonating the configured display identity.
type Client struct {
	http *http.Client
}

func NewClient() *Client {
	return &Client{http: &http.Client{Timeout: 15 * time.Second}}
}

type payload struct {
	Username   string         `json:"username,omitempty"`
	AvatarURL  string         `json:"avatar_url,omitempty"`
	Embeds     []embedPayload `json:"embeds"`
	Components []componentRow `json:"components,omitempty"`
}

type embedPayload struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Color       int           `json:"color"`
	Image       *imagePayload `json:"image,omitempty"`
}

type imagePayload struct {
	URL string `json:"url"`
}

type componentRow struct {
	Type       int               `json:"type"`
	Components []buttonComponent `json:"components"`
}

type buttonComponent struct {
	Type     int    `json:"type"`
	Style    int    `json:"style"`
	Label    string `json:"label"`
	CustomID string `json:"custom_id"`
}

// Send posts the message and returns the relayed message id.
func (c *Client) Send(ctx context.Context, url string, embed domain.Embed, displayName, avatarURL string, controls []domain.Control) (int64, error) {
	body := payload{
		Username:  displayName,
		AvatarURL: avatarURL,
		Embeds:    []embedPayload{toEmbedPayload(embed)},
	}
	if len(controls) > 0 {
		row := componentRow{Type: 1}
		for _, control := range controls {
			row.Components = append(row.Components, buttonComponent{
				Type:     2,
				Style:    3,
				Label:    control.Label,
				CustomID: control.Tag,
			})
		}
		body.Components = []componentRow{row}
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"?wait=true", bytes.NewReader(raw))
	if err != nil {
		return 0, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&created); err != nil {
		return 0, fmt.Errorf("decode webhook response: %w", err)
	}
	messageID, err := strconv.ParseInt(created.ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse webhook message id %q: %w", created.ID, err)
	}
	return messageID, nil
}

func toEmbedPayload(embed domain.Embed) embedPayload {
	out := embedPayload{
		Title:       embed.Title,
		Description: embed.Description,
		Color:       embed.Color,
	}
	if embed.ImageURL != "" {
		out.Image = &imagePayload{URL: embed.ImageURL}
	}
	return out
}
