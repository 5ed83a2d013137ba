// Package notify delivers presence alerts to a chat webhook.
package notify

import (
	"context"
	"encoding/json"
)

// Fixed alert identity.
const (
	Username       = "Doorbell"
	AvatarURL      = "https://i.imgur.com/6YSCfLa.png"
	DefaultMessage = "Someone entered the hideout"
)

// Notifier sends one alert. Implementations do not retry.
type Notifier interface {
	Send(ctx context.Context, content string) error
}

// Payload is the webhook request body.
type Payload struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
	Content   string `json:"content"`
}

// FormatPayload builds the JSON body for an alert.
func FormatPayload(content string) ([]byte, error) {
	return json.Marshal(Payload{
		Username:  Username,
		AvatarURL: AvatarURL,
		Content:   content,
	})
}
