package notifier

import (
	"context"
	"net/http"

	"github.com/beaconlabs/beacon-core/internal/config"
	"github.com/beaconlabs/beacon-core/internal/models"
)

// Notifier formats a canonical alert for one provider's wire format and
// performs the outbound call.
type Notifier interface {
	// Type returns the channel identifier (e.g. "discord", "pagerduty").
	Type() string

	// Send delivers one alert. The context carries the per-adapter timeout.
	Send(ctx context.Context, alert models.Alert) error

	// Validate checks whether the channel configuration is usable.
	Validate() error
}

// Build constructs the adapter for a channel type from the current channel
// configuration. Returns nil for unknown types.
func Build(channelType string, cfg config.ChannelsConfig, client *http.Client) Notifier {
	switch channelType {
	case "discord":
		return &DiscordNotifier{WebhookURL: cfg.Discord.WebhookURL, client: client}
	case "slack":
		return &SlackNotifier{WebhookURL: cfg.Slack.WebhookURL, Channel: cfg.Slack.Channel, client: client}
	case "telegram":
		return &TelegramNotifier{BotToken: cfg.Telegram.BotToken, ChatID: cfg.Telegram.ChatID, client: client}
	case "email":
		return &EmailNotifier{Config: cfg.Email}
	case "webhook":
		return &WebhookNotifier{URL: cfg.Webhook.URL, Headers: cfg.Webhook.Headers, client: client}
	case "pushover":
		return &PushoverNotifier{Token: cfg.Pushover.Token, UserKey: cfg.Pushover.UserKey, client: client}
	case "pagerduty":
		return &PagerDutyNotifier{RoutingKey: cfg.PagerDuty.RoutingKey, client: client}
	}
	return nil
}
