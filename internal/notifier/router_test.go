package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/beaconlabs/beacon-core/internal/config"
	"github.com/beaconlabs/beacon-core/internal/models"
)

func routerWith(cfg config.Config) *Router {
	return NewRouter(config.NewStore(&cfg))
}

func enabledChannels(types ...string) config.ChannelsConfig {
	var c config.ChannelsConfig
	for _, t := range types {
		switch t {
		case "discord":
			c.Discord.Enabled = true
		case "slack":
			c.Slack.Enabled = true
		case "telegram":
			c.Telegram.Enabled = true
		case "email":
			c.Email.Enabled = true
		case "webhook":
			c.Webhook.Enabled = true
		case "pushover":
			c.Pushover.Enabled = true
		case "pagerduty":
			c.PagerDuty.Enabled = true
		}
	}
	return c
}

func TestRoute_ExplicitChannelsIntersectedWithEnabled(t *testing.T) {
	r := routerWith(config.Config{Channels: enabledChannels("discord", "slack", "pagerduty")})

	got := r.Route(models.Alert{Channels: []string{"discord", "slack"}})
	assert.Equal(t, []string{"discord", "slack"}, got)
	assert.NotContains(t, got, "pagerduty")
}

func TestRoute_DisabledExplicitChannelSilentlyDropped(t *testing.T) {
	r := routerWith(config.Config{Channels: enabledChannels("discord")})

	got := r.Route(models.Alert{Channels: []string{"discord", "telegram", "bogus"}})
	assert.Equal(t, []string{"discord"}, got)
}

func TestRoute_DefaultsToAllEnabled(t *testing.T) {
	r := routerWith(config.Config{Channels: enabledChannels("slack", "email", "pagerduty")})

	got := r.Route(models.Alert{Severity: models.SeverityCritical})
	assert.Equal(t, []string{"slack", "email", "pagerduty"}, got)
}

func TestRoute_SeverityIsNotAFilterByDefault(t *testing.T) {
	r := routerWith(config.Config{Channels: enabledChannels("discord", "pagerduty")})

	for _, sev := range []models.Severity{models.SeverityInfo, models.SeverityWarning, models.SeverityCritical} {
		got := r.Route(models.Alert{Severity: sev})
		assert.Equal(t, []string{"discord", "pagerduty"}, got, "severity %s", sev)
	}
}

func TestRoute_SeverityChannelSetsWhenConfigured(t *testing.T) {
	r := routerWith(config.Config{
		Channels: enabledChannels("discord", "slack", "pagerduty"),
		Routing: config.RoutingConfig{
			SeverityChannels: map[string][]string{
				"critical": {"pagerduty", "slack"},
				"info":     {"discord"},
			},
		},
	})

	assert.Equal(t, []string{"pagerduty", "slack"}, r.Route(models.Alert{Severity: models.SeverityCritical}))
	assert.Equal(t, []string{"discord"}, r.Route(models.Alert{Severity: models.SeverityInfo}))
	// warning has no configured set: all enabled channels.
	assert.Equal(t, []string{"discord", "slack", "pagerduty"}, r.Route(models.Alert{Severity: models.SeverityWarning}))
}

func TestRoute_ExplicitChannelsBeatSeveritySets(t *testing.T) {
	r := routerWith(config.Config{
		Channels: enabledChannels("discord", "pagerduty"),
		Routing: config.RoutingConfig{
			SeverityChannels: map[string][]string{"critical": {"pagerduty"}},
		},
	})

	got := r.Route(models.Alert{Severity: models.SeverityCritical, Channels: []string{"discord"}})
	assert.Equal(t, []string{"discord"}, got)
}

func TestRoute_DeduplicatesExplicitList(t *testing.T) {
	r := routerWith(config.Config{Channels: enabledChannels("discord")})

	got := r.Route(models.Alert{Channels: []string{"discord", "discord"}})
	assert.Equal(t, []string{"discord"}, got)
}

func TestRoute_NothingEnabled(t *testing.T) {
	r := routerWith(config.Config{})
	assert.Empty(t, r.Route(models.Alert{}))
	assert.Empty(t, r.Route(models.Alert{Channels: []string{"discord"}}))
}
