package config

import "time"

type Config struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	Port        int    `mapstructure:"port" yaml:"port"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	Auth      AuthConfig      `mapstructure:"auth" yaml:"auth"`
	Heartbeat HeartbeatConfig `mapstructure:"heartbeat" yaml:"heartbeat"`
	Channels  ChannelsConfig  `mapstructure:"channels" yaml:"channels"`
	Routing   RoutingConfig   `mapstructure:"routing" yaml:"routing"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch" yaml:"dispatch"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	CORS      CORSConfig      `mapstructure:"cors" yaml:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`

	// Services pre-registers fleet members so they appear (status unknown)
	// before their first heartbeat. Registration is otherwise implicit.
	Services []ServiceSeed `mapstructure:"services" yaml:"services"`
}

// AuthConfig holds the heartbeat credential table. Two modes coexist: a
// single shared key valid for every service, and a per-service key table.
type AuthConfig struct {
	SharedKey   string            `mapstructure:"shared_key" yaml:"shared_key"`
	ServiceKeys map[string]string `mapstructure:"service_keys" yaml:"service_keys"`

	// AlertRequireToken controls whether POST /api/alert demands a bearer
	// token. Default false: the alert endpoint is public.
	AlertRequireToken bool `mapstructure:"alert_require_token" yaml:"alert_require_token"`
}

// HeartbeatConfig drives the liveness evaluator. Intervals are in seconds.
type HeartbeatConfig struct {
	CheckInterval   int  `mapstructure:"check_interval" yaml:"check_interval"`
	Timeout         int  `mapstructure:"timeout" yaml:"timeout"`
	MissThreshold   int  `mapstructure:"miss_threshold" yaml:"miss_threshold"`
	AlertOnDegraded bool `mapstructure:"alert_on_degraded" yaml:"alert_on_degraded"`
}

func (h HeartbeatConfig) CheckIntervalDuration() time.Duration {
	return time.Duration(h.CheckInterval) * time.Second
}

func (h HeartbeatConfig) TimeoutDuration() time.Duration {
	return time.Duration(h.Timeout) * time.Second
}

// ChannelsConfig holds per-provider notification settings.
type ChannelsConfig struct {
	Discord   DiscordConfig   `mapstructure:"discord" yaml:"discord"`
	Slack     SlackConfig     `mapstructure:"slack" yaml:"slack"`
	Telegram  TelegramConfig  `mapstructure:"telegram" yaml:"telegram"`
	Email     EmailConfig     `mapstructure:"email" yaml:"email"`
	Webhook   WebhookConfig   `mapstructure:"webhook" yaml:"webhook"`
	Pushover  PushoverConfig  `mapstructure:"pushover" yaml:"pushover"`
	PagerDuty PagerDutyConfig `mapstructure:"pagerduty" yaml:"pagerduty"`
}

// ChannelTypes is the canonical ordering of notification channel identifiers.
var ChannelTypes = []string{"discord", "slack", "telegram", "email", "webhook", "pushover", "pagerduty"}

// Enabled reports whether the named channel type is enabled.
func (c ChannelsConfig) Enabled(channelType string) bool {
	switch channelType {
	case "discord":
		return c.Discord.Enabled
	case "slack":
		return c.Slack.Enabled
	case "telegram":
		return c.Telegram.Enabled
	case "email":
		return c.Email.Enabled
	case "webhook":
		return c.Webhook.Enabled
	case "pushover":
		return c.Pushover.Enabled
	case "pagerduty":
		return c.PagerDuty.Enabled
	}
	return false
}

// EnabledTypes returns the enabled channel identifiers in canonical order.
func (c ChannelsConfig) EnabledTypes() []string {
	var out []string
	for _, t := range ChannelTypes {
		if c.Enabled(t) {
			out = append(out, t)
		}
	}
	return out
}

type DiscordConfig struct {
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url"`
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
}

type SlackConfig struct {
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url"`
	Channel    string `mapstructure:"channel" yaml:"channel"`
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token" yaml:"bot_token"`
	ChatID   string `mapstructure:"chat_id" yaml:"chat_id"`
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
}

type EmailConfig struct {
	SMTPHost    string   `mapstructure:"smtp_host" yaml:"smtp_host"`
	SMTPPort    int      `mapstructure:"smtp_port" yaml:"smtp_port"`
	Username    string   `mapstructure:"username" yaml:"username"`
	Password    string   `mapstructure:"password" yaml:"password"`
	FromAddress string   `mapstructure:"from_address" yaml:"from_address"`
	ToAddresses []string `mapstructure:"to_addresses" yaml:"to_addresses"`
	Enabled     bool     `mapstructure:"enabled" yaml:"enabled"`
}

type WebhookConfig struct {
	URL     string            `mapstructure:"url" yaml:"url"`
	Headers map[string]string `mapstructure:"headers" yaml:"headers"`
	Enabled bool              `mapstructure:"enabled" yaml:"enabled"`
}

type PushoverConfig struct {
	Token   string `mapstructure:"token" yaml:"token"`
	UserKey string `mapstructure:"user_key" yaml:"user_key"`
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

type PagerDutyConfig struct {
	RoutingKey string `mapstructure:"routing_key" yaml:"routing_key"`
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
}

// RoutingConfig optionally pins severities to channel subsets. Severity is
// never a routing filter unless a deployment configures it here.
type RoutingConfig struct {
	SeverityChannels map[string][]string `mapstructure:"severity_channels" yaml:"severity_channels"`
}

// DispatchConfig bounds the notification fan-out. Timeout is seconds per
// adapter attempt. RetryAttempts counts additional attempts after the first.
// RetryBackoff is the initial backoff in milliseconds and doubles per retry.
type DispatchConfig struct {
	Timeout       int `mapstructure:"timeout" yaml:"timeout"`
	RetryAttempts int `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryBackoff  int `mapstructure:"retry_backoff" yaml:"retry_backoff"`
}

func (d DispatchConfig) TimeoutDuration() time.Duration {
	return time.Duration(d.Timeout) * time.Second
}

func (d DispatchConfig) RetryBackoffDuration() time.Duration {
	return time.Duration(d.RetryBackoff) * time.Millisecond
}

// CacheConfig points at the optional Valkey/Redis instance backing the
// rate limiter and the heartbeat audit log. Empty Addr selects the
// in-process fallback store.
type CacheConfig struct {
	Addr         string `mapstructure:"addr" yaml:"addr"`
	DB           int    `mapstructure:"db" yaml:"db"`
	Password     string `mapstructure:"password" yaml:"password"`
	TTL          int    `mapstructure:"ttl" yaml:"ttl"` // seconds
	AuditLogSize int    `mapstructure:"audit_log_size" yaml:"audit_log_size"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled" yaml:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

type ServiceSeed struct {
	ID       string            `mapstructure:"id" yaml:"id"`
	Metadata map[string]string `mapstructure:"metadata" yaml:"metadata"`
}
