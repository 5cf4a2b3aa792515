package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconlabs/beacon-core/internal/config"
	"github.com/beaconlabs/beacon-core/internal/models"
)

func testAlert() models.Alert {
	return models.Alert{
		ID:        "alert-1",
		Title:     "Service Down: service-1",
		Message:   "No heartbeat for 3m",
		Severity:  models.SeverityCritical,
		Source:    "liveness",
		Labels:    map[string]string{"serviceId": "service-1"},
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func captureServer(t *testing.T, status int) (*httptest.Server, *[]byte) {
	t.Helper()
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = b
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &body
}

func TestDiscordNotifier_Send(t *testing.T) {
	srv, body := captureServer(t, http.StatusNoContent)
	n := &DiscordNotifier{WebhookURL: srv.URL, client: srv.Client()}

	require.NoError(t, n.Send(context.Background(), testAlert()))

	var payload struct {
		Embeds []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Color       int    `json:"color"`
		} `json:"embeds"`
	}
	require.NoError(t, json.Unmarshal(*body, &payload))
	require.Len(t, payload.Embeds, 1)
	assert.Equal(t, "Service Down: service-1", payload.Embeds[0].Title)
	assert.Equal(t, 0xE74C3C, payload.Embeds[0].Color)
}

func TestSlackNotifier_Send(t *testing.T) {
	srv, body := captureServer(t, http.StatusOK)
	n := &SlackNotifier{WebhookURL: srv.URL, Channel: "#ops", client: srv.Client()}

	require.NoError(t, n.Send(context.Background(), testAlert()))

	var payload struct {
		Channel     string `json:"channel"`
		Attachments []struct {
			Color string `json:"color"`
			Title string `json:"title"`
		} `json:"attachments"`
	}
	require.NoError(t, json.Unmarshal(*body, &payload))
	assert.Equal(t, "#ops", payload.Channel)
	require.Len(t, payload.Attachments, 1)
	assert.Equal(t, "danger", payload.Attachments[0].Color)
}

func TestSlackNotifier_Non200IsError(t *testing.T) {
	srv, _ := captureServer(t, http.StatusInternalServerError)
	n := &SlackNotifier{WebhookURL: srv.URL, client: srv.Client()}

	err := n.Send(context.Background(), testAlert())
	assert.ErrorContains(t, err, "unexpected status 500")
}

func TestTelegramNotifier_Send(t *testing.T) {
	srv, body := captureServer(t, http.StatusOK)
	n := &TelegramNotifier{BotToken: "tok", ChatID: "42", endpoint: srv.URL, client: srv.Client()}

	require.NoError(t, n.Send(context.Background(), testAlert()))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(*body, &payload))
	assert.Equal(t, "42", payload["chat_id"])
	assert.Contains(t, payload["text"], "Service Down: service-1")
}

func TestWebhookNotifier_SendsCanonicalAlert(t *testing.T) {
	srv, body := captureServer(t, http.StatusOK)
	n := &WebhookNotifier{URL: srv.URL, Headers: map[string]string{"X-Auth": "k"}, client: srv.Client()}

	require.NoError(t, n.Send(context.Background(), testAlert()))

	var got models.Alert
	require.NoError(t, json.Unmarshal(*body, &got))
	assert.Equal(t, "alert-1", got.ID)
	assert.Equal(t, models.SeverityCritical, got.Severity)
}

func TestPushoverNotifier_Send(t *testing.T) {
	var form map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	n := &PushoverNotifier{Token: "tok", UserKey: "usr", endpoint: srv.URL, client: srv.Client()}
	require.NoError(t, n.Send(context.Background(), testAlert()))

	assert.Equal(t, []string{"tok"}, form["token"])
	assert.Equal(t, []string{"1"}, form["priority"]) // critical
}

func TestPagerDutyNotifier_TriggerAndResolve(t *testing.T) {
	srv, body := captureServer(t, http.StatusAccepted)
	n := &PagerDutyNotifier{RoutingKey: "rk", endpoint: srv.URL, client: srv.Client()}

	require.NoError(t, n.Send(context.Background(), testAlert()))
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(*body, &payload))
	assert.Equal(t, "trigger", payload["event_action"])
	assert.Equal(t, "liveness/service-1", payload["dedup_key"])

	resolved := testAlert()
	resolved.Labels["status"] = "resolved"
	require.NoError(t, n.Send(context.Background(), resolved))
	require.NoError(t, json.Unmarshal(*body, &payload))
	assert.Equal(t, "resolve", payload["event_action"])
}

func TestEmailNotifier_Send(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	n := &EmailNotifier{
		Config: config.EmailConfig{
			SMTPHost:    "smtp.example.com",
			SMTPPort:    587,
			FromAddress: "beacon@example.com",
			ToAddresses: []string{"ops@example.com"},
		},
		sendMail: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
			return nil
		},
	}

	require.NoError(t, n.Send(context.Background(), testAlert()))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "beacon@example.com", gotFrom)
	assert.Equal(t, []string{"ops@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: [Beacon] CRITICAL - Service Down: service-1")
}

func TestEmailNotifier_SendHonorsContextDeadline(t *testing.T) {
	n := &EmailNotifier{
		Config: config.EmailConfig{
			SMTPHost:    "smtp.example.com",
			SMTPPort:    587,
			FromAddress: "beacon@example.com",
		},
		sendMail: func(string, smtp.Auth, string, []string, []byte) error {
			time.Sleep(2 * time.Second)
			return nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := n.Send(ctx, testAlert())
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// The hung send must not have been waited out.
	assert.Less(t, elapsed, time.Second)
}

func TestEmailNotifier_RejectsHeaderInjection(t *testing.T) {
	n := &EmailNotifier{
		Config: config.EmailConfig{
			SMTPHost:    "smtp.example.com",
			SMTPPort:    587,
			FromAddress: "beacon@example.com",
		},
		sendMail: func(string, smtp.Auth, string, []string, []byte) error { return nil },
	}

	alert := testAlert()
	alert.Title = "evil\r\nBcc: spam@example.com"
	err := n.Send(context.Background(), alert)
	assert.ErrorContains(t, err, "invalid newline")
}

func TestBuild_KnownAndUnknownTypes(t *testing.T) {
	var channels config.ChannelsConfig
	client := &http.Client{}

	for _, typ := range config.ChannelTypes {
		adapter := Build(typ, channels, client)
		require.NotNil(t, adapter, "type %s", typ)
		assert.Equal(t, typ, adapter.Type())
	}
	assert.Nil(t, Build("carrier-pigeon", channels, client))
}

func TestValidate_UnconfiguredAdaptersFail(t *testing.T) {
	var channels config.ChannelsConfig
	client := &http.Client{}

	for _, typ := range config.ChannelTypes {
		assert.Error(t, Build(typ, channels, client).Validate(), "type %s", typ)
	}
}
