package notifier

import (
	"context"
	"errors"
	"net/http"
	"net/smtp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconlabs/beacon-core/internal/config"
	"github.com/beaconlabs/beacon-core/internal/models"
	"github.com/beaconlabs/beacon-core/pkg/logger"
)

type fakeAdapter struct {
	channelType string
	delay       time.Duration
	err         error
	failFirstN  int32

	calls int32
}

func (f *fakeAdapter) Type() string    { return f.channelType }
func (f *fakeAdapter) Validate() error { return nil }

func (f *fakeAdapter) Send(ctx context.Context, alert models.Alert) error {
	n := atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.failFirstN > 0 && n <= f.failFirstN {
		return errors.New("transient fault")
	}
	return f.err
}

func dispatcherWith(t *testing.T, dispatch config.DispatchConfig, adapters map[string]*fakeAdapter) *Dispatcher {
	t.Helper()
	d := NewDispatcher(config.NewStore(&config.Config{Dispatch: dispatch}), logger.NewNop())
	d.build = func(channelType string, _ config.ChannelsConfig, _ *http.Client) Notifier {
		a, ok := adapters[channelType]
		if !ok {
			return nil
		}
		return a
	}
	return d
}

func TestDispatch_AllSucceed(t *testing.T) {
	d := dispatcherWith(t, config.DispatchConfig{Timeout: 5}, map[string]*fakeAdapter{
		"discord": {channelType: "discord"},
		"slack":   {channelType: "slack"},
	})

	results := d.Dispatch(context.Background(), models.Alert{ID: "a1"}, []string{"discord", "slack"})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Success, "channel %s", r.Channel)
		assert.Empty(t, r.Error)
	}
}

func TestDispatch_TimeoutIsolatedFromSiblings(t *testing.T) {
	d := dispatcherWith(t, config.DispatchConfig{Timeout: 1}, map[string]*fakeAdapter{
		"slow": {channelType: "slow", delay: 5 * time.Second},
		"fast": {channelType: "fast"},
	})

	start := time.Now()
	results := d.Dispatch(context.Background(), models.Alert{ID: "a1"}, []string{"slow", "fast"})
	elapsed := time.Since(start)

	require.Len(t, results, 2)
	byChannel := map[string]models.DispatchResult{}
	for _, r := range results {
		byChannel[r.Channel] = r
	}

	assert.False(t, byChannel["slow"].Success)
	assert.Equal(t, "timeout", byChannel["slow"].Error)
	assert.True(t, byChannel["fast"].Success)
	// The slow adapter's 5s sleep must not have been waited out.
	assert.Less(t, elapsed, 3*time.Second)
}

func TestDispatch_FailureDoesNotAffectOthers(t *testing.T) {
	d := dispatcherWith(t, config.DispatchConfig{Timeout: 5}, map[string]*fakeAdapter{
		"bad":  {channelType: "bad", err: errors.New("boom")},
		"good": {channelType: "good"},
	})

	results := d.Dispatch(context.Background(), models.Alert{ID: "a1"}, []string{"bad", "good"})
	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.Equal(t, "boom", results[0].Error)
	assert.True(t, results[1].Success)
}

func TestDispatch_RetriesTransientFailures(t *testing.T) {
	fa := &fakeAdapter{channelType: "flaky", failFirstN: 2}
	d := dispatcherWith(t, config.DispatchConfig{Timeout: 5, RetryAttempts: 2, RetryBackoff: 1}, map[string]*fakeAdapter{
		"flaky": fa,
	})

	results := d.Dispatch(context.Background(), models.Alert{ID: "a1"}, []string{"flaky"})
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, int32(3), atomic.LoadInt32(&fa.calls))
}

func TestDispatch_RetriesExhausted(t *testing.T) {
	fa := &fakeAdapter{channelType: "broken", err: errors.New("still down")}
	d := dispatcherWith(t, config.DispatchConfig{Timeout: 5, RetryAttempts: 1, RetryBackoff: 1}, map[string]*fakeAdapter{
		"broken": fa,
	})

	results := d.Dispatch(context.Background(), models.Alert{ID: "a1"}, []string{"broken"})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, "still down", results[0].Error)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fa.calls))
}

func TestDispatch_SlowSMTPSendReportedAsTimeout(t *testing.T) {
	slow := &EmailNotifier{
		Config: config.EmailConfig{
			SMTPHost:    "smtp.example.com",
			SMTPPort:    587,
			FromAddress: "beacon@example.com",
		},
		sendMail: func(string, smtp.Auth, string, []string, []byte) error {
			time.Sleep(3 * time.Second)
			return nil
		},
	}
	d := NewDispatcher(config.NewStore(&config.Config{
		Dispatch: config.DispatchConfig{Timeout: 1},
	}), logger.NewNop())
	d.build = func(string, config.ChannelsConfig, *http.Client) Notifier { return slow }

	start := time.Now()
	results := d.Dispatch(context.Background(), models.Alert{ID: "a1"}, []string{"email"})
	elapsed := time.Since(start)

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, "timeout", results[0].Error)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestDispatch_UnknownChannel(t *testing.T) {
	d := dispatcherWith(t, config.DispatchConfig{Timeout: 5}, nil)

	results := d.Dispatch(context.Background(), models.Alert{}, []string{"nonsense"})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "unknown channel type")
}

func TestDispatch_EmptyChannelList(t *testing.T) {
	d := dispatcherWith(t, config.DispatchConfig{Timeout: 5}, nil)
	assert.Nil(t, d.Dispatch(context.Background(), models.Alert{}, nil))
}
