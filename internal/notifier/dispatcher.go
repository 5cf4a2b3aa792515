package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/beaconlabs/beacon-core/internal/config"
	"github.com/beaconlabs/beacon-core/internal/metrics"
	"github.com/beaconlabs/beacon-core/internal/models"
	"github.com/beaconlabs/beacon-core/pkg/logger"
)

// Dispatcher fans one alert out to a resolved channel list. Each adapter
// runs in its own goroutine with its own timeout; one adapter timing out or
// failing never cancels or delays its siblings. Adapter failures are the
// only error class retried here: they are transient infrastructure faults,
// not caller mistakes.
type Dispatcher struct {
	cfg    *config.Store
	log    logger.Logger
	client *http.Client

	// build is swapped in tests to inject fake adapters.
	build func(channelType string, channels config.ChannelsConfig, client *http.Client) Notifier
}

func NewDispatcher(cfg *config.Store, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		cfg: cfg,
		log: log,
		// Transport-level cap; per-attempt deadlines come from config and
		// are applied through the request context.
		client: &http.Client{Timeout: 30 * time.Second},
		build:  Build,
	}
}

// Dispatch sends the alert to every named channel concurrently and returns
// one result per channel, in the input order. It never fails as a whole;
// callers that care about delivery inspect the result set.
func (d *Dispatcher) Dispatch(ctx context.Context, alert models.Alert, channels []string) []models.DispatchResult {
	if len(channels) == 0 {
		return nil
	}

	cfg := d.cfg.Get()
	results := make([]models.DispatchResult, len(channels))

	var wg sync.WaitGroup
	for i, channelType := range channels {
		wg.Add(1)
		go func(i int, channelType string) {
			defer wg.Done()
			results[i] = d.send(ctx, alert, channelType, cfg)
		}(i, channelType)
	}
	wg.Wait()

	for _, res := range results {
		metrics.NotificationsSent.WithLabelValues(res.Channel, fmt.Sprintf("%t", res.Success)).Inc()
		if res.Success {
			d.log.Info("notification sent", "channel", res.Channel, "alert_id", alert.ID, "severity", alert.Severity)
		} else {
			d.log.Error("notification failed", "channel", res.Channel, "alert_id", alert.ID, "error", res.Error)
		}
	}
	return results
}

func (d *Dispatcher) send(ctx context.Context, alert models.Alert, channelType string, cfg *config.Config) models.DispatchResult {
	result := models.DispatchResult{Channel: channelType}

	adapter := d.build(channelType, cfg.Channels, d.client)
	if adapter == nil {
		result.Error = fmt.Sprintf("unknown channel type %q", channelType)
		return result
	}
	if err := adapter.Validate(); err != nil {
		result.Error = err.Error()
		return result
	}

	timeout := cfg.Dispatch.TimeoutDuration()
	backoff := cfg.Dispatch.RetryBackoffDuration()
	attempts := cfg.Dispatch.RetryAttempts + 1

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				result.Error = dispatchErrorString(ctx.Err())
				return result
			case <-time.After(backoff << (attempt - 1)):
			}
		}

		start := time.Now()
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		err := adapter.Send(attemptCtx, alert)
		cancel()
		metrics.NotificationDuration.WithLabelValues(channelType).Observe(time.Since(start).Seconds())

		if err == nil {
			result.Success = true
			return result
		}
		lastErr = err
		d.log.Warn("notification attempt failed",
			"channel", channelType,
			"alert_id", alert.ID,
			"attempt", attempt+1,
			"error", err,
		)
	}

	result.Error = dispatchErrorString(lastErr)
	return result
}

// dispatchErrorString collapses deadline errors to the stable "timeout"
// marker callers and tests key on.
func dispatchErrorString(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return err.Error()
}
