package notifier

import (
	"github.com/beaconlabs/beacon-core/internal/config"
	"github.com/beaconlabs/beacon-core/internal/models"
)

// Router decides which channels receive a given alert. Severity is never a
// routing filter on its own; it participates only when a deployment
// configures explicit per-severity channel sets.
type Router struct {
	cfg *config.Store
}

func NewRouter(cfg *config.Store) *Router {
	return &Router{cfg: cfg}
}

// Route returns the ordered channel identifiers to notify.
//
// Precedence: an explicit Alert.Channels list wins, intersected with the
// enabled channels (a named but disabled or unconfigured channel is silently
// dropped, not an error). Otherwise a configured severity set for the
// alert's severity applies, same intersection. Otherwise every enabled
// channel receives the alert.
func (r *Router) Route(alert models.Alert) []string {
	cfg := r.cfg.Get()

	if len(alert.Channels) > 0 {
		return intersectEnabled(alert.Channels, cfg.Channels)
	}
	if set, ok := cfg.Routing.SeverityChannels[string(alert.Severity)]; ok && len(set) > 0 {
		return intersectEnabled(set, cfg.Channels)
	}
	return cfg.Channels.EnabledTypes()
}

func intersectEnabled(requested []string, channels config.ChannelsConfig) []string {
	var out []string
	seen := make(map[string]bool, len(requested))
	for _, ch := range requested {
		if seen[ch] || !channels.Enabled(ch) {
			continue
		}
		seen[ch] = true
		out = append(out, ch)
	}
	return out
}
