package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/beaconlabs/beacon-core/internal/config"
)

// ErrUnauthorized is returned for a missing or invalid bearer credential.
var ErrUnauthorized = errors.New("missing or invalid authentication token")

// Guard validates bearer credentials against the configured key table.
// Two modes coexist: a single shared key valid for every service, and a
// per-service key table.
type Guard struct {
	store *config.Store
}

func NewGuard(store *config.Store) *Guard {
	return &Guard{store: store}
}

// AuthorizeHeartbeat admits a heartbeat for serviceID when the token matches
// the shared key or the service's own key.
func (g *Guard) AuthorizeHeartbeat(serviceID, token string) error {
	if token == "" {
		return ErrUnauthorized
	}
	authCfg := g.store.Get().Auth
	if keyMatches(authCfg.SharedKey, token) {
		return nil
	}
	if keyMatches(authCfg.ServiceKeys[serviceID], token) {
		return nil
	}
	return ErrUnauthorized
}

// AuthorizeAlert admits an alert submission. When the endpoint is configured
// public a missing token is accepted; when a token is required it must match
// the shared key or any per-service key.
func (g *Guard) AuthorizeAlert(token string) error {
	authCfg := g.store.Get().Auth
	if !authCfg.AlertRequireToken {
		return nil
	}
	if token == "" {
		return ErrUnauthorized
	}
	if keyMatches(authCfg.SharedKey, token) {
		return nil
	}
	for _, key := range authCfg.ServiceKeys {
		if keyMatches(key, token) {
			return nil
		}
	}
	return ErrUnauthorized
}

func keyMatches(key, token string) bool {
	if key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1
}

// ExtractBearer pulls the token out of an Authorization header value.
// Returns "" when the header is absent or not a bearer scheme.
func ExtractBearer(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
