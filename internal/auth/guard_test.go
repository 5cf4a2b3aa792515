package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconlabs/beacon-core/internal/config"
)

func guardWith(authCfg config.AuthConfig) *Guard {
	return NewGuard(config.NewStore(&config.Config{Auth: authCfg}))
}

func TestAuthorizeHeartbeat_SharedKey(t *testing.T) {
	g := guardWith(config.AuthConfig{SharedKey: "shared-secret"})

	require.NoError(t, g.AuthorizeHeartbeat("service-1", "shared-secret"))
	require.NoError(t, g.AuthorizeHeartbeat("service-2", "shared-secret"))
	assert.ErrorIs(t, g.AuthorizeHeartbeat("service-1", "wrong"), ErrUnauthorized)
	assert.ErrorIs(t, g.AuthorizeHeartbeat("service-1", ""), ErrUnauthorized)
}

func TestAuthorizeHeartbeat_PerServiceKeys(t *testing.T) {
	g := guardWith(config.AuthConfig{
		ServiceKeys: map[string]string{
			"service-1": "key-1",
			"service-2": "key-2",
		},
	})

	require.NoError(t, g.AuthorizeHeartbeat("service-1", "key-1"))
	// A service's key never authorizes another service.
	assert.ErrorIs(t, g.AuthorizeHeartbeat("service-2", "key-1"), ErrUnauthorized)
	assert.ErrorIs(t, g.AuthorizeHeartbeat("service-3", "key-1"), ErrUnauthorized)
}

func TestAuthorizeHeartbeat_BothModes(t *testing.T) {
	g := guardWith(config.AuthConfig{
		SharedKey:   "shared-secret",
		ServiceKeys: map[string]string{"service-1": "key-1"},
	})

	require.NoError(t, g.AuthorizeHeartbeat("service-1", "key-1"))
	require.NoError(t, g.AuthorizeHeartbeat("service-1", "shared-secret"))
}

func TestAuthorizeAlert_PublicEndpoint(t *testing.T) {
	g := guardWith(config.AuthConfig{SharedKey: "shared-secret", AlertRequireToken: false})

	require.NoError(t, g.AuthorizeAlert(""))
	require.NoError(t, g.AuthorizeAlert("anything"))
}

func TestAuthorizeAlert_TokenRequired(t *testing.T) {
	g := guardWith(config.AuthConfig{
		SharedKey:         "shared-secret",
		ServiceKeys:       map[string]string{"service-1": "key-1"},
		AlertRequireToken: true,
	})

	assert.ErrorIs(t, g.AuthorizeAlert(""), ErrUnauthorized)
	assert.ErrorIs(t, g.AuthorizeAlert("wrong"), ErrUnauthorized)
	require.NoError(t, g.AuthorizeAlert("shared-secret"))
	require.NoError(t, g.AuthorizeAlert("key-1"))
}

func TestExtractBearer(t *testing.T) {
	assert.Equal(t, "abc", ExtractBearer("Bearer abc"))
	assert.Equal(t, "abc", ExtractBearer("bearer abc"))
	assert.Equal(t, "", ExtractBearer(""))
	assert.Equal(t, "", ExtractBearer("Basic abc"))
	assert.Equal(t, "", ExtractBearer("Bearer"))
}
