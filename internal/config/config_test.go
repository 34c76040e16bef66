package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	t.Setenv("TRACKD_API_KEY", "test-key")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "trackd.db", cfg.DBPath)
	assert.Equal(t, 5*time.Minute, cfg.SyncInterval)
	assert.Equal(t, 24*time.Hour, cfg.DefaultLookback)
	assert.Equal(t, 0.8, cfg.PolicyConfidenceThreshold)
	assert.False(t, cfg.PolicyAutoApprove)
	assert.False(t, cfg.SlackEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	os.Clearenv()
	t.Setenv("TRACKD_AUTH_MODE", "none")
	t.Setenv("TRACKD_SYNC_INTERVAL", "30s")
	t.Setenv("TRACKD_TENANT_DOMAIN", "ourco.example")
	t.Setenv("TRACKD_CLIENT_DOMAINS", "acme.com, globex.io")
	t.Setenv("TRACKD_EXCLUDE_PATTERNS", "out of office,newsletter")
	t.Setenv("TRACKD_POLICY_AUTO_APPROVE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.SyncInterval)
	assert.Equal(t, "ourco.example", cfg.TenantDomain)
	assert.Equal(t, []string{"acme.com", "globex.io"}, cfg.ClientDomainList())
	assert.Equal(t, []string{"out of office", "newsletter"}, cfg.ExcludePatternList())
	assert.True(t, cfg.PolicyAutoApprove)
}

func TestLoad_InvalidThresholdRejected(t *testing.T) {
	os.Clearenv()
	t.Setenv("TRACKD_API_KEY", "test-key")
	t.Setenv("TRACKD_POLICY_CONFIDENCE_THRESHOLD", "1.5")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_NegativeMinDurationRejected(t *testing.T) {
	os.Clearenv()
	t.Setenv("TRACKD_API_KEY", "test-key")
	t.Setenv("TRACKD_MIN_DURATION_MINUTES", "-3")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_APIKeyModeRequiresKey(t *testing.T) {
	os.Clearenv()

	// The out-of-the-box mode is api-key; without a key every request
	// would be rejected, so startup must refuse instead.
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRACKD_API_KEY")

	t.Setenv("TRACKD_AUTH_MODE", "none")
	_, err = Load()
	assert.NoError(t, err)
}

func TestSlackEnabled(t *testing.T) {
	cfg := &Config{SlackBotToken: "xoxb-test"}
	assert.False(t, cfg.SlackEnabled())

	cfg.SlackChannel = "#time-approvals"
	assert.True(t, cfg.SlackEnabled())
}

func TestListHelpers_Empty(t *testing.T) {
	cfg := &Config{}
	assert.Nil(t, cfg.ClientDomainList())
	assert.Nil(t, cfg.ExcludePatternList())
	assert.Nil(t, cfg.DisabledSourceList())
}
