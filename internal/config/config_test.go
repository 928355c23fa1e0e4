package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	require.NoError(t, Init(""))
}

func TestLoadDefaults(t *testing.T) {
	initConfig(t)

	cfg := Load()
	assert.Equal(t, []string{"Faire", "Airgoods"}, cfg.Channels)
	assert.Equal(t, 12, cfg.LookbackMonths)
	assert.Equal(t, "pending-locations.json", cfg.PendingFile)
	assert.Equal(t, "rejected-locations.json", cfg.RejectedFile)
	assert.Equal(t, 465, cfg.Email.Port)
}

func TestLoadBindsConventionalEnvNames(t *testing.T) {
	t.Setenv("SHOPIFY_API_KEY", "key-from-env")
	t.Setenv("SHOPIFY_PASSWORD", "pass-from-env")
	t.Setenv("GOOGLE_GEOCODE_API_KEY", "geo-from-env")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-from-env")
	t.Setenv("GMAIL_PASSWORD", "mail-from-env")
	initConfig(t)

	cfg := Load()
	assert.Equal(t, "key-from-env", cfg.APIKey)
	assert.Equal(t, "pass-from-env", cfg.APIPassword)
	assert.Equal(t, "geo-from-env", cfg.GeocodeAPIKey)
	assert.Equal(t, "xoxb-from-env", cfg.SlackToken)
	assert.Equal(t, "mail-from-env", cfg.Email.Password)
}
