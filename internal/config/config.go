// Package config loads application configuration from flags, a YAML config
// file, and environment variables via Viper.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/stockistmap/stockistmap/internal/notify"
	"github.com/stockistmap/stockistmap/pkg/orders"
	"github.com/stockistmap/stockistmap/pkg/submissions"
)

// Config is the resolved application configuration.
type Config struct {
	// Commerce platform credentials.
	Shop        string
	APIKey      string
	APIPassword string

	// Geocoding.
	GeocodeAPIKey string

	// Reconciliation.
	Channels       []string
	LookbackMonths int

	// Submission store files.
	PendingFile  string
	RejectedFile string

	// SnapshotFile switches the asset store to a local file when set.
	SnapshotFile string

	// Notifications.
	SlackToken   string
	SlackChannel string
	Email        notify.EmailConfig
}

// Init wires Viper defaults, env binding, and optional config file. Call
// once from the CLI before Load.
func Init(configFile string) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".stockistmap")
	}

	// .env files load before env binding so Viper sees their values.
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := bindEnvAliases(); err != nil {
		return err
	}
	setDefaults()

	// A missing config file is fine; env and defaults carry the run.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}

// bindEnvAliases binds the conventional environment variable names to
// their config keys, so env precedence stays inside Viper.
func bindEnvAliases() error {
	aliases := map[string]string{
		"api_key":         "SHOPIFY_API_KEY",
		"api_password":    "SHOPIFY_PASSWORD",
		"geocode_api_key": "GOOGLE_GEOCODE_API_KEY",
		"slack.token":     "SLACK_BOT_TOKEN",
		"email.password":  "GMAIL_PASSWORD",
	}
	for key, env := range aliases {
		if err := viper.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("channels", []string{"Faire", "Airgoods"})
	viper.SetDefault("lookback_months", orders.DefaultLookbackMonths)
	viper.SetDefault("pending_file", submissions.DefaultPendingFile)
	viper.SetDefault("rejected_file", submissions.DefaultRejectedFile)
	viper.SetDefault("email.port", 465)
}

// Load resolves the configuration from Viper's current state.
func Load() *Config {
	return &Config{
		Shop:           viper.GetString("shop"),
		APIKey:         viper.GetString("api_key"),
		APIPassword:    viper.GetString("api_password"),
		GeocodeAPIKey:  viper.GetString("geocode_api_key"),
		Channels:       viper.GetStringSlice("channels"),
		LookbackMonths: viper.GetInt("lookback_months"),
		PendingFile:    viper.GetString("pending_file"),
		RejectedFile:   viper.GetString("rejected_file"),
		SnapshotFile:   viper.GetString("snapshot_file"),
		SlackToken:     viper.GetString("slack.token"),
		SlackChannel:   viper.GetString("slack.channel"),
		Email: notify.EmailConfig{
			Host:     viper.GetString("email.host"),
			Port:     viper.GetInt("email.port"),
			Username: viper.GetString("email.username"),
			Password: viper.GetString("email.password"),
			From:     viper.GetString("email.from"),
			To:       viper.GetString("email.to"),
		},
	}
}

// loadEnvFiles loads environment variables from .env files, .env.local
// taking precedence.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		_ = godotenv.Overload(envFile)
	}
}
