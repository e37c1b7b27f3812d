package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix              = "AURA"
	defaultHTTPAddress     = "127.0.0.1:8080"
	defaultDatabasePath    = "aura.db"
	defaultLogLevel        = "info"
	defaultHooksIssuer     = "aura-cms"
	defaultRemoteDriver    = RemoteDriverFirestore
	defaultPluginDir       = "."
	defaultCredentialsPath = "config/firebase-service-account.json"
)

// Supported remote drivers.
const (
	RemoteDriverFirestore = "firestore"
	RemoteDriverSQLite    = "sqlite"
	RemoteDriverNone      = "none"
)

// AppConfig captures runtime configuration for the sync service.
type AppConfig struct {
	HTTPAddress        string
	DatabasePath       string
	LogLevel           string
	HooksSigningSecret string
	HooksIssuer        string
	RemoteDriver       string
	RemoteProjectID    string
	PluginDir          string
	credentialsPath    string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("hooks.issuer", defaultHooksIssuer)
	configViper.SetDefault("remote.driver", defaultRemoteDriver)
	configViper.SetDefault("remote.credentials_path", defaultCredentialsPath)
	configViper.SetDefault("remote.project_id", "")
	configViper.SetDefault("plugin.dir", defaultPluginDir)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:        configViper.GetString("http.address"),
		DatabasePath:       configViper.GetString("database.path"),
		LogLevel:           configViper.GetString("log.level"),
		HooksSigningSecret: configViper.GetString("hooks.signing_secret"),
		HooksIssuer:        configViper.GetString("hooks.issuer"),
		RemoteDriver:       strings.ToLower(strings.TrimSpace(configViper.GetString("remote.driver"))),
		RemoteProjectID:    configViper.GetString("remote.project_id"),
		PluginDir:          configViper.GetString("plugin.dir"),
		credentialsPath:    configViper.GetString("remote.credentials_path"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

// CredentialsPath resolves the Firestore credentials file, relative paths being taken from the plugin directory.
func (c AppConfig) CredentialsPath() string {
	path := strings.TrimSpace(c.credentialsPath)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.PluginDir, path)
}

// ValidateHooks checks the settings only the hook endpoints need.
func (c AppConfig) ValidateHooks() error {
	if strings.TrimSpace(c.HooksSigningSecret) == "" {
		return fmt.Errorf("hooks.signing_secret is required")
	}
	if strings.TrimSpace(c.HooksIssuer) == "" {
		return fmt.Errorf("hooks.issuer is required")
	}
	return nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.RemoteDriver {
	case RemoteDriverFirestore, RemoteDriverSQLite, RemoteDriverNone:
	default:
		return fmt.Errorf("remote.driver %q is not supported", c.RemoteDriver)
	}
	return nil
}
