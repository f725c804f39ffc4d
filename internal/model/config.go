package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// NotificationConfig holds settings for reminder delivery.
type NotificationConfig struct {
	// Gateway selects the delivery mechanism: "webpush", "smtp", or "none".
	Gateway string `mapstructure:"gateway" yaml:"gateway"`

	// VAPIDSubject is the contact URI sent to the push service
	// (typically a mailto: address). The private key lives in the keyring.
	VAPIDSubject   string `mapstructure:"vapid_subject" yaml:"vapid_subject"`
	VAPIDPublicKey string `mapstructure:"vapid_public_key" yaml:"vapid_public_key"`

	// SMTP settings for the email fallback gateway. The password lives
	// in the keyring.
	SMTPHost string `mapstructure:"smtp_host" yaml:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port" yaml:"smtp_port"`
	SMTPFrom string `mapstructure:"smtp_from" yaml:"smtp_from"`
	SMTPTo   string `mapstructure:"smtp_to" yaml:"smtp_to"`
	SMTPUser string `mapstructure:"smtp_user" yaml:"smtp_user"`
}

// CalendarConfig holds settings for Google Calendar mirroring.
// The OAuth client secret and token live in the keyring.
type CalendarConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	ClientID    string `mapstructure:"client_id" yaml:"client_id"`
	RedirectURL string `mapstructure:"redirect_url" yaml:"redirect_url"`
	CalendarID  string `mapstructure:"calendar_id" yaml:"calendar_id"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	DBPath       string             `mapstructure:"db_path" yaml:"db_path"`
	LogPath      string             `mapstructure:"log_path" yaml:"log_path"`
	Notification NotificationConfig `mapstructure:"notification" yaml:"notification"`
	Calendar     CalendarConfig     `mapstructure:"calendar" yaml:"calendar"`
	Display      DisplayConfig      `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/smarttasker/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "smarttasker", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	configDir := filepath.Dir(DefaultConfigPath())
	return &AppConfig{
		DBPath:  filepath.Join(configDir, "tasks.db"),
		LogPath: filepath.Join(configDir, "smarttasker.log"),
		Notification: NotificationConfig{
			Gateway:  "none",
			SMTPPort: 587,
		},
		Calendar: CalendarConfig{
			CalendarID: "primary",
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	configDir := filepath.Dir(path)
	v.SetDefault("db_path", filepath.Join(configDir, "tasks.db"))
	v.SetDefault("log_path", filepath.Join(configDir, "smarttasker.log"))
	v.SetDefault("notification.gateway", "none")
	v.SetDefault("notification.smtp_port", 587)
	v.SetDefault("calendar.calendar_id", "primary")
	v.SetDefault("display.theme", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("db_path", cfg.DBPath)
	v.Set("log_path", cfg.LogPath)
	v.Set("notification", cfg.Notification)
	v.Set("calendar", cfg.Calendar)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
