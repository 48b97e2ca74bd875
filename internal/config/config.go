package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting of the tag-guard daemon and client.
type Config struct {
	// TargetName is the advertised BLE device name of the tracked tag.
	TargetName string `yaml:"target_name"`
	// RSSIThreshold is the dBm level above which a sample counts as safe.
	RSSIThreshold int `yaml:"rssi_threshold"`
	// DangerThreshold is the number of consecutive weak samples that raise a distance alert.
	DangerThreshold uint `yaml:"danger_threshold"`
	// AlertDuration is how long the buzzer sounds before the alert expires on its own.
	AlertDuration time.Duration `yaml:"alert_duration"`
	// SignalLossTimeout is the silence after which the tag is considered lost.
	SignalLossTimeout time.Duration `yaml:"signal_loss_timeout"`
	// TickInterval is the period of the timeout and expiry checks.
	TickInterval time.Duration `yaml:"tick_interval"`

	// Buzzer configures the PWM buzzer output.
	Buzzer Buzzer `yaml:"buzzer"`
	// Notifier configures push notification delivery.
	Notifier Notifier `yaml:"notifier"`

	// ServerAddress is the gRPC status endpoint address.
	ServerAddress string `yaml:"server_addr"`
	// MetricsAddress is the listen address of the Prometheus endpoint, empty disables it.
	MetricsAddress string `yaml:"metrics_addr"`
	// DeviceFile is the path of the JSON file storing the registered phone token.
	DeviceFile string `yaml:"device_file"`
	// Timeout bounds network calls (gRPC and push delivery).
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Buzzer holds buzzer hardware settings.
type Buzzer struct {
	// Pin is the periph GPIO name driving the buzzer, e.g. GPIO18.
	Pin string `yaml:"pin"`
	// FrequencyHz is the PWM oscillation frequency.
	FrequencyHz int `yaml:"frequency_hz"`
	// OnPercent is the duty cycle used while an alert sounds.
	OnPercent int `yaml:"on_percent"`
}

// Notifier holds push delivery settings.
type Notifier struct {
	// ProjectID is the Firebase project identifier.
	ProjectID string `yaml:"project_id"`
	// CredentialsFile is the Google service account JSON key.
	CredentialsFile string `yaml:"credentials_file"`
	// DeviceToken is a static target token, used when no device registered itself.
	DeviceToken string `yaml:"device_token"`
	// Endpoint overrides the FCM base URL (tests, proxies).
	Endpoint string `yaml:"endpoint"`
	// MinInterval is the minimum spacing between two outgoing pushes.
	MinInterval time.Duration `yaml:"min_interval"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "tag-guard-settings.yaml"

	// DefaultDeviceFilename is the default filename of the device registration.
	DefaultDeviceFilename = "tag-guard-device.json"

	// DefaultTargetName is the name the tag firmware advertises.
	DefaultTargetName = "CHILD_TAG"

	// DefaultRSSIThreshold is the safe/weak boundary in dBm.
	DefaultRSSIThreshold = -75

	// DefaultDangerThreshold is the consecutive weak samples needed for a distance alert.
	DefaultDangerThreshold = 5

	// DefaultAlertDuration is the buzzer time of one alert episode.
	DefaultAlertDuration = 3 * time.Second

	// DefaultSignalLossTimeout is the silence that counts as signal loss.
	DefaultSignalLossTimeout = 10 * time.Second

	// DefaultTickInterval is the period of timeout and expiry checks.
	DefaultTickInterval = time.Second

	// DefaultServerAddress is where the daemon serves gRPC status.
	DefaultServerAddress = "127.0.0.1:50061"

	// DefaultBuzzerPin is the BCM pin wired to the buzzer.
	DefaultBuzzerPin = "GPIO18"

	// DefaultBuzzerFrequencyHz is the buzzer tone.
	DefaultBuzzerFrequencyHz = 2000

	// DefaultBuzzerOnPercent is the duty cycle of a sounding buzzer.
	DefaultBuzzerOnPercent = 50

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultPushInterval spaces consecutive pushes.
	DefaultPushInterval = time.Second

	// DefaultFilePermissions is the permission of written settings and device files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// ErrInvalidThreshold is returned for a zero danger threshold or out-of-range RSSI threshold.
	ErrInvalidThreshold = errors.New("invalid threshold")
	// ErrInvalidDuration is returned when a timing setting is negative.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidBuzzer is returned for out-of-range buzzer settings.
	ErrInvalidBuzzer = errors.New("invalid buzzer settings")
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := new(Config)

	//nolint:errcheck // Defaults always validate.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Settings may reference credentials, keep them private.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults for zero values and rejects malformed settings.
// Notifier settings are not validated here: a broken notifier degrades
// alerting to buzzer-only instead of stopping the daemon.
//
//nolint:cyclop // A flat list of defaults reads better than helpers.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.TargetName == "" {
		cfg.TargetName = DefaultTargetName
	}

	if cfg.RSSIThreshold == 0 {
		cfg.RSSIThreshold = DefaultRSSIThreshold
	}

	if cfg.RSSIThreshold > 0 || cfg.RSSIThreshold < -127 {
		return fmt.Errorf("rssi threshold %d dBm: %w", cfg.RSSIThreshold, ErrInvalidThreshold)
	}

	if cfg.DangerThreshold == 0 {
		cfg.DangerThreshold = DefaultDangerThreshold
	}

	durations := []struct {
		name  string
		value *time.Duration
		def   time.Duration
	}{
		{"alert_duration", &cfg.AlertDuration, DefaultAlertDuration},
		{"signal_loss_timeout", &cfg.SignalLossTimeout, DefaultSignalLossTimeout},
		{"tick_interval", &cfg.TickInterval, DefaultTickInterval},
		{"timeout", &cfg.Timeout, DefaultTimeout},
		{"notifier.min_interval", &cfg.Notifier.MinInterval, DefaultPushInterval},
	}

	for _, d := range durations {
		if *d.value < 0 {
			return fmt.Errorf("%s is %s: %w", d.name, *d.value, ErrInvalidDuration)
		}

		if *d.value == 0 {
			*d.value = d.def
		}
	}

	if err := validateBuzzer(&cfg.Buzzer); err != nil {
		return err
	}

	if cfg.ServerAddress == "" {
		cfg.ServerAddress = DefaultServerAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ServerAddress); err != nil {
		return fmt.Errorf("invalid server address: %w", err)
	}

	if cfg.MetricsAddress != "" {
		if _, _, err := net.SplitHostPort(cfg.MetricsAddress); err != nil {
			return fmt.Errorf("invalid metrics address: %w", err)
		}
	}

	if cfg.DeviceFile == "" {
		cfg.DeviceFile = DefaultDeviceFilename
	}

	return nil
}

// validateBuzzer fills buzzer defaults and checks ranges.
func validateBuzzer(b *Buzzer) error {
	if b.Pin == "" {
		b.Pin = DefaultBuzzerPin
	}

	if b.FrequencyHz == 0 {
		b.FrequencyHz = DefaultBuzzerFrequencyHz
	}

	if b.OnPercent == 0 {
		b.OnPercent = DefaultBuzzerOnPercent
	}

	if b.FrequencyHz < 0 {
		return fmt.Errorf("frequency %d Hz: %w", b.FrequencyHz, ErrInvalidBuzzer)
	}

	if b.OnPercent < 0 || b.OnPercent > 100 {
		return fmt.Errorf("on_percent %d: %w", b.OnPercent, ErrInvalidBuzzer)
	}

	return nil
}
