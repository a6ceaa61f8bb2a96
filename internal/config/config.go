package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type DetectorConfig struct {
	BaseURL string
	Timeout time.Duration
}

type MonitorConfig struct {
	Interval             time.Duration
	MinOverlap           float64
	MinConfidence        float64
	OpenDebounce         int
	CloseDebounce        int
	GapTolerance         int
	DriftRadius          float64
	AlertThresholdsHours []float64
	StatsWindowDays      int
	RetentionDays        int
	AutoStart            bool
}

type NotifyConfig struct {
	URL string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Detector    DetectorConfig
	Monitor     MonitorConfig
	Notify      NotifyConfig
	SpotsFile   string
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Detector: DetectorConfig{
			BaseURL: v.GetString("DETECTOR_URL"),
			Timeout: v.GetDuration("DETECTOR_TIMEOUT"),
		},
		Monitor: MonitorConfig{
			Interval:             v.GetDuration("DETECTION_INTERVAL"),
			MinOverlap:           v.GetFloat64("CONTAINMENT_THRESHOLD"),
			MinConfidence:        v.GetFloat64("CONFIDENCE_THRESHOLD"),
			OpenDebounce:         v.GetInt("OPEN_DEBOUNCE_CYCLES"),
			CloseDebounce:        v.GetInt("CLOSE_DEBOUNCE_CYCLES"),
			GapTolerance:         v.GetInt("IDENTITY_GAP_TOLERANCE"),
			DriftRadius:          v.GetFloat64("IDENTITY_DRIFT_RADIUS"),
			AlertThresholdsHours: parseThresholds(v.GetString("ALERT_THRESHOLDS_HOURS")),
			StatsWindowDays:      v.GetInt("STATS_WINDOW_DAYS"),
			RetentionDays:        v.GetInt("RETENTION_DAYS"),
			AutoStart:            v.GetBool("MONITOR_AUTO_START"),
		},
		Notify: NotifyConfig{
			URL: v.GetString("NOTIFY_URL"),
		},
		SpotsFile: v.GetString("SPOTS_FILE"),
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Detector.Timeout == 0 {
		cfg.Detector.Timeout = 5 * time.Second
	}
	if cfg.Monitor.Interval == 0 {
		cfg.Monitor.Interval = 5 * time.Second
	}
	if cfg.Monitor.MinOverlap == 0 {
		cfg.Monitor.MinOverlap = 0.5
	}
	if cfg.Monitor.MinConfidence == 0 {
		cfg.Monitor.MinConfidence = 0.5
	}
	if cfg.Monitor.OpenDebounce == 0 {
		cfg.Monitor.OpenDebounce = 1
	}
	if cfg.Monitor.CloseDebounce == 0 {
		cfg.Monitor.CloseDebounce = 3
	}
	if cfg.Monitor.GapTolerance == 0 {
		cfg.Monitor.GapTolerance = 3
	}
	if cfg.Monitor.DriftRadius == 0 {
		cfg.Monitor.DriftRadius = 50
	}
	if len(cfg.Monitor.AlertThresholdsHours) == 0 {
		cfg.Monitor.AlertThresholdsHours = []float64{5}
	}
	if cfg.Monitor.StatsWindowDays == 0 {
		cfg.Monitor.StatsWindowDays = 7
	}
	if cfg.SpotsFile == "" {
		cfg.SpotsFile = "./config/spots.json"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Detector.BaseURL == "" {
		return fmt.Errorf("DETECTOR_URL is required")
	}
	if cfg.Monitor.MinOverlap < 0 || cfg.Monitor.MinOverlap > 1 {
		return fmt.Errorf("CONTAINMENT_THRESHOLD must be within [0,1]")
	}
	if cfg.Monitor.MinConfidence < 0 || cfg.Monitor.MinConfidence > 1 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD must be within [0,1]")
	}
	return nil
}

// parseThresholds reads a comma-separated list of alert thresholds in hours,
// e.g. "3,5".
func parseThresholds(raw string) []float64 {
	var out []float64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := strconv.ParseFloat(part, 64)
		if err != nil || h <= 0 {
			continue
		}
		out = append(out, h)
	}
	return out
}
