package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
		CORS struct {
			AllowedOrigins []string `yaml:"allowed_origins"`
		} `yaml:"cors"`
	} `yaml:"server"`

	Backend struct {
		BaseURL            string `yaml:"base_url"`
		APIKey             string `yaml:"api_key"`
		ApartmentService   string `yaml:"apartment_service"`
		DiscountService    string `yaml:"discount_service"`
		ReservationService string `yaml:"reservation_service"`
		CacheTTLSeconds    int    `yaml:"cache_ttl_seconds"`
		RatePerSecond      float64 `yaml:"rate_per_second"`
		RateBurst          int    `yaml:"rate_burst"`
	} `yaml:"backend"`

	ImageHost struct {
		UploadURL string `yaml:"upload_url"`
		APIKey    string `yaml:"api_key"`
	} `yaml:"image_host"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Alerts struct {
		PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	} `yaml:"alerts"`

	Audit struct {
		Enabled    bool   `yaml:"enabled"`
		Path       string `yaml:"path"`
		ExportPath string `yaml:"export_path"`
	} `yaml:"audit"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://localhost:3000"
	}
	if cfg.Backend.ApartmentService == "" {
		cfg.Backend.ApartmentService = cfg.Backend.BaseURL + "/api/apartment-service"
	}
	if cfg.Backend.DiscountService == "" {
		cfg.Backend.DiscountService = cfg.Backend.BaseURL + "/api/discount-code-service"
	}
	if cfg.Backend.ReservationService == "" {
		cfg.Backend.ReservationService = cfg.Backend.BaseURL + "/api/reservation-service"
	}
	if cfg.Audit.Path == "" {
		cfg.Audit.Path = "data/apartadmin_audit.db"
	}

	return &cfg, nil
}

// AlertPollInterval returns the alert poll interval with its default.
func (c *Config) AlertPollInterval() time.Duration {
	if c.Alerts.PollIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Alerts.PollIntervalSeconds) * time.Second
}

// CacheTTL returns the backend list-cache TTL; zero disables caching.
func (c *Config) CacheTTL() time.Duration {
	if c.Backend.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Backend.CacheTTLSeconds) * time.Second
}
