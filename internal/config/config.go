package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr     string `yaml:"listen_addr"`
	DBPath         string `yaml:"db_path"`
	PhotoPath      string `yaml:"photo_local_path"`
	PlacesAPIKey   string `yaml:"places_api_key"`
	PlacesBaseURL  string `yaml:"places_base_url"`
	PhotoMaxWidth  int    `yaml:"photo_max_width"`
	PhotoMaxHeight int    `yaml:"photo_max_height"`
	LogLevel       string `yaml:"log_level"`
	LogFile        string `yaml:"log_file"`
	// WatchInterval is how often live bookmark queries poll for writes made
	// by other processes sharing the database.
	WatchInterval time.Duration `yaml:"watch_interval"`
}

func defaults() *Config {
	return &Config{
		ListenAddr:     ":8080",
		DBPath:         "/data/placebook.db",
		PhotoPath:      "/data/photos",
		PlacesBaseURL:  "https://places.googleapis.com",
		PhotoMaxWidth:  512,
		PhotoMaxHeight: 512,
		LogLevel:       "info",
		WatchInterval:  500 * time.Millisecond,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// PLACEBOOK_CONFIG (if set), then environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("PLACEBOOK_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.PhotoPath = getEnv("PHOTO_LOCAL_PATH", cfg.PhotoPath)
	cfg.PlacesAPIKey = getEnv("PLACES_API_KEY", cfg.PlacesAPIKey)
	cfg.PlacesBaseURL = getEnv("PLACES_BASE_URL", cfg.PlacesBaseURL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)

	var err error
	if cfg.PhotoMaxWidth, err = getEnvInt("PHOTO_MAX_WIDTH", cfg.PhotoMaxWidth); err != nil {
		return nil, err
	}
	if cfg.PhotoMaxHeight, err = getEnvInt("PHOTO_MAX_HEIGHT", cfg.PhotoMaxHeight); err != nil {
		return nil, err
	}
	if cfg.WatchInterval, err = getEnvDuration("WATCH_INTERVAL", cfg.WatchInterval); err != nil {
		return nil, err
	}
	if cfg.WatchInterval <= 0 {
		return nil, fmt.Errorf("watch interval must be positive, got %s", cfg.WatchInterval)
	}
	if cfg.PhotoMaxWidth <= 0 || cfg.PhotoMaxHeight <= 0 {
		return nil, fmt.Errorf("photo bounds must be positive, got %dx%d", cfg.PhotoMaxWidth, cfg.PhotoMaxHeight)
	}

	return cfg, nil
}

// overlayFile replaces fields with the non-zero values found in the YAML file.
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	overlay := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	overlay(&c.ListenAddr, file.ListenAddr)
	overlay(&c.DBPath, file.DBPath)
	overlay(&c.PhotoPath, file.PhotoPath)
	overlay(&c.PlacesAPIKey, file.PlacesAPIKey)
	overlay(&c.PlacesBaseURL, file.PlacesBaseURL)
	overlay(&c.LogLevel, file.LogLevel)
	overlay(&c.LogFile, file.LogFile)
	if file.PhotoMaxWidth != 0 {
		c.PhotoMaxWidth = file.PhotoMaxWidth
	}
	if file.PhotoMaxHeight != 0 {
		c.PhotoMaxHeight = file.PhotoMaxHeight
	}
	if file.WatchInterval != 0 {
		c.WatchInterval = file.WatchInterval
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return d, nil
}
