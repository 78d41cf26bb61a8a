package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"paperlab/internal/domain"
)

// Config holds all configuration for the application.
// Values are read by viper from a config file or environment variables.
type Config struct {
	ListenAddr string `mapstructure:"LISTEN_ADDR"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`
	LogFormat  string `mapstructure:"LOG_FORMAT"`

	ArxivAPIURL  string        `mapstructure:"ARXIV_API_URL"`
	HTTPTimeout  time.Duration `mapstructure:"HTTP_TIMEOUT"`
	DefaultQuery string        `mapstructure:"DEFAULT_QUERY"`
	MaxResults   int           `mapstructure:"MAX_RESULTS"`
	SortBy       string        `mapstructure:"SORT_BY"`

	// CachePath is the on-disk location of the result cache. Empty keeps it in memory.
	CachePath   string `mapstructure:"CACHE_PATH"`
	CatalogPath string `mapstructure:"CATALOG_PATH"`

	// TelegramBotToken enables the chat front end when set.
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
}

const envPrefix = "PAPERLAB"

var defaults = map[string]any{
	"LISTEN_ADDR":        ":8000",
	"LOG_LEVEL":          "info",
	"LOG_FORMAT":         "json",
	"ARXIV_API_URL":      "https://export.arxiv.org/api/query",
	"HTTP_TIMEOUT":       "15s",
	"DEFAULT_QUERY":      "pathology",
	"MAX_RESULTS":        50,
	"SORT_BY":            string(domain.SortSubmittedDate),
	"CACHE_PATH":         "",
	"CATALOG_PATH":       "",
	"TELEGRAM_BOT_TOKEN": "",
}

// LoadConfig reads configuration from file or environment variables.
// Both PAPERLAB_MAX_RESULTS and MAX_RESULTS are honoured, the prefixed form wins.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key, envPrefix+"_"+key, key); err != nil {
			return Config{}, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	err = v.ReadInConfig()
	if err != nil {
		// A missing file is fine: defaults and the environment still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}

	if config.CatalogPath == "" {
		config.CatalogPath, err = xdg.DataFile("paperlab/catalog.db")
		if err != nil {
			return Config{}, fmt.Errorf("resolving catalog path: %w", err)
		}
	}

	return config, nil
}

func (c Config) validate() error {
	if c.MaxResults <= 0 {
		return fmt.Errorf("MAX_RESULTS must be positive, got %d", c.MaxResults)
	}
	if !domain.SortOrder(c.SortBy).Valid() {
		return fmt.Errorf("SORT_BY %q is not one of relevance, lastUpdatedDate, submittedDate", c.SortBy)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT %q is not one of json, text", c.LogFormat)
	}
	return nil
}

// Sort returns the configured provider order.
func (c Config) Sort() domain.SortOrder {
	return domain.SortOrder(c.SortBy)
}
