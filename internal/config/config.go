package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Feed     FeedConfig
	Ingest   IngestConfig
}

// ServerConfig defines the HTTP server settings.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DatabaseConfig defines the database connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// URL renders the settings as a pgx connection string.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", d.User, d.Password, d.Host, d.Port, d.DBName)
}

// FeedConfig defines the upstream price feed settings.
type FeedConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Endpoint        string        `mapstructure:"endpoint"`
	APIKey          string        `mapstructure:"api_key"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	CatalogMaxPages int           `mapstructure:"catalog_max_pages"`
	PageDelay       time.Duration `mapstructure:"page_delay"`
}

// IngestConfig defines the refresh schedule and classification rules.
// A non-empty allow-list of category ids overrides the deny-list.
type IngestConfig struct {
	RefreshInterval     time.Duration `mapstructure:"refresh_interval"`
	AllowedCategoryIDs  []int64       `mapstructure:"allowed_category_ids"`
	ExcludedCategoryIDs []int64       `mapstructure:"excluded_category_ids"`
	AllowedKinds        []string      `mapstructure:"allowed_kinds"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("feed.endpoint", "/2.0/items_prices_all")
	viper.SetDefault("feed.request_timeout", 30*time.Second)
	viper.SetDefault("feed.catalog_max_pages", 2000)
	viper.SetDefault("feed.page_delay", 100*time.Millisecond)
	viper.SetDefault("ingest.refresh_interval", time.Hour)
	viper.SetDefault("ingest.excluded_category_ids", []int64{32})
	viper.SetDefault("ingest.allowed_kinds", []string{"Metal", "Mineral", "Agricultural", "Food", "Chemical", "Processed"})

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
