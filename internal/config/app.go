package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPServer struct {
	Port string `mapstructure:"port"`
}

type DbServer struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Pass     string `mapstructure:"pass"`
	Name     string `mapstructure:"name"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (config *DbServer) GetConnectionStr() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable pool_max_conns=%d",
		config.User, config.Pass, config.Host, config.Port, config.Name, config.MaxConns,
	)
}

type HTTPClient struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type ExchangeRateAPI struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type CachePolicy struct {
	MaxAgeSeconds         int   `mapstructure:"max_age_seconds"`
	MaxStaleAgeSeconds    int   `mapstructure:"max_stale_age_seconds"`
	RefreshTimeoutSeconds int   `mapstructure:"refresh_timeout_seconds"`
	PairCacheMaxItems     int64 `mapstructure:"pair_cache_max_items"`
}

type Scheduler struct {
	IntervalSeconds int      `mapstructure:"interval_seconds"`
	Currencies      []string `mapstructure:"currencies"`
}

type Logging struct {
	Level string `mapstructure:"level"`
}

type AppConfig struct {
	HTTPServer      HTTPServer      `mapstructure:"http_server"`
	DbServer        DbServer        `mapstructure:"db_server"`
	HTTPClient      HTTPClient      `mapstructure:"http_client"`
	ExchangeRateAPI ExchangeRateAPI `mapstructure:"exchange_rate_api"`
	Cache           CachePolicy     `mapstructure:"cache"`
	Scheduler       Scheduler       `mapstructure:"scheduler"`
	Logging         Logging         `mapstructure:"logging"`
}

func Init() (*AppConfig, error) {
	var cfg AppConfig

	// .env is optional outside local development
	_ = godotenv.Load()

	viper.SetConfigFile("config.yaml")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	viper.SetDefault("db_server.max_conns", 10)
	viper.SetDefault("http_client.timeout_seconds", 10)
	viper.SetDefault("cache.max_age_seconds", 300)
	viper.SetDefault("cache.max_stale_age_seconds", 3600)
	viper.SetDefault("cache.refresh_timeout_seconds", 10)
	viper.SetDefault("cache.pair_cache_max_items", 1024)
	viper.SetDefault("scheduler.interval_seconds", 900)
	viper.SetDefault("logging.level", "info")

	// db server env vars
	_ = viper.BindEnv("db_server.host", "DB_HOST")
	_ = viper.BindEnv("db_server.port", "DB_PORT")
	_ = viper.BindEnv("db_server.user", "DB_USER")
	_ = viper.BindEnv("db_server.pass", "DB_PASS")
	_ = viper.BindEnv("db_server.name", "DB_NAME")
	_ = viper.BindEnv("db_server.max_conns", "DB_MAX_CONNS")

	// http client env vars
	_ = viper.BindEnv("http_client.timeout_seconds", "HTTP_CLIENT_TIMEOUT_SECONDS")

	// provider env vars
	_ = viper.BindEnv("exchange_rate_api.base_url", "EXCHANGE_RATE_API_BASE_URL")
	_ = viper.BindEnv("exchange_rate_api.api_key", "EXCHANGE_RATE_API_KEY")

	// cache policy env vars
	_ = viper.BindEnv("cache.max_age_seconds", "CACHE_MAX_AGE_SECONDS")
	_ = viper.BindEnv("cache.max_stale_age_seconds", "CACHE_MAX_STALE_AGE_SECONDS")
	_ = viper.BindEnv("cache.refresh_timeout_seconds", "CACHE_REFRESH_TIMEOUT_SECONDS")

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &cfg, nil
}
