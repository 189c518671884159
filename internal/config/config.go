// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Forecast ForecastConfig
	Reorder  ReorderConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ForecastConfig carries the training and serving defaults for the
// forecasting engine.
type ForecastConfig struct {
	Backend             string
	SeasonalityMode     string
	Holidays            bool
	HorizonDays         int
	HistoryWindowDays   int
	CVInitialDays       int
	CVPeriodDays        int
	CVHorizonDays       int
	TrainWorkers        int
	TrainTimeoutSeconds int
}

// ReorderConfig carries fallback ordering constraints used when a supplier
// has no explicit configuration.
type ReorderConfig struct {
	DefaultServiceLevel    float64
	DefaultLeadTimeDays    int
	DefaultLeadTimeStdDays float64
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "replenish")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_FORECAST_TTL_SECONDS", 300)
		viper.SetDefault("STORAGE_ENABLED", false)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "replenish-exports")
		viper.SetDefault("STORAGE_USE_SSL", true)
		viper.SetDefault("FORECAST_BACKEND", "seasonal")
		viper.SetDefault("FORECAST_SEASONALITY_MODE", "multiplicative")
		viper.SetDefault("FORECAST_HOLIDAYS", true)
		viper.SetDefault("FORECAST_HORIZON_DAYS", 30)
		viper.SetDefault("FORECAST_HISTORY_WINDOW_DAYS", 730)
		viper.SetDefault("FORECAST_CV_INITIAL_DAYS", 90)
		viper.SetDefault("FORECAST_CV_PERIOD_DAYS", 30)
		viper.SetDefault("FORECAST_CV_HORIZON_DAYS", 30)
		viper.SetDefault("FORECAST_TRAIN_WORKERS", 4)
		viper.SetDefault("FORECAST_TRAIN_TIMEOUT_SECONDS", 120)
		viper.SetDefault("REORDER_DEFAULT_SERVICE_LEVEL", 0.95)
		viper.SetDefault("REORDER_DEFAULT_LEAD_TIME_DAYS", 7)
		viper.SetDefault("REORDER_DEFAULT_LEAD_TIME_STD_DAYS", 2.0)

		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:            viper.GetBool("CACHE_ENABLED"),
				RedisURL:           viper.GetString("REDIS_URL"),
				RedisHost:          viper.GetString("REDIS_HOST"),
				RedisPort:          viper.GetString("REDIS_PORT"),
				RedisPassword:      viper.GetString("REDIS_PASSWORD"),
				RedisDB:            viper.GetInt("REDIS_DB"),
				ForecastTTLSeconds: viper.GetInt("CACHE_FORECAST_TTL_SECONDS"),
			},
			Storage: StorageConfig{
				Enabled:   viper.GetBool("STORAGE_ENABLED"),
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
			Forecast: ForecastConfig{
				Backend:             viper.GetString("FORECAST_BACKEND"),
				SeasonalityMode:     viper.GetString("FORECAST_SEASONALITY_MODE"),
				Holidays:            viper.GetBool("FORECAST_HOLIDAYS"),
				HorizonDays:         viper.GetInt("FORECAST_HORIZON_DAYS"),
				HistoryWindowDays:   viper.GetInt("FORECAST_HISTORY_WINDOW_DAYS"),
				CVInitialDays:       viper.GetInt("FORECAST_CV_INITIAL_DAYS"),
				CVPeriodDays:        viper.GetInt("FORECAST_CV_PERIOD_DAYS"),
				CVHorizonDays:       viper.GetInt("FORECAST_CV_HORIZON_DAYS"),
				TrainWorkers:        viper.GetInt("FORECAST_TRAIN_WORKERS"),
				TrainTimeoutSeconds: viper.GetInt("FORECAST_TRAIN_TIMEOUT_SECONDS"),
			},
			Reorder: ReorderConfig{
				DefaultServiceLevel:    viper.GetFloat64("REORDER_DEFAULT_SERVICE_LEVEL"),
				DefaultLeadTimeDays:    viper.GetInt("REORDER_DEFAULT_LEAD_TIME_DAYS"),
				DefaultLeadTimeStdDays: viper.GetFloat64("REORDER_DEFAULT_LEAD_TIME_STD_DAYS"),
			},
		}
	})

	return instance
}
