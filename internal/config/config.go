// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Artifacts ArtifactConfig
	Forecast  ForecastConfig
	Reorder   ReorderConfig
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

// ArtifactConfig selects the model artifact backend. Backend "s3" uses
// the MinIO client; "fs" keeps artifacts in a local directory.
type ArtifactConfig struct {
	Backend   string
	Dir       string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// ForecastConfig carries the training and inference windows. Seed fixes
// the random state of the stochastic candidates so repeated training
// runs on identical data select the same model.
type ForecastConfig struct {
	TrainingLookbackDays  int
	InferenceLookbackDays int
	MinHistoryRows        int
	MinTrainingRows       int
	DefaultHorizonDays    int
	Seed                  int64
}

// ReorderConfig exposes the inventory-math constants that were
// hard-coded in earlier deployments as tunable business inputs.
type ReorderConfig struct {
	LeadTimeDays        int
	OrderingCost        float64
	HoldingCostRate     float64
	DefaultServiceLevel float64
	SuggestionWorkers   int
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
		viper.SetDefault("DB_NAME", "store")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_FORECAST_TTL_SECONDS", 300)
		viper.SetDefault("ARTIFACT_BACKEND", "fs")
		viper.SetDefault("ARTIFACT_DIR", "./data/models")
		viper.SetDefault("ARTIFACT_S3_ENDPOINT", "")
		viper.SetDefault("ARTIFACT_S3_ACCESS_KEY", "")
		viper.SetDefault("ARTIFACT_S3_SECRET_KEY", "")
		viper.SetDefault("ARTIFACT_S3_BUCKET", "demand-models")
		viper.SetDefault("ARTIFACT_S3_REGION", "us-east-1")
		viper.SetDefault("ARTIFACT_S3_USE_SSL", true)
		viper.SetDefault("FORECAST_TRAINING_LOOKBACK_DAYS", 365)
		viper.SetDefault("FORECAST_INFERENCE_LOOKBACK_DAYS", 90)
		viper.SetDefault("FORECAST_MIN_HISTORY_ROWS", 30)
		viper.SetDefault("FORECAST_MIN_TRAINING_ROWS", 20)
		viper.SetDefault("FORECAST_DEFAULT_HORIZON_DAYS", 30)
		viper.SetDefault("FORECAST_SEED", 42)
		viper.SetDefault("REORDER_LEAD_TIME_DAYS", 7)
		viper.SetDefault("REORDER_ORDERING_COST", 50.0)
		viper.SetDefault("REORDER_HOLDING_COST_RATE", 0.20)
		viper.SetDefault("REORDER_DEFAULT_SERVICE_LEVEL", 0.95)
		viper.SetDefault("REORDER_SUGGESTION_WORKERS", 4)

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
			Artifacts: ArtifactConfig{
				Backend:   viper.GetString("ARTIFACT_BACKEND"),
				Dir:       viper.GetString("ARTIFACT_DIR"),
				Endpoint:  viper.GetString("ARTIFACT_S3_ENDPOINT"),
				AccessKey: viper.GetString("ARTIFACT_S3_ACCESS_KEY"),
				SecretKey: viper.GetString("ARTIFACT_S3_SECRET_KEY"),
				Bucket:    viper.GetString("ARTIFACT_S3_BUCKET"),
				Region:    viper.GetString("ARTIFACT_S3_REGION"),
				UseSSL:    viper.GetBool("ARTIFACT_S3_USE_SSL"),
			},
			Forecast: ForecastConfig{
				TrainingLookbackDays:  viper.GetInt("FORECAST_TRAINING_LOOKBACK_DAYS"),
				InferenceLookbackDays: viper.GetInt("FORECAST_INFERENCE_LOOKBACK_DAYS"),
				MinHistoryRows:        viper.GetInt("FORECAST_MIN_HISTORY_ROWS"),
				MinTrainingRows:       viper.GetInt("FORECAST_MIN_TRAINING_ROWS"),
				DefaultHorizonDays:    viper.GetInt("FORECAST_DEFAULT_HORIZON_DAYS"),
				Seed:                  viper.GetInt64("FORECAST_SEED"),
			},
			Reorder: ReorderConfig{
				LeadTimeDays:        viper.GetInt("REORDER_LEAD_TIME_DAYS"),
				OrderingCost:        viper.GetFloat64("REORDER_ORDERING_COST"),
				HoldingCostRate:     viper.GetFloat64("REORDER_HOLDING_COST_RATE"),
				DefaultServiceLevel: viper.GetFloat64("REORDER_DEFAULT_SERVICE_LEVEL"),
				SuggestionWorkers:   viper.GetInt("REORDER_SUGGESTION_WORKERS"),
			},
		}
	})

	return instance
}
