// Package config loads process configuration via viper, following the
// pack's Load()/setDefaults() split: an explicit .env read (soft-failing
// when absent) layered under AutomaticEnv.
package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config bundles every environment-tunable knob the solver core reads.
type Config struct {
	Env string

	QuantumMinutes             int
	CPSATTimeLimit             time.Duration
	BacktrackTimeLimit         time.Duration
	TabuTenure                 int
	TabuMaxIterations          int
	CacheTTL                   time.Duration
	SelectorBacktrackThreshold int

	Cache CacheConfig
	Log   LogConfig
}

// CacheConfig configures the Redis-backed schedule cache.
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from .env (if present) and the process
// environment, applying defaults for anything unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{
		Env: v.GetString("ENV"),

		QuantumMinutes:             v.GetInt("QUANTUM_MINUTES"),
		CPSATTimeLimit:             time.Duration(v.GetInt("CPSAT_TIME_LIMIT_MS")) * time.Millisecond,
		BacktrackTimeLimit:         time.Duration(v.GetInt("BACKTRACK_TIME_LIMIT_MS")) * time.Millisecond,
		TabuTenure:                 v.GetInt("TABU_TENURE"),
		TabuMaxIterations:          v.GetInt("TABU_MAX_ITER"),
		CacheTTL:                   time.Duration(v.GetInt("CACHE_TTL_SECONDS")) * time.Second,
		SelectorBacktrackThreshold: v.GetInt("SELECTOR_BACKTRACK_THRESHOLD"),

		Cache: CacheConfig{
			RedisAddr:     v.GetString("CACHE_REDIS_ADDR"),
			RedisPassword: v.GetString("CACHE_REDIS_PASSWORD"),
			RedisDB:       v.GetInt("CACHE_REDIS_DB"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("QUANTUM_MINUTES", 15)
	v.SetDefault("CPSAT_TIME_LIMIT_MS", 10_000)
	v.SetDefault("BACKTRACK_TIME_LIMIT_MS", 30_000)
	v.SetDefault("TABU_TENURE", 10)
	v.SetDefault("TABU_MAX_ITER", 100)
	v.SetDefault("CACHE_TTL_SECONDS", 3600)
	v.SetDefault("SELECTOR_BACKTRACK_THRESHOLD", 15)

	v.SetDefault("CACHE_REDIS_ADDR", "localhost:6379")
	v.SetDefault("CACHE_REDIS_PASSWORD", "")
	v.SetDefault("CACHE_REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}
