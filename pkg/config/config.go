package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Timetable TimetableConfig
	Export    ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TimetableConfig tunes the generation engine and its background workers.
type TimetableConfig struct {
	PopulationSize    int
	Generations       int
	MutationRate      float64
	PlateauWindow     int
	CSPIterationLimit int
	TimeBudget        time.Duration
	FitnessWorkers    int
	WorkerConcurrency int
	WorkerRetries     int
	AnalyzeCacheTTL   time.Duration
}

// ExportConfig controls timetable export rendering.
type ExportConfig struct {
	Enabled bool
	Title   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Timetable = TimetableConfig{
		PopulationSize:    v.GetInt("TIMETABLE_POPULATION_SIZE"),
		Generations:       v.GetInt("TIMETABLE_GENERATIONS"),
		MutationRate:      v.GetFloat64("TIMETABLE_MUTATION_RATE"),
		PlateauWindow:     v.GetInt("TIMETABLE_PLATEAU_WINDOW"),
		CSPIterationLimit: v.GetInt("TIMETABLE_CSP_ITERATION_LIMIT"),
		TimeBudget:        parseDuration(v.GetString("TIMETABLE_TIME_BUDGET"), 2*time.Minute),
		FitnessWorkers:    v.GetInt("TIMETABLE_FITNESS_WORKERS"),
		WorkerConcurrency: v.GetInt("TIMETABLE_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("TIMETABLE_WORKER_RETRIES"),
		AnalyzeCacheTTL:   parseDuration(v.GetString("TIMETABLE_ANALYZE_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Export = ExportConfig{
		Enabled: v.GetBool("ENABLE_EXPORT"),
		Title:   v.GetString("EXPORT_TITLE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campuskona_timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TIMETABLE_POPULATION_SIZE", 24)
	v.SetDefault("TIMETABLE_GENERATIONS", 120)
	v.SetDefault("TIMETABLE_MUTATION_RATE", 0.15)
	v.SetDefault("TIMETABLE_PLATEAU_WINDOW", 15)
	v.SetDefault("TIMETABLE_CSP_ITERATION_LIMIT", 200000)
	v.SetDefault("TIMETABLE_TIME_BUDGET", "2m")
	v.SetDefault("TIMETABLE_FITNESS_WORKERS", 0)
	v.SetDefault("TIMETABLE_WORKER_CONCURRENCY", 1)
	v.SetDefault("TIMETABLE_WORKER_RETRIES", 1)
	v.SetDefault("TIMETABLE_ANALYZE_CACHE_TTL", "10m")

	v.SetDefault("ENABLE_EXPORT", true)
	v.SetDefault("EXPORT_TITLE", "Weekly Timetable")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
