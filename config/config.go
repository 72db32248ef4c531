package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/joegr/turny/ratings"
	"github.com/joegr/turny/storage"
)

// EngineConfig — параметры движка. Никаких глобальных значений по умолчанию
// в пакетах движка нет: всё задаётся здесь и передаётся при сборке.
type EngineConfig struct {
	KFactor         int
	DefaultRating   int
	DefaultMinTeams int
	DefaultMaxTeams int
}

// Config хранит конфигурацию приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int
	TokenTTL     time.Duration

	// Интервал тика планировщика автостарта; 0 выключает планировщик.
	SchedulerInterval time.Duration

	Engine EngineConfig

	// R2 опционален: без него загрузка логотипов отключена.
	R2 *storage.CloudflareR2Config
}

// Load читает конфигурацию из окружения. .env подгружается, если есть.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	kFactor, err := intEnv("ELO_K_FACTOR", ratings.DefaultKFactor)
	if err != nil {
		return nil, err
	}
	defaultRating, err := intEnv("ELO_DEFAULT_RATING", ratings.DefaultRating)
	if err != nil {
		return nil, err
	}
	minTeams, err := intEnv("DEFAULT_MIN_TEAMS", 2)
	if err != nil {
		return nil, err
	}
	maxTeams, err := intEnv("DEFAULT_MAX_TEAMS", 64)
	if err != nil {
		return nil, err
	}

	schedulerSeconds, err := intEnv("SCHEDULER_INTERVAL_SECONDS", 60)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:       dbURL,
		JWTSecretKey:      jwtKey,
		ServerPort:        port,
		TokenTTL:          24 * time.Hour,
		SchedulerInterval: time.Duration(schedulerSeconds) * time.Second,
		Engine: EngineConfig{
			KFactor:         kFactor,
			DefaultRating:   defaultRating,
			DefaultMinTeams: minTeams,
			DefaultMaxTeams: maxTeams,
		},
	}

	if accountID := os.Getenv("R2_ACCOUNT_ID"); accountID != "" {
		cfg.R2 = &storage.CloudflareR2Config{
			AccountID:       accountID,
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			BucketName:      os.Getenv("R2_BUCKET_NAME"),
			PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		}
	}

	return cfg, nil
}

func intEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return parsed, nil
}
