package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type AppConfig struct {
	App struct {
		Name string
		Port string
	}

	Oracle struct {
		URL     string
		Timeout time.Duration
	}

	Scoring struct {
		URL string
	}

	Redis struct {
		Host     string
		Port     int
		Password string
		DB       int
	}

	Kafka struct {
		Brokers []string
		GroupID string
		Topics  []string
	}

	Auth struct {
		JWTSecret string
	}

	RateLimit struct {
		Requests int
		Window   time.Duration
	}

	Challenges struct {
		SeedFile string
	}
}

var Config AppConfig

func InitConfig(DevMode bool) *AppConfig {
	if DevMode {
		if err := godotenv.Load(); err != nil {
			log.Error().Err(err).Msg("Error loading .env file")
		}
	}

	Config.App.Name = getEnv("APP_NAME", "codex-battle-service")
	Config.App.Port = getEnv("PORT", "6001")

	Config.Oracle.URL = getEnv("ORACLE_URL", "https://emkc.org/api/v2/piston/execute")
	Config.Oracle.Timeout = time.Duration(getEnvInt("ORACLE_TIMEOUT_MS", 15000)) * time.Millisecond

	Config.Scoring.URL = os.Getenv("SCORING_URL")

	Config.Redis.Host = getEnv("REDIS_HOST", "localhost")
	Config.Redis.Port = getEnvInt("REDIS_PORT", 6379)
	Config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	Config.Redis.DB = getEnvInt("REDIS_DB", 0)

	Config.Kafka.Brokers = splitList(getEnv("KAFKA_BROKERS", "localhost:9092"))
	Config.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", "battle-service")
	Config.Kafka.Topics = splitList(getEnv("KAFKA_TOPICS", "challenge.upserted,challenge.removed"))

	Config.Auth.JWTSecret = os.Getenv("JWT_SECRET")

	Config.RateLimit.Requests = getEnvInt("RATE_LIMIT_REQUESTS", 60)
	Config.RateLimit.Window = time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second

	Config.Challenges.SeedFile = os.Getenv("CHALLENGES_SEED_FILE")

	return &Config
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid integer in environment, using default")
		return fallback
	}
	return n
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
