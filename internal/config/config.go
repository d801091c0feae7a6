package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken  string
	LogChatID int64
	DbUri     string

	GlobalRPS    int
	BaseInterval time.Duration

	// Sniper (single-account racing) settings; the sniper only runs
	// when an endpoint is configured.
	SniperEndpoint    string
	SniperRecipientID int64
	SniperChannel     string
	RaceWidth         int
	AttemptCooldown   time.Duration

	LogRetention time.Duration
	HealthPort   string
}

func Load() *Config {
	// Local development keeps secrets in .env; absence is fine.
	_ = godotenv.Load()

	logChatID := getEnvInt64("LOG_CHAT_ID", 0)
	if logChatID == 0 {
		logChatID = getEnvInt64("ADMIN_ID", 0)
	}

	return &Config{
		BotToken:  getEnv("BOT_TOKEN", ""),
		LogChatID: logChatID,
		DbUri:     getEnv("DB_URI", "postgres://localhost/giftbot?sslmode=disable"),

		GlobalRPS:    getEnvInt("GLOBAL_RPS", 25),
		BaseInterval: time.Duration(getEnvFloat("POLL_BASE_INTERVAL_SECONDS", 10)*1000) * time.Millisecond,

		SniperEndpoint:    getEnv("SNIPER_ENDPOINT", ""),
		SniperRecipientID: getEnvInt64("SNIPER_RECIPIENT_ID", 0),
		SniperChannel:     getEnv("SNIPER_CHANNEL", ""),
		RaceWidth:         getEnvInt("RACE_WIDTH", 3),
		AttemptCooldown:   time.Duration(getEnvInt("ATTEMPT_COOLDOWN_SECONDS", 60)) * time.Second,

		LogRetention: time.Duration(getEnvInt("LOG_RETENTION_DAYS", 14)) * 24 * time.Hour,
		HealthPort:   getEnv("HEALTH_PORT", "8080"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
