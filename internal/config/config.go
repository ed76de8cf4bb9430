package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Provider ProviderConfig
	Credits  CreditsConfig
}

type ServerConfig struct {
	Port          string
	Environment   string
	SessionSecret string
	AllowOrigins  string
	AdminUserIDs  []int64
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type CreditsConfig struct {
	MonthlyBonusAmount int
	FreePeriodStart    time.Time
	FreePeriodEnd      time.Time
}

func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	providerTimeout, err := time.ParseDuration(getEnv("AI_PROVIDER_TIMEOUT", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid AI_PROVIDER_TIMEOUT: %w", err)
	}

	bonusAmount, err := strconv.Atoi(getEnv("MONTHLY_BONUS_CREDITS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid MONTHLY_BONUS_CREDITS: %w", err)
	}

	freeStart, err := parseTime(os.Getenv("FREE_PERIOD_START"))
	if err != nil {
		return nil, fmt.Errorf("invalid FREE_PERIOD_START: %w", err)
	}
	freeEnd, err := parseTime(os.Getenv("FREE_PERIOD_END"))
	if err != nil {
		return nil, fmt.Errorf("invalid FREE_PERIOD_END: %w", err)
	}

	adminIDs, err := parseInt64List(os.Getenv("ADMIN_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_USER_IDS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8080"),
			Environment:   getEnv("ENVIRONMENT", "development"),
			SessionSecret: getEnv("SESSION_SECRET", "change-me-in-production"),
			AllowOrigins:  getEnv("ALLOW_ORIGINS", "*"),
			AdminUserIDs:  adminIDs,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "baln"),
			Password: getEnv("DB_PASSWORD", "baln"),
			Name:     getEnv("DB_NAME", "baln"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Provider: ProviderConfig{
			BaseURL: getEnv("AI_PROVIDER_URL", "https://api.openai.com"),
			APIKey:  getEnv("AI_PROVIDER_API_KEY", ""),
			Model:   getEnv("AI_PROVIDER_MODEL", "gpt-4o-mini"),
			Timeout: providerTimeout,
		},
		Credits: CreditsConfig{
			MonthlyBonusAmount: bonusAmount,
			FreePeriodStart:    freeStart,
			FreePeriodEnd:      freeEnd,
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}

func parseInt64List(value string) ([]int64, error) {
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
