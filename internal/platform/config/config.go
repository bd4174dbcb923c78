package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	DailyPostLimit int
	PinDuration    time.Duration
	SweepInterval  time.Duration
	// LinkedSpaces holds "spaceID:channelID" pairs used as replication
	// destinations until spaces are configured through the API.
	LinkedSpaces []string
}

func Load() (Config, error) {
	// A missing .env file is fine; env vars win either way.
	_ = godotenv.Load()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "crossvote"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var spaces []string
	for _, value := range strings.Split(os.Getenv("LINKED_SPACES"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			spaces = append(spaces, value)
		}
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		DailyPostLimit: envInt("DAILY_POST_LIMIT", 2),
		PinDuration:    time.Duration(envInt("PIN_DURATION_HOURS", 4)) * time.Hour,
		SweepInterval:  time.Duration(envInt("SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
		LinkedSpaces:   spaces,
	}, nil
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
