package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// WebSocket tuning
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64

	// Routing and handoff behaviour
	ClassifyTimeout  time.Duration // bound on the external AI classification call
	ReturnToAIDelay  time.Duration // grace period before a conversation goes back to AI
	DispatchInterval time.Duration // retry cadence for waiting queue entries
	PresenceStale    time.Duration // no heartbeat for this long marks staff away
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	// Parse WebSocket timeouts
	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	config.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}
	config.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	// Calculate WebSocket constants
	config.PongWait = config.WSReadTimeout
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = config.WSWriteTimeout
	config.MaxMessageSize = 4096

	classifyTimeout, err := strconv.Atoi(getEnv("CLASSIFY_TIMEOUT", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLASSIFY_TIMEOUT: %w", err)
	}
	config.ClassifyTimeout = time.Duration(classifyTimeout) * time.Second

	returnDelay, err := strconv.Atoi(getEnv("RETURN_TO_AI_DELAY", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid RETURN_TO_AI_DELAY: %w", err)
	}
	config.ReturnToAIDelay = time.Duration(returnDelay) * time.Second

	dispatchInterval, err := strconv.Atoi(getEnv("DISPATCH_INTERVAL", "2"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_INTERVAL: %w", err)
	}
	config.DispatchInterval = time.Duration(dispatchInterval) * time.Second

	presenceStale, err := strconv.Atoi(getEnv("PRESENCE_STALE_SECONDS", "90"))
	if err != nil {
		return nil, fmt.Errorf("invalid PRESENCE_STALE_SECONDS: %w", err)
	}
	config.PresenceStale = time.Duration(presenceStale) * time.Second

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
