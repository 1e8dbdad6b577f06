package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/votewatch/election-alerts/internal/models"
)

type Config struct {
	Server     ServerConfig
	Escalation EscalationConfig
	Dispatch   DispatchConfig
	DB         DatabaseConfig
	Logging    LoggingConfig
	API        APIConfig
}

type ServerConfig struct {
	Host string
	Port int
}

// EscalationConfig maps severity to the time an alert may stay unacknowledged
// before it escalates, plus the fixed contact set escalations go to.
type EscalationConfig struct {
	Delays   map[models.Severity]time.Duration
	Contacts []models.Recipient
}

type DispatchConfig struct {
	Workers    int
	BufferSize int
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

type APIConfig struct {
	RateLimit int // requests per second, global
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Escalation: EscalationConfig{
			Delays: map[models.Severity]time.Duration{
				models.SeverityCritical: getEnvDuration("ESCALATION_DELAY_CRITICAL", 5*time.Minute),
				models.SeverityHigh:     getEnvDuration("ESCALATION_DELAY_HIGH", 15*time.Minute),
				models.SeverityMedium:   getEnvDuration("ESCALATION_DELAY_MEDIUM", 30*time.Minute),
				models.SeverityLow:      getEnvDuration("ESCALATION_DELAY_LOW", 60*time.Minute),
			},
			Contacts: parseContacts(getEnv("ESCALATION_CONTACTS", "")),
		},
		Dispatch: DispatchConfig{
			Workers:    getEnvInt("DISPATCH_WORKERS", 4),
			BufferSize: getEnvInt("DISPATCH_BUFFER_SIZE", 64),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/election-alerts.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		API: APIConfig{
			RateLimit: getEnvInt("API_RATE_LIMIT", 10),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	for sev, d := range c.Escalation.Delays {
		if d < time.Second {
			return fmt.Errorf("escalation delay for %s must be at least 1 second", sev)
		}
	}

	if c.Dispatch.Workers < 1 {
		return fmt.Errorf("dispatch workers must be at least 1")
	}

	return nil
}

// parseContacts reads "name:role:phone:email" entries separated by commas,
// e.g. "EOC Duty Officer:admin:+18765550100:duty@example.org".
func parseContacts(raw string) []models.Recipient {
	if raw == "" {
		return nil
	}

	var contacts []models.Recipient
	for i, entry := range strings.Split(raw, ",") {
		parts := strings.Split(entry, ":")
		if len(parts) < 3 {
			continue
		}
		c := models.Recipient{
			ID:    fmt.Sprintf("escalation_%d", i+1),
			Name:  strings.TrimSpace(parts[0]),
			Role:  models.Role(strings.TrimSpace(parts[1])),
			Phone: strings.TrimSpace(parts[2]),
		}
		if len(parts) > 3 {
			c.Email = strings.TrimSpace(parts[3])
		}
		contacts = append(contacts, c)
	}
	return contacts
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
