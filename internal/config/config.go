package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseDSN string
	Port        string

	// Filesystem locations for uploaded attachments and generated reports.
	UploadDir string
	ReportDir string

	// Session configuration
	SessionDuration time.Duration

	// Deadline sweep configuration
	DeadlineLookahead time.Duration
	SweepInterval     time.Duration

	// Pagination
	ReportsPerPage int
}

func Load() *Config {
	return &Config{
		DatabaseDSN: getEnv("DATABASE_DSN", "file:project_management.db?_fk=1"),
		Port:        getEnv("PORT", "8080"),

		UploadDir: getEnv("UPLOAD_DIR", "static/uploads"),
		ReportDir: getEnv("REPORT_DIR", "static/reports"),

		SessionDuration: getDurationEnv("SESSION_DURATION", 30*24*time.Hour), // 30 days

		DeadlineLookahead: getDurationEnv("DEADLINE_LOOKAHEAD", 72*time.Hour), // 3 days
		SweepInterval:     getDurationEnv("SWEEP_INTERVAL", time.Hour),

		ReportsPerPage: getIntEnv("REPORTS_PER_PAGE", 10),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: Invalid duration value for %s, using default %v", key, defaultValue)
	}
	return defaultValue
}
