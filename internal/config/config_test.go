package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*24*time.Hour, cfg.SessionDuration)
	assert.Equal(t, 72*time.Hour, cfg.DeadlineLookahead)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.Equal(t, 10, cfg.ReportsPerPage)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DEADLINE_LOOKAHEAD", "24h")
	t.Setenv("REPORTS_PER_PAGE", "25")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.DeadlineLookahead)
	assert.Equal(t, 25, cfg.ReportsPerPage)
}

func TestInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("DEADLINE_LOOKAHEAD", "soon")
	t.Setenv("REPORTS_PER_PAGE", "many")

	cfg := Load()

	assert.Equal(t, 72*time.Hour, cfg.DeadlineLookahead)
	assert.Equal(t, 10, cfg.ReportsPerPage)
}
