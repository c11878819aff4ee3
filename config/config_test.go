package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Scheduler.StartHour)
	assert.Equal(t, 18, cfg.Scheduler.EndHour)
	assert.Equal(t, 30, cfg.Scheduler.IntervalMinutes)
	assert.Equal(t, 60, cfg.Scheduler.InspectionMinutes)
	assert.Equal(t, "09:00", cfg.Scheduler.DefaultSlot)
	assert.Equal(t, DepartureNow, cfg.Scheduler.DepartureMode)
	assert.Equal(t, 4, cfg.Scheduler.OracleConcurrency)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.OracleTimeout)
	assert.False(t, cfg.Scheduler.ClipToClose)
	assert.Equal(t, "https://maps.googleapis.com", cfg.Oracle.BaseURL)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, 3600, cfg.Push.TTL)
}

func TestLoad_Overrides(t *testing.T) {
	body := `
scheduler:
  start_hour: 8
  end_hour: 16
  interval_minutes: 15
  departure_mode: appointment_end
  oracle_concurrency: 20
  oracle_timeout_seconds: 2
oracle:
  api_key: secret
`
	cfg, err := Load(writeConfig(t, body))
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Scheduler.StartHour)
	assert.Equal(t, 16, cfg.Scheduler.EndHour)
	assert.Equal(t, 15, cfg.Scheduler.IntervalMinutes)
	assert.Equal(t, DepartureAppointmentEnd, cfg.Scheduler.DepartureMode)
	assert.Equal(t, 8, cfg.Scheduler.OracleConcurrency, "concurrency is clamped")
	assert.Equal(t, 2*time.Second, cfg.Scheduler.OracleTimeout)
	assert.Equal(t, "secret", cfg.Oracle.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "inverted hours", body: "scheduler:\n  start_hour: 18\n  end_hour: 7\n"},
		{name: "unknown departure mode", body: "scheduler:\n  departure_mode: tomorrow\n"},
		{name: "malformed yaml", body: "scheduler: [\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Example(t *testing.T) {
	cfg, err := Load("config.example.yaml")
	require.NoError(t, err)

	assert.Equal(t, "sqlite:fieldservice.db", cfg.Database.DSN)
	assert.Equal(t, DepartureNow, cfg.Scheduler.DepartureMode)
	assert.Equal(t, 2, cfg.WorkerPool.Size)
	_, err = cfg.Scheduler.Location()
	assert.NoError(t, err)
}
