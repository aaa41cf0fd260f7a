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

const minimalConfig = `
database:
  dsn: "file::memory:"
  driver: sqlite
auth:
  jwt_secret: "0123456789abcdef0123"
venue:
  lanes:
    - number: "1"
  schedules:
    - name: Weekdays
      weekdays: [0, 1]
      slots:
        - { start: "09:00", end: "10:00", price: 20 }
`

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Booking.Hold)
	assert.Equal(t, time.Minute, cfg.Sweeper.Interval)
	assert.False(t, cfg.Sweeper.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, 100, cfg.WorkerPool.QueueSize)
	assert.Equal(t, "bowling.bookings", cfg.Events.Exchange)
	assert.Equal(t, "NORMAL", cfg.Venue.Lanes[0].Type)
	assert.Equal(t, "production", cfg.Log.Env)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("BOWLING_DATABASE_DSN", "host=db user=bowling")
	t.Setenv("BOWLING_DATABASE_DRIVER", "postgres")
	t.Setenv("BOWLING_BOOKING_HOLD_MINUTES", "15")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "host=db user=bowling", cfg.Database.DSN)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Booking.Hold)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{
			name: "short jwt secret",
			body: `
database: { dsn: "x", driver: sqlite }
auth: { jwt_secret: "short" }
`,
		},
		{
			name: "unknown driver",
			body: `
database: { dsn: "x", driver: mysql }
auth: { jwt_secret: "0123456789abcdef0123" }
`,
		},
		{
			name: "weekday claimed twice",
			body: `
database: { dsn: "x", driver: sqlite }
auth: { jwt_secret: "0123456789abcdef0123" }
venue:
  schedules:
    - { name: A, weekdays: [0, 1] }
    - { name: B, weekdays: [1] }
`,
		},
		{
			name: "weekday out of range",
			body: `
database: { dsn: "x", driver: sqlite }
auth: { jwt_secret: "0123456789abcdef0123" }
venue:
  schedules:
    - { name: A, weekdays: [7] }
`,
		},
		{
			name: "mail enabled without host",
			body: `
database: { dsn: "x", driver: sqlite }
auth: { jwt_secret: "0123456789abcdef0123" }
mail: { enabled: true, from: "a@b.com" }
`,
		},
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
