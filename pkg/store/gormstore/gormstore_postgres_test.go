//go:build e2e

package gormstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/osdpgw/gateway/pkg/model"
)

// newTestPostgresStore starts a throwaway PostgreSQL container with the
// testcontainers postgres module and opens a GORMStore against it, one
// container per test rather than a shared, process-wide helper.
func newTestPostgresStore(t *testing.T) *GORMStore {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("osdpgw"),
		postgres.WithUsername("osdpgw"),
		postgres.WithPassword("osdpgw"),
		testcontainers.WithWaitStrategyAndDeadline(2*time.Minute,
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	s, err := New(&Config{
		Type: DatabaseTypePostgres,
		Postgres: PostgresConfig{
			Host:     host,
			Port:     port.Int(),
			Database: "osdpgw",
			User:     "osdpgw",
			Password: "osdpgw",
			SSLMode:  "disable",
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresSaveAndLoadReader(t *testing.T) {
	s := newTestPostgresStore(t)
	ctx := context.Background()

	r := &model.Reader{
		ID:           uuid.NewString(),
		Name:         "front-door-pg",
		Port:         "/dev/ttyUSB0",
		Baud:         9600,
		Address:      1,
		SecurityMode: model.SecurityClearText,
		Enabled:      true,
	}
	require.NoError(t, s.SaveReader(ctx, r))

	loaded, err := s.LoadReader(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Name, loaded.Name)
}

func TestPostgresAppendEventsPersistPluginResults(t *testing.T) {
	s := newTestPostgresStore(t)
	ctx := context.Background()

	outcome := model.PipelineOutcome{
		Success: false,
		Message: "denied",
		PluginResults: []model.PluginOutcome{
			{PluginName: "allowlist", Success: false, Error: "card not on list"},
		},
	}
	require.NoError(t, s.AppendCardEvent(ctx, model.CardReadEvent{
		ReaderID:   "r1",
		Timestamp:  time.Now(),
		BitLength:  26,
		CardNumber: "99999999",
	}, outcome))
}
