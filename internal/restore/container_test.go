package restore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestContainerDestinationIntegration boots real MySQL and Postgres
// containers, runs one CREATE TABLE statement against each and tears it
// down, mirroring the teacher's setupMySQL-backed
// TestApplierConnectIntegration pattern.
func TestContainerDestinationIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	t.Run("mysql container accepts a restore", func(t *testing.T) {
		dest, err := NewMySQLContainer(ctx, "mysql:8.0")
		require.NoError(t, err, "failed to start MySQL container")

		err = dest.WriteQuery(ctx, "CREATE TABLE users (id INT PRIMARY KEY, name VARCHAR(255));")
		require.NoError(t, err)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		assert.NoError(t, dest.AwaitShutdown(shutdownCtx))
	})

	t.Run("postgres container accepts a restore", func(t *testing.T) {
		dest, err := NewPostgresContainer(ctx, "postgres:16-alpine")
		require.NoError(t, err, "failed to start Postgres container")

		err = dest.WriteQuery(ctx, "CREATE TABLE users (id INT PRIMARY KEY, name TEXT);")
		require.NoError(t, err)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		assert.NoError(t, dest.AwaitShutdown(shutdownCtx))
	})
}
