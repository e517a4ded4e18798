// Package testdb starts throwaway Postgres containers for integration tests.
package testdb

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const image = "postgres:16-alpine"

// Start runs a fresh Postgres container for the test and returns its
// connection URL. The container is removed when the test finishes. Tests are
// skipped in -short mode.
func Start(t testing.TB) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(
		ctx,
		image,
		postgres.WithDatabase("typewriter"),
		postgres.WithUsername("typewriter"),
		postgres.WithPassword("typewriter"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	return url
}
