//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Fau-Caudullo/happyapp/internal/blob"
	"github.com/Fau-Caudullo/happyapp/internal/blob/blobtest"
)

// postgresDSN returns HAPPYAPP_POSTGRES_DSN when set, otherwise starts a throwaway container.
func postgresDSN(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("HAPPYAPP_POSTGRES_DSN"); dsn != "" {
		return dsn
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "happy",
			"POSTGRES_PASSWORD": "happy",
			"POSTGRES_DB":       "happyapp",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	return fmt.Sprintf("postgres://happy:happy@%s:%s/happyapp?sslmode=disable", host, port.Port())
}

func makePGStore(t *testing.T) blob.Store {
	t.Helper()
	db, err := Open(postgresDSN(t))
	if err != nil {
		t.Fatalf("postgres open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s, err := New(context.Background(), db)
	if err != nil {
		t.Fatalf("postgres new: %v", err)
	}
	return s
}

func TestPostgresStore_Compliance(t *testing.T) {
	blobtest.Run(t, makePGStore)
}
