//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestMatchengineWithMySQL tests the matchengine CLI with a MySQL backend.
func TestMatchengineWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306:3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "matchengine",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(30 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	// multiStatements so migration files with several statements apply
	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/matchengine?multiStatements=true", host, port.Port())
	env := map[string]string{
		"MATCHENGINE_STORE_BACKEND": "mysql",
		"MATCHENGINE_STORE_CONNECT": connStr,
	}

	runMatchengineFlow(t, env)
}

// TestMatchengineWithPostgres tests the matchengine CLI with a PostgreSQL backend.
func TestMatchengineWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432:5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()
	time.Sleep(5 * time.Second)

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	env := map[string]string{
		"MATCHENGINE_STORE_BACKEND": "postgresql",
		"MATCHENGINE_STORE_CONNECT": connStr,
	}

	runMatchengineFlow(t, env)
}

// runMatchengineFlow drives the CLI through the standard migrate, seed,
// match, price, status sequence against the configured backend.
func runMatchengineFlow(t *testing.T, env map[string]string) {
	t.Helper()

	err := runMatchengineCommand(t, env, "store", "migrate")
	require.NoError(t, err)

	err = runMatchengineCommand(t, env, "store", "seed")
	require.NoError(t, err)

	err = runMatchengineCommand(t, env, "match", "1")
	require.NoError(t, err)

	err = runMatchengineCommand(t, env, "price", "1")
	require.NoError(t, err)

	err = runMatchengineCommand(t, env, "store", "status")
	require.NoError(t, err)
}
