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

// TestBlameledgerWithMySQL tests the blameledger CLI with a MySQL backend.
func TestBlameledgerWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "blameledger",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	env := []string{
		"BLAMELEDGER_BACKEND=mysql",
		fmt.Sprintf("BLAMELEDGER_DB_CONNECT=root:secret123@tcp(%s:%s)/blameledger", host, port.Port()),
		"BLAMELEDGER_COLOR=no",
	}
	runDatabaseWorkflow(t, env)
}

// TestBlameledgerWithPostgres tests the blameledger CLI with a PostgreSQL backend.
func TestBlameledgerWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	env := []string{
		"BLAMELEDGER_BACKEND=postgresql",
		fmt.Sprintf("BLAMELEDGER_DB_CONNECT=host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port()),
		"BLAMELEDGER_COLOR=no",
	}
	runDatabaseWorkflow(t, env)
}

// runDatabaseWorkflow migrates a fresh server, runs the shared workflow and drops the ledger.
func runDatabaseWorkflow(t *testing.T, env []string) {
	_, err := runCommand(t, env, "ledger", "migrate")
	require.NoError(t, err)

	verifyWorkflow(t, env)

	_, err = runCommand(t, env, "ledger", "clear")
	require.NoError(t, err)
}
