// Package dbtest provides the SQL Server instance integration tests run
// against: an externally provided one via QB_TEST_DSN, or a disposable
// container otherwise.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mssql"
)

// EnvDSN provides the connection string of an already running SQL Server
// to test against, bypassing the container bootstrap.
const EnvDSN = "QB_TEST_DSN"

const (
	containerImage    = "mcr.microsoft.com/mssql/server:2022-latest"
	containerPassword = "QueryBench#1234"
	startupTimeout    = 5 * time.Minute
)

// DSN returns the connection string of the test database. Without
// QB_TEST_DSN it starts a SQL Server container and skips the test if no
// container provider is available.
func DSN(t *testing.T) string {
	t.Helper()

	if dsn := os.Getenv(EnvDSN); dsn != "" {
		return dsn
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	container, err := mssql.Run(ctx, containerImage,
		mssql.WithAcceptEULA(),
		mssql.WithPassword(containerPassword),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("start SQL Server container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("container connection string: %v", err)
	}
	return dsn
}
