package restore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"dbsnap/internal/core"
)

// ContainerDestination is the local ephemeral-container destination from
// spec.md §4.7(c): a disposable database booted from a known image tag,
// torn down only after a shutdown signal arrives — grounded on the
// teacher's setupMySQL test helper, generalized from a test fixture into a
// long-lived destination and extended to cover Postgres the same way.
type ContainerDestination struct {
	*SQLDestination
	db        *sql.DB
	terminate func(context.Context) error
}

// NewMySQLContainer boots a disposable MySQL container from imageTag (e.g.
// "mysql:8.0") and returns a Destination wired to it.
func NewMySQLContainer(ctx context.Context, imageTag string) (*ContainerDestination, error) {
	container, err := tcmysql.Run(ctx, imageTag,
		tcmysql.WithDatabase("restore"),
		tcmysql.WithUsername("root"),
		tcmysql.WithPassword("restore"),
	)
	if err != nil {
		return nil, fmt.Errorf("starting mysql container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "parseTime=true")
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("reading mysql container dsn: %w", err)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("opening mysql container connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("pinging mysql container: %w", err)
	}

	return &ContainerDestination{
		SQLDestination: NewSQLDestination(db, core.FamilyMySQL),
		db:             db,
		terminate:      func(ctx context.Context) error { return testcontainers.TerminateContainer(container) },
	}, nil
}

// NewPostgresContainer boots a disposable Postgres container from imageTag
// (e.g. "postgres:16-alpine") and returns a Destination wired to it.
func NewPostgresContainer(ctx context.Context, imageTag string) (*ContainerDestination, error) {
	container, err := tcpostgres.Run(ctx, imageTag,
		tcpostgres.WithDatabase("restore"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("restore"),
	)
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("reading postgres container dsn: %w", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("opening postgres container connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = testcontainers.TerminateContainer(container)
		return nil, fmt.Errorf("pinging postgres container: %w", err)
	}

	return &ContainerDestination{
		SQLDestination: NewSQLDestination(db, core.FamilyPostgres),
		db:             db,
		terminate:      func(ctx context.Context) error { return testcontainers.TerminateContainer(container) },
	}, nil
}

// AwaitShutdown blocks until SIGINT or SIGTERM arrives, then closes the
// database connection and tears down the container — spec.md §4.7's "the
// container mode waits on a shutdown signal before stopping or removing
// the container," implemented as a scoped signal registration that's
// guaranteed to release (spec.md §9's "Global state" note).
func (c *ContainerDestination) AwaitShutdown(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	_ = c.db.Close()
	return c.terminate(context.Background())
}
