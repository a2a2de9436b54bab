package integration_test

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	pgxstd "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const migrationsSource = "file://../../migrations"

// PostgresContainer is a migrated booking database.
type PostgresContainer struct {
	Container        *postgres.PostgresContainer
	ConnectionString string
}

// RedisContainer backs sessions, rate limits and the seat map cache.
type RedisContainer struct {
	Container        *tcredis.RedisContainer
	ConnectionString string
}

func getDbContainer(ctx context.Context) (*PostgresContainer, error) {
	container, err := postgres.Run(ctx, dbImageName,
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithEnv(map[string]string{"POSTGRES_INITDB_ARGS": "--data-checksums"}),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("start booking database: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, errors.Join(fmt.Errorf("booking database dsn: %w", err), testcontainers.TerminateContainer(container))
	}

	if err := migrateUp(dsn, migrationsSource); err != nil {
		return nil, errors.Join(err, testcontainers.TerminateContainer(container))
	}

	return &PostgresContainer{Container: container, ConnectionString: dsn}, nil
}

// migrateUp applies every pending migration; an already current schema is fine.
func migrateUp(dsn, source string) error {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse dsn: %w", err)
	}

	db := pgxstd.OpenDB(*config)
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(source, "pgx", driver)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func getCacheContainer(ctx context.Context) (*RedisContainer, error) {
	container, err := tcredis.Run(ctx, cacheImageName)
	if err != nil {
		return nil, fmt.Errorf("start redis: %w", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("redis address: %w", err), testcontainers.TerminateContainer(container))
	}

	// the app dials a plain host:port
	return &RedisContainer{
		Container:        container,
		ConnectionString: strings.TrimPrefix(uri, "redis://"),
	}, nil
}
