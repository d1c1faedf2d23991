package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

var (
	// ErrNotFound is returned when no user matches the given identifier or email.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when registering an email that is already taken.
	ErrDuplicateEmail = errors.New("email already registered")
)

// DB wraps a pgx connection pool and owns all SQL executed by the server.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to Postgres using the DB_* environment variables and verifies
// the connection with a ping before returning.
func New(ctx context.Context) (*DB, error) {
	connString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"))

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database pool: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Migrate creates the users and history tables if they do not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	sqlQuery, err := getQueryString("create_tables")
	if err != nil {
		return err
	}
	if _, err := d.pool.Exec(ctx, sqlQuery); err != nil {
		return fmt.Errorf("error creating tables: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (d *DB) Close() {
	d.pool.Close()
}

func getQueryString(queryFilename string) (string, error) {
	sqlFilePath := filepath.Join("sql", queryFilename+".sql")
	sqlBytes, err := sqlFiles.ReadFile(sqlFilePath)
	if err != nil {
		return "", fmt.Errorf("failed to read embedded SQL file %q: %w", sqlFilePath, err)
	}
	return string(sqlBytes), nil
}
