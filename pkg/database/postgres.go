package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	SSLMode        string
	MaxConns       int32
	MinConns       int32
	MaxRetries     int
	RetryInterval  time.Duration
	ConnectTimeout time.Duration
}

// DefaultPostgresConfig returns default connection configuration
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:           "localhost",
		Port:           5432,
		User:           "postgres",
		Password:       "postgres",
		Database:       "event_management",
		SSLMode:        "disable",
		MaxConns:       25,
		MinConns:       5,
		MaxRetries:     3,
		RetryInterval:  2 * time.Second,
		ConnectTimeout: 5 * time.Second,
	}
}

// DSN builds the connection string
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// PostgresDB wraps a pgx connection pool
type PostgresDB struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to PostgreSQL with retries and returns a PostgresDB
func NewPostgres(ctx context.Context, cfg *PostgresConfig) (*PostgresDB, error) {
	if cfg == nil {
		cfg = DefaultPostgresConfig()
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	var pool *pgxpool.Pool
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(cfg.RetryInterval):
			}
		}
		pool, lastErr = pgxpool.NewWithConfig(ctx, poolConfig)
		if lastErr != nil {
			continue
		}
		if lastErr = pool.Ping(ctx); lastErr == nil {
			return &PostgresDB{pool: pool}, nil
		}
		pool.Close()
	}
	return nil, fmt.Errorf("connect to postgres after %d retries: %w", cfg.MaxRetries, lastErr)
}

// Pool returns the underlying connection pool
func (db *PostgresDB) Pool() *pgxpool.Pool {
	return db.pool
}

// Ping verifies the database connection
func (db *PostgresDB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// IsConnected reports whether the database answers a ping
func (db *PostgresDB) IsConnected(ctx context.Context) bool {
	return db.Ping(ctx) == nil
}

// Stats returns pool statistics
func (db *PostgresDB) Stats() *pgxpool.Stat {
	return db.pool.Stat()
}

// HealthCheck runs a trivial query to verify the database serves reads
func (db *PostgresDB) HealthCheck(ctx context.Context) error {
	var one int
	if err := db.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("postgres health check: %w", err)
	}
	return nil
}

// Exec executes a statement without returning rows
func (db *PostgresDB) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := db.pool.Exec(ctx, sql, args...)
	return err
}

// QueryRow executes a query expected to return at most one row
func (db *PostgresDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return db.pool.QueryRow(ctx, sql, args...)
}

// BeginTx starts a transaction
func (db *PostgresDB) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return db.pool.Begin(ctx)
}

// Close closes the connection pool
func (db *PostgresDB) Close() {
	db.pool.Close()
}
