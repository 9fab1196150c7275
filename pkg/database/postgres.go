package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog"

	"gitlab.connectwisedev.com/inventory-service/pkg/config"
)

//go:embed schema.sql
var schema string

// DBClient holds the PostgreSQL database connection
type DBClient struct {
	db  *sql.DB
	log zerolog.Logger
}

// ConnString builds the lib/pq keyword/value connection string.
func ConnString(cfg config.Database) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

// NewPostgresClient initializes and returns a new PostgreSQL client
func NewPostgresClient(ctx context.Context, cfg config.Database, log zerolog.Logger) (*DBClient, error) {
	db, err := sql.Open("postgres", ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = db.PingContext(pingCtx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info().Str("host", cfg.Host).Str("db", cfg.Name).Msg("Successfully connected to PostgreSQL!")
	return &DBClient{db: db, log: log}, nil
}

// EnsureSchema creates the tables and indexes if they do not exist yet.
func (c *DBClient) EnsureSchema(ctx context.Context) error {
	return ApplySchema(ctx, c.db)
}

// ApplySchema runs the embedded schema against db.
func ApplySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *DBClient) Close() {
	if c.db != nil {
		c.db.Close()
		c.log.Info().Msg("PostgreSQL connection closed.")
	}
}

// GetDB returns the underlying *sql.DB instance
func (c *DBClient) GetDB() *sql.DB {
	return c.db
}
