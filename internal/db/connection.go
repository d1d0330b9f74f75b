package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

// DB wraps a connection pool to one of the two target databases
type DB struct {
	pool *pgxpool.Pool
}

// New creates a connection pool for the main Open WebUI database
func New(ctx context.Context, connString string) (*DB, error) {
	return connect(ctx, connString, nil)
}

// NewVector creates a connection pool for the vector database. Every
// connection registers the pgvector codecs so document_chunk rows scan
// cleanly.
func NewVector(ctx context.Context, connString string) (*DB, error) {
	return connect(ctx, connString, func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	})
}

func connect(ctx context.Context, connString string, afterConnect func(context.Context, *pgx.Conn) error) (*DB, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	// A maintenance run is sequential; two connections cover the
	// occasional overlap of a transaction and a VACUUM.
	config.MaxConns = 2
	config.MaxConnLifetime = time.Hour
	config.AfterConnect = afterConnect

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Pool returns the underlying connection pool
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.pool.Close()
}
