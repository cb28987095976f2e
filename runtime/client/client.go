// Package client bootstraps pooled database connections per provider.
//
// The query engine itself only borrows handles; this package is where the
// pool is built and owned.
package client

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/SiddhanthNB/simple-orm/query/operators"
)

// Env variable names read by FromEnv.
const (
	EnvProvider     = "DATABASE_PROVIDER"
	EnvURL          = "DATABASE_URL"
	EnvMaxOpenConns = "DATABASE_MAX_OPEN_CONNS"
	EnvMaxIdleConns = "DATABASE_MAX_IDLE_CONNS"
)

// Client owns one connection pool for one provider.
type Client struct {
	db      *sql.DB
	dialect operators.Dialect
}

// New opens a pool for the given provider and DSN.
func New(provider, dsn string) (*Client, error) {
	dialect, err := operators.ParseDialect(provider)
	if err != nil {
		return nil, err
	}
	driverName := driverFor(dialect)
	if driverName == "" {
		return nil, fmt.Errorf("no bundled driver for %s; open the pool yourself and use FromDB", dialect)
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	return &Client{db: db, dialect: dialect}, nil
}

// FromDB wraps an externally opened pool.
func FromDB(db *sql.DB, provider string) (*Client, error) {
	dialect, err := operators.ParseDialect(provider)
	if err != nil {
		return nil, err
	}
	return &Client{db: db, dialect: dialect}, nil
}

// FromEnv builds a client from DATABASE_PROVIDER and DATABASE_URL, loading a
// .env file first when one exists.
func FromEnv() (*Client, error) {
	_ = godotenv.Load()

	provider := os.Getenv(EnvProvider)
	dsn := os.Getenv(EnvURL)
	if provider == "" || dsn == "" {
		return nil, fmt.Errorf("%s and %s must be set", EnvProvider, EnvURL)
	}
	c, err := New(provider, dsn)
	if err != nil {
		return nil, err
	}
	if n, ok := intEnv(EnvMaxOpenConns); ok {
		c.db.SetMaxOpenConns(n)
	}
	if n, ok := intEnv(EnvMaxIdleConns); ok {
		c.db.SetMaxIdleConns(n)
	}
	return c, nil
}

func intEnv(name string) (int, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// driverFor maps dialects to registered database/sql driver names. SQL
// Server compiles but ships without a bundled driver.
func driverFor(d operators.Dialect) string {
	switch d {
	case operators.Postgres:
		return "postgres"
	case operators.MySQL:
		return "mysql"
	case operators.SQLite:
		return "sqlite3"
	default:
		return ""
	}
}

// Connect verifies the pool can reach the database.
func (c *Client) Connect(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Disconnect closes the pool.
func (c *Client) Disconnect() error {
	return c.db.Close()
}

// SetConnMaxLifetime bounds how long a pooled connection may be reused.
func (c *Client) SetConnMaxLifetime(d time.Duration) {
	c.db.SetConnMaxLifetime(d)
}

// DB exposes the underlying pool.
func (c *Client) DB() *sql.DB { return c.db }

// Dialect returns the client's dialect.
func (c *Client) Dialect() operators.Dialect { return c.dialect }
