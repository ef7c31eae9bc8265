// Package adapter opens database sessions for the backends sqlp can
// execute against.
package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/ha1tch/sqlp/dialect"
)

// Config holds connection settings. When DSN is set it is passed to the
// driver as is (after validation); otherwise a DSN is built from the
// individual fields.
type Config struct {
	Backend dialect.Dialect
	DSN     string

	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// SQLite specific
	FilePath string
	InMemory bool

	// Additional driver options as key-value pairs
	Options map[string]string
}

// DefaultConfig returns a config for an ephemeral in-memory SQLite
// database.
func DefaultConfig() Config {
	return Config{
		Backend:         dialect.SQLite,
		InMemory:        true,
		Host:            "localhost",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
		SSLMode:         "disable",
		Options:         make(map[string]string),
	}
}

// Validate checks that the backend can be executed against.
func (c Config) Validate() error {
	if !dialect.IsBackend(c.Backend) {
		return &dialect.ConfigurationError{Kind: "backend", Name: c.Backend.String(), Supported: dialect.Backends}
	}
	return nil
}

// DriverName returns the database/sql driver registered for the backend.
func (c Config) DriverName() string {
	switch c.Backend {
	case dialect.SQLite:
		return "sqlite"
	case dialect.Postgres:
		return "postgres"
	case dialect.MySQL:
		return "mysql"
	case dialect.SQLServer:
		return "sqlserver"
	}
	return ""
}

// memory reports whether the config names a private in-memory SQLite
// database, which lives only as long as its single connection.
func (c Config) memory() bool {
	if c.Backend != dialect.SQLite {
		return false
	}
	if c.DSN != "" {
		return c.DSN == ":memory:"
	}
	return c.InMemory || c.FilePath == ""
}

// DataSourceName returns the DSN handed to the driver.
func (c Config) DataSourceName() (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if c.DSN != "" {
		if c.Backend == dialect.MySQL {
			// go-sql-driver reports malformed DSNs only on first use.
			mc, err := mysql.ParseDSN(c.DSN)
			if err != nil {
				return "", fmt.Errorf("invalid mysql dsn: %w", err)
			}
			return mc.FormatDSN(), nil
		}
		return c.DSN, nil
	}

	switch c.Backend {
	case dialect.SQLite:
		path := c.FilePath
		if c.memory() {
			path = ":memory:"
		}
		if len(c.Options) > 0 {
			path += "?" + c.options().Encode()
		}
		return path, nil

	case dialect.Postgres:
		u := &url.URL{
			Scheme: "postgres",
			User:   c.userinfo(),
			Host:   c.hostPort(5432),
			Path:   "/" + c.Database,
		}
		q := c.options()
		if c.SSLMode != "" {
			q.Set("sslmode", c.SSLMode)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil

	case dialect.MySQL:
		mc := mysql.NewConfig()
		mc.User = c.Username
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = c.hostPort(3306)
		mc.DBName = c.Database
		if len(c.Options) > 0 {
			mc.Params = make(map[string]string, len(c.Options))
			for k, v := range c.Options {
				mc.Params[k] = v
			}
		}
		return mc.FormatDSN(), nil

	case dialect.SQLServer:
		u := &url.URL{
			Scheme: "sqlserver",
			User:   c.userinfo(),
			Host:   c.hostPort(1433),
		}
		q := c.options()
		if c.Database != "" {
			q.Set("database", c.Database)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}
	return "", fmt.Errorf("no dsn for backend %s", c.Backend)
}

func (c Config) hostPort(defaultPort int) string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (c Config) userinfo() *url.Userinfo {
	if c.Username == "" {
		return nil
	}
	if c.Password == "" {
		return url.User(c.Username)
	}
	return url.UserPassword(c.Username, c.Password)
}

func (c Config) options() url.Values {
	q := url.Values{}
	for k, v := range c.Options {
		q.Set(k, v)
	}
	return q
}

// Conn is a session pinned to one physical connection, so that session
// state (temporary tables, settings, an in-memory database) survives
// between statements. Close releases the connection and its pool.
type Conn struct {
	*sql.Conn
	db      *sql.DB
	backend dialect.Dialect
}

// Open connects to the configured backend and returns a pinned session.
func Open(ctx context.Context, cfg Config) (*Conn, error) {
	dsn, err := cfg.DataSourceName()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Backend, err)
	}
	configurePool(db, cfg)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", cfg.Backend, err)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", cfg.Backend, err)
	}
	return &Conn{Conn: conn, db: db, backend: cfg.Backend}, nil
}

// Backend returns the dialect the session speaks.
func (c *Conn) Backend() dialect.Dialect { return c.backend }

// DB returns the underlying pool.
func (c *Conn) DB() *sql.DB { return c.db }

// Close closes the connection and the pool.
func (c *Conn) Close() error {
	connErr := c.Conn.Close()
	if err := c.db.Close(); err != nil {
		return err
	}
	return connErr
}

// HealthCheck pings the session and runs a trivial query.
func (c *Conn) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	var result int
	if err := c.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}
	return nil
}

// configurePool sets connection pool parameters. A private in-memory
// database is limited to one connection that is never recycled, since
// every new connection would see an empty database.
func configurePool(db *sql.DB, cfg Config) {
	if cfg.memory() {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
		return
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}
