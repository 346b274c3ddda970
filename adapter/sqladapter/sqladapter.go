// Package sqladapter backs a repository with a relational database
// through database/sql. It translates changesets and query
// specifications into dialect-specific SQL.
package sqladapter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shrek82/jrepo/dialect"
	"github.com/shrek82/jrepo/logger"
	"github.com/shrek82/jrepo/model"
	"github.com/shrek82/jrepo/pool"
)

// Options defines the configuration for the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Adapter implements the repository's backing operations over a SQL
// database.
type Adapter struct {
	pool    pool.Pool
	dialect dialect.Dialect
	logger  logger.Logger
}

// Open initializes an Adapter for the given driver and DSN. The driver
// name must match a registered dialect.
func Open(driver, dsn string, opts *Options) (*Adapter, error) {
	d, ok := dialect.Get(driver)
	if !ok {
		return nil, fmt.Errorf("unknown dialect %s", driver)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	p := pool.NewStdPool(sqlDB)

	if opts != nil {
		if opts.MaxOpenConns > 0 {
			p.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			p.SetMaxIdleConns(opts.MaxIdleConns)
		}
		if opts.ConnMaxLifetime > 0 {
			p.SetConnMaxLifetime(opts.ConnMaxLifetime)
		}
	}

	if err := p.Ping(); err != nil {
		return nil, err
	}

	return &Adapter{
		pool:    p,
		dialect: d,
		logger:  logger.NewStdLogger(),
	}, nil
}

// New wraps an existing pool and dialect.
func New(p pool.Pool, d dialect.Dialect) *Adapter {
	return &Adapter{pool: p, dialect: d, logger: logger.NewStdLogger()}
}

// Close closes the underlying connection pool.
func (a *Adapter) Close() error {
	return a.pool.Close()
}

// SetLogger sets a custom logger for SQL statement logging.
func (a *Adapter) SetLogger(l logger.Logger) {
	a.logger = l
}

func (a *Adapter) logSQL(stmt string, duration time.Duration, args ...any) {
	if a.logger != nil {
		a.logger.Op(stmt, duration, args...)
	}
}

// AutoMigrate creates the table for each given entity type if it does
// not exist yet.
func (a *Adapter) AutoMigrate(values ...any) error {
	for _, value := range values {
		m, err := model.GetModel(value)
		if err != nil {
			return err
		}

		sqlStr, args := a.dialect.HasTableSQL(m.TableName)
		var count int
		if err := a.pool.QueryRowContext(context.Background(), sqlStr, args...).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		createSQL := a.dialect.CreateTableSQL(m)
		start := time.Now()
		_, err = a.pool.ExecContext(context.Background(), createSQL)
		a.logSQL(createSQL, time.Since(start))
		if err != nil {
			return err
		}
	}
	return nil
}

// replacePlaceholders rewrites generic ? markers into the dialect's
// positional placeholders.
func (a *Adapter) replacePlaceholders(stmt string) string {
	if !strings.Contains(stmt, "?") {
		return stmt
	}

	var sb strings.Builder
	index := 1
	for {
		idx := strings.Index(stmt, "?")
		if idx == -1 {
			sb.WriteString(stmt)
			break
		}
		sb.WriteString(stmt[:idx])
		sb.WriteString(a.dialect.Placeholder(index))
		stmt = stmt[idx+1:]
		index++
	}
	return sb.String()
}
