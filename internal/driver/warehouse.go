package driver

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/snowflakedb/gosnowflake"
	_ "modernc.org/sqlite"

	"github.com/agenthands/tydrodash/internal/config"
)

// SQLWarehouse runs report queries over a database/sql pool. It is created
// once by the caller and passed explicitly to whoever needs it; every query
// checks a connection out of the pool and returns it before ExecuteQuery
// returns.
type SQLWarehouse struct {
	DB     *sql.DB
	Driver string
	log    *logrus.Entry
}

func Open(ctx context.Context, cfg config.WarehouseConfig, logger *logrus.Entry) (*SQLWarehouse, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s warehouse: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach %s warehouse: %w", cfg.Driver, err)
	}

	logger.WithField("driver", cfg.Driver).Info("Connected to warehouse")
	return NewSQLWarehouse(db, cfg.Driver, logger), nil
}

// NewSQLWarehouse wraps an already opened pool.
func NewSQLWarehouse(db *sql.DB, driverName string, logger *logrus.Entry) *SQLWarehouse {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &SQLWarehouse{DB: db, Driver: driverName, log: logger}
}

// DSN returns the data source name for cfg. An explicit dsn wins; otherwise a
// Snowflake DSN is assembled from the account fields.
func DSN(cfg config.WarehouseConfig) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.Driver != config.DriverSnowflake {
		return "", fmt.Errorf("warehouse driver %q requires a dsn", cfg.Driver)
	}
	dsn, err := gosnowflake.DSN(&gosnowflake.Config{
		Account:   cfg.Account,
		User:      cfg.User,
		Password:  cfg.Password,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Warehouse: cfg.Warehouse,
		Role:      cfg.Role,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build snowflake dsn: %w", err)
	}
	return dsn, nil
}

func (w *SQLWarehouse) Ping(ctx context.Context) error {
	return w.DB.PingContext(ctx)
}

func (w *SQLWarehouse) Close() error {
	return w.DB.Close()
}

func (w *SQLWarehouse) ExecuteQuery(ctx context.Context, query string, args ...any) (Result, error) {
	conn, err := w.DB.Conn(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			w.log.WithError(cerr).Warn("failed to release warehouse connection")
		}
	}()

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return Result{}, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read columns: %w", err)
	}

	res := Result{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{}, fmt.Errorf("failed to scan row: %w", err)
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("failed to read rows: %w", err)
	}
	return res, nil
}
