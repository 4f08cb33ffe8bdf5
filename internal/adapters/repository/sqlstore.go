package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/okian/accounts/internal/config"
	"github.com/okian/accounts/internal/domain/model"
	"github.com/okian/accounts/pkg/logger"
	"github.com/okian/accounts/pkg/metrics"
)

// Statement names used in errors and metrics.
const (
	opInsert = "insert"
	opList   = "list"
	opPing   = "ping"
)

// SQLStore implements Store on a database/sql connection pool.
type SQLStore struct {
	db             *sqlx.DB
	dialect        dialect
	logger         logger.Logger
	metricsEnabled bool
}

var _ Store = (*SQLStore)(nil)

// Open creates the pool described by cfg and verifies connectivity.
// The returned store owns the pool; call Close at shutdown.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*SQLStore, error) {
	d, err := dialectFor(cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	db, err := openDB(cfg)
	if err != nil {
		return nil, classified("open", KindFatal, err)
	}

	db.SetMaxOpenConns(cfg.PoolSize)
	db.SetMaxIdleConns(cfg.PoolSize)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdle())
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime())

	s := newSQLStore(db, d, opts...)

	pingCtx := ctx
	if timeout := cfg.ConnectTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := s.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.logger.Info(ctx, "database pool ready",
		logger.String("driver", d.name),
		logger.String("host", cfg.DBHost),
		logger.String("database", cfg.DBName),
		logger.Int("poolSize", cfg.PoolSize),
	)
	return s, nil
}

// NewSQLStore wraps an existing pool. driver selects statements and error
// classification and must be one of the config.Driver* constants.
func NewSQLStore(db *sql.DB, driver string, opts ...Option) (*SQLStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return newSQLStore(db, d, opts...), nil
}

func newSQLStore(db *sql.DB, d dialect, opts ...Option) *SQLStore {
	s := &SQLStore{
		db:             sqlx.NewDb(db, d.name),
		dialect:        d,
		metricsEnabled: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("store")
	}
	return s
}

// Insert adds a user row with a single parameterized statement.
func (s *SQLStore) Insert(ctx context.Context, u model.User) error {
	start := time.Now()
	_, err := s.db.NamedExecContext(ctx, insertUserSQL, u)
	return s.observe(opInsert, start, err)
}

// List returns every row of the users table in store order.
func (s *SQLStore) List(ctx context.Context) ([]model.User, error) {
	start := time.Now()
	users, err := s.list(ctx)
	if err := s.observe(opList, start, err); err != nil {
		return nil, err
	}
	return users, nil
}

// userRow tolerates a NULL warnings column.
type userRow struct {
	ID       string        `db:"id"`
	Username string        `db:"username"`
	Password string        `db:"password"`
	Warnings sql.NullInt64 `db:"warnings"`
}

func (s *SQLStore) list(ctx context.Context) ([]model.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, listUsersSQL); err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, model.User{
			ID:       r.ID,
			Username: r.Username,
			Password: r.Password,
			Warnings: int(r.Warnings.Int64),
		})
	}
	return users, nil
}

// Ping verifies a connection can be borrowed and used.
func (s *SQLStore) Ping(ctx context.Context) error {
	start := time.Now()
	return s.observe(opPing, start, s.db.PingContext(ctx))
}

// Stats reports the pool's current statistics.
func (s *SQLStore) Stats() PoolStats {
	st := s.db.Stats()
	return PoolStats{
		MaxOpen:        st.MaxOpenConnections,
		Open:           st.OpenConnections,
		InUse:          st.InUse,
		Idle:           st.Idle,
		WaitCount:      st.WaitCount,
		WaitDurationMs: st.WaitDuration.Milliseconds(),
	}
}

// Close releases every pooled connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// observe classifies err and records the statement outcome.
func (s *SQLStore) observe(op string, start time.Time, err error) error {
	kind := KindNone
	if err != nil {
		kind = s.dialect.classify(err)
		err = classified(op, kind, err)
	}
	if s.metricsEnabled {
		outcome := "ok"
		if kind != KindNone {
			outcome = kind.String()
			metrics.RecordStoreError(op, outcome)
		}
		metrics.RecordStoreOperation(op, outcome, float64(time.Since(start).Microseconds())/1000)
	}
	return err
}
