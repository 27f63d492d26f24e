package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig describes the postgres-backed profile store.
type PostgresConfig struct {
	ConnectionString string        `env:"FLAGKIT_DATABASE_URL,required"`
	RetryAttempts    int           `env:"FLAGKIT_DATABASE_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval    time.Duration `env:"FLAGKIT_DATABASE_RETRY_INTERVAL" envDefault:"5s"`
	Table            string        `env:"FLAGKIT_PROFILE_TABLE" envDefault:"user_profiles"`
}

// PostgresStore keeps one row per (user, experiment) assignment.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithTable overrides the default "user_profiles" table name. The name
// is interpolated into SQL as an identifier, so it must come from
// configuration, never from user input.
func WithTable(table string) PostgresOption {
	return func(s *PostgresStore) { s.table = table }
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{pool: pool, table: "user_profiles"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenPostgres connects with retries, ensures the schema and returns a
// ready store.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrStoreNotReady, err)
	}

	var pool *pgxpool.Pool
	for i := range cfg.RetryAttempts {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
			pool = nil
		}
		time.Sleep(time.Duration(i+1) * cfg.RetryInterval)
	}
	if pool == nil {
		return nil, errors.Join(ErrStoreNotReady, err)
	}

	store := NewPostgresStore(pool)
	if cfg.Table != "" {
		store.table = cfg.Table
	}
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// EnsureSchema creates the profile table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		user_id       text NOT NULL,
		experiment_id text NOT NULL,
		variation_id  text NOT NULL,
		updated_at    timestamptz NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, experiment_id)
	)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return errors.Join(ErrStoreNotReady, err)
	}
	return nil
}

// Lookup collects every stored assignment for the user.
func (s *PostgresStore) Lookup(ctx context.Context, userID string) (Profile, error) {
	query := fmt.Sprintf(
		`SELECT experiment_id, variation_id FROM %s WHERE user_id = $1`, s.table)
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return Profile{}, errors.Join(ErrLookupFailed, err)
	}
	defer rows.Close()

	decisions := make(map[string]string)
	for rows.Next() {
		var experimentID, variationID string
		if err := rows.Scan(&experimentID, &variationID); err != nil {
			return Profile{}, errors.Join(ErrLookupFailed, err)
		}
		decisions[experimentID] = variationID
	}
	if err := rows.Err(); err != nil {
		return Profile{}, errors.Join(ErrLookupFailed, err)
	}
	if len(decisions) == 0 {
		return Profile{}, ErrNotFound
	}
	return Profile{UserID: userID, Decisions: decisions}, nil
}

// Save upserts one assignment; the newest write wins.
func (s *PostgresStore) Save(ctx context.Context, userID, experimentID, variationID string) error {
	if userID == "" || experimentID == "" || variationID == "" {
		return ErrInvalidProfile
	}

	query := fmt.Sprintf(`INSERT INTO %s (user_id, experiment_id, variation_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, experiment_id)
		DO UPDATE SET variation_id = EXCLUDED.variation_id, updated_at = now()`, s.table)
	if _, err := s.pool.Exec(ctx, query, userID, experimentID, variationID); err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() { s.pool.Close() }
