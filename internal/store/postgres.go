package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/DesaRank/internal/dataset"
	"github.com/MikeSquared-Agency/DesaRank/internal/scoring"
)

// Pool is the subset of *pgxpool.Pool the store uses. pgxmock pools satisfy it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

type PostgresStore struct {
	pool     Pool
	criteria scoring.CriterionSet
	logger   *slog.Logger
}

func NewPostgresStore(ctx context.Context, databaseURL string, criteria scoring.CriterionSet, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewPostgresStoreWithPool(pool, criteria, logger), nil
}

// NewPostgresStoreWithPool wraps an existing pool.
func NewPostgresStoreWithPool(pool Pool, criteria scoring.CriterionSet, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, criteria: criteria, logger: logger}
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Migrate applies any pending embedded migrations on one pinned connection.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	conn, release, err := acquire(ctx, s.pool)
	if err != nil {
		return err
	}
	defer release()
	return Migrate(ctx, conn, s.logger)
}

// acquire pins a single connection of a real pool. Other Pool implementations
// are already one session and are returned as they are.
func acquire(ctx context.Context, pool Pool) (Conn, func(), error) {
	p, ok := pool.(*pgxpool.Pool)
	if !ok {
		return pool, func() {}, nil
	}
	c, err := p.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire connection: %w", err)
	}
	return c, c.Release, nil
}

func (s *PostgresStore) LoadComparisons(ctx context.Context) (scoring.Comparisons, bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT pair_key, value FROM spk_comparisons`)
	if err != nil {
		return nil, false, fmt.Errorf("query comparisons: %w", err)
	}
	defer rows.Close()

	c := scoring.Comparisons{}
	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, false, fmt.Errorf("scan comparison: %w", err)
		}
		c[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(c) == 0 {
		return nil, false, nil
	}
	return c, true, nil
}

func (s *PostgresStore) SaveComparisons(ctx context.Context, c scoring.Comparisons) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM spk_comparisons`); err != nil {
		return fmt.Errorf("clear comparisons: %w", err)
	}

	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := tx.Exec(ctx,
			`INSERT INTO spk_comparisons (pair_key, value) VALUES ($1, $2)`,
			k, c[k],
		); err != nil {
			return fmt.Errorf("insert comparison %s: %w", k, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListVillages(ctx context.Context) ([]dataset.Record, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, criteria FROM spk_villages ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query villages: %w", err)
	}
	defer rows.Close()

	records := []dataset.Record{}
	for rows.Next() {
		var name string
		var raw []byte
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("scan village: %w", err)
		}
		values := map[string]*float64{}
		if raw != nil {
			if err := json.Unmarshal(raw, &values); err != nil {
				return nil, fmt.Errorf("decode criteria for %s: %w", name, err)
			}
		}
		rec := dataset.Record{Name: name, Values: make([]*float64, len(s.criteria))}
		for i, c := range s.criteria {
			rec.Values[i] = values[c.Name]
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) AppendVillages(ctx context.Context, records []dataset.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, r := range records {
		values := make(map[string]*float64, len(s.criteria))
		for i, c := range s.criteria {
			if i < len(r.Values) {
				values[c.Name] = r.Values[i]
			}
		}
		criteriaJSON, err := json.Marshal(values)
		if err != nil {
			return fmt.Errorf("encode criteria for %s: %w", r.Name, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO spk_villages (id, name, criteria) VALUES ($1, $2, $3)`,
			uuid.New(), r.Name, criteriaJSON,
		); err != nil {
			return fmt.Errorf("insert village %s: %w", r.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
