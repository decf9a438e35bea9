package stamps

import (
	"context"
	"errors"
	"sort"

	sq "github.com/Masterminds/squirrel"
	model "github.com/glkeru/loyalty/stamps/internal/models"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const kvTable = "stamps_kv"

const kvSchema = `CREATE TABLE IF NOT EXISTS stamps_kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

type PostgresKV struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresKV(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresKV, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	_, err = pool.Exec(ctx, kvSchema)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresKV{pool, logger}, nil
}

func (p *PostgresKV) logSQL(err error, sql string, args []any) {
	p.logger.Error("SQL error",
		zap.Error(err),
		zap.String("query", sql),
		zap.Int("args", len(args)),
	)
}

func (p *PostgresKV) Get(ctx context.Context, key string) (string, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Release()

	sql, args, err := sq.Select("value").
		From(kvTable).
		Where(sq.Eq{"key": key}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return "", err
	}

	var value pgtype.Text
	err = conn.QueryRow(ctx, sql, args...).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", model.ErrKeyNotFound
		}
		p.logSQL(err, sql, args)
		return "", err
	}
	return value.String, nil
}

func (p *PostgresKV) Set(ctx context.Context, key string, value string) error {
	return p.SetMany(ctx, map[string]string{key: value})
}

// Один upsert в транзакции
func (p *PostgresKV) SetMany(ctx context.Context, values map[string]string) (err error) {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	query := sq.Insert(kvTable).Columns("key", "value")
	for _, k := range keys {
		query = query.Values(k, values[k])
	}
	sql, args, err := query.
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx, sql, args...)
	if err != nil {
		p.logSQL(err, sql, args)
		return err
	}
	return tx.Commit(ctx)
}

func (p *PostgresKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	sql, args, err := sq.Select("key").
		From(kvTable).
		Where(sq.Like{"key": prefix + "%"}).
		OrderBy("key").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		p.logSQL(err, sql, args)
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		err = rows.Scan(&key)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (p *PostgresKV) Close(ctx context.Context) error {
	p.pool.Close()
	return nil
}
