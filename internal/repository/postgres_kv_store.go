package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresKVStore はPostgreSQLのkv_entriesテーブルを使用したKVStore実装。
type PostgresKVStore struct {
	db *sql.DB
}

// NewPostgresKVStore はPostgresKVStoreを生成する。
func NewPostgresKVStore(db *sql.DB) *PostgresKVStore {
	return &PostgresKVStore{db: db}
}

// Get は指定キーの値を取得する。行が存在しない場合はfound=falseを返す。
func (r *PostgresKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM kv_entries WHERE key = $1`,
		key,
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get kv entry: %w", err)
	}

	return value, true, nil
}

const upsertEntrySQL = `INSERT INTO kv_entries (key, value, updated_at)
	 VALUES ($1, $2, now())
	 ON CONFLICT (key) DO UPDATE
	 SET value = EXCLUDED.value, updated_at = now()`

// Set は指定キーに値をUPSERTし、updated_atを更新する。
func (r *PostgresKVStore) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, upsertEntrySQL, key, value)
	if err != nil {
		return fmt.Errorf("failed to set kv entry: %w", err)
	}
	return nil
}

// Update はトランザクション内でキー単位のアドバイザリロックを取り、
// 読み込みからUPSERTまでを他のレプリカのUpdateと直列に行う。
// 行がまだ無いキーでもロックできるよう、行ロックではなくアドバイザリロックを使う。
func (r *PostgresKVStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin kv update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("failed to lock kv entry: %w", err)
	}

	var current string
	found := true
	err = tx.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = $1`, key).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		found = false
	} else if err != nil {
		return fmt.Errorf("failed to get kv entry: %w", err)
	}

	next, err := fn(current, found)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, upsertEntrySQL, key, next); err != nil {
		return fmt.Errorf("failed to set kv entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit kv update: %w", err)
	}
	return nil
}

// Remove は指定キーの行を削除する。
func (r *PostgresKVStore) Remove(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM kv_entries WHERE key = $1`,
		key,
	)
	if err != nil {
		return fmt.Errorf("failed to remove kv entry: %w", err)
	}
	return nil
}

// Ping はDB接続を確認する。
func (r *PostgresKVStore) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// compile-time interface check
var _ KVStore = (*PostgresKVStore)(nil)
