package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
)

// RedisKVStore はRedisをバックエンドに使うKVStore実装。
// 各コマンドはOpenTelemetryのスパンとして記録される。
type RedisKVStore struct {
	client *redis.Client
}

// NewRedisKVStore はRedisの接続先（"redis://..." 形式または "host:port"）から
// RedisKVStoreを生成する。接続確認はWaitReadyで行う。
func NewRedisKVStore(addr string) *RedisKVStore {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		// "redis://" 形式でない場合はアドレスとして扱う
		opts = &redis.Options{
			Addr:         addr,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
		}
	}

	client := redis.NewClient(opts)
	client.AddHook(redisotel.NewTracingHook())

	return &RedisKVStore{client: client}
}

// Get は指定キーの値を取得する。redis.Nilの場合はfound=falseを返す。
func (r *RedisKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis GET failed: %w", err)
	}
	return val, true, nil
}

// Set は指定キーに値を保存する。有効期限は設定しない。
func (r *RedisKVStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}
	return nil
}

// Remove は指定キーを削除する。
func (r *RedisKVStore) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis DEL failed: %w", err)
	}
	return nil
}

// maxUpdateAttempts はWATCHが競合した場合にUpdateをやり直す上限。
const maxUpdateAttempts = 10

// Update はWATCH/MULTIでキーを楽観的にロックして読み込み・書き戻しを行う。
// 他のクライアントが途中でキーを書き換えた場合はやり直す。
func (r *RedisKVStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Result()
		found := true
		if errors.Is(err, redis.Nil) {
			found, err = false, nil
		}
		if err != nil {
			return fmt.Errorf("redis GET failed: %w", err)
		}

		next, err := fn(current, found)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := r.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		slog.Debug("redis update conflicted, retrying", slog.String("key", key), slog.Int("attempt", i+1))
	}
	return fmt.Errorf("redis update of %s kept conflicting after %d attempts", key, maxUpdateAttempts)
}

// Ping はRedisの疎通を確認する。
func (r *RedisKVStore) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.client.Ping(pingCtx).Err()
}

// WaitReady はRedisがPingに応答するまで指数バックオフで待機する。
// 待機間隔は1秒から始まり最大30秒。attempts回失敗した場合はエラーを返す。
func (r *RedisKVStore) WaitReady(ctx context.Context, attempts int) error {
	for i := 0; i < attempts; i++ {
		err := r.Ping(ctx)
		if err == nil {
			slog.Info("redis is available", slog.Int("attempt", i+1))
			return nil
		}

		backoff := time.Duration(1<<uint(i)) * time.Second
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
		slog.Warn("redis ping failed",
			slog.Int("attempt", i+1),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("redis is not available after %d attempts", attempts)
}

// Close はRedisクライアントを閉じる。
func (r *RedisKVStore) Close() error {
	return r.client.Close()
}

var _ KVStore = (*RedisKVStore)(nil)
