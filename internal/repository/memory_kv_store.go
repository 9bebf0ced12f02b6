package repository

import (
	"context"
	"sync"
)

// MemoryKVStore はメモリ上に値を保持するKVStore実装。
// プロセス終了で内容は失われる。開発環境とテストで使用する。
type MemoryKVStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryKVStore はMemoryKVStoreを生成する。
func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{
		entries: make(map[string]string),
	}
}

// Get は指定キーの値を取得する。
func (s *MemoryKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok, nil
}

// Set は指定キーに値を保存する。
func (s *MemoryKVStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

// Remove は指定キーを削除する。
func (s *MemoryKVStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Update はロックを保持したままfnを呼び、結果を保存する。
func (s *MemoryKVStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, found := s.entries[key]
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	s.entries[key] = next
	return nil
}

// Ping は常に成功する。
func (s *MemoryKVStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len は保持しているエントリ数を返す。テスト用。
func (s *MemoryKVStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// compile-time interface check
var _ KVStore = (*MemoryKVStore)(nil)
