package repository

import "context"

// NamespacedKVStore はキーに名前空間プレフィックスを付与するKVStoreラッパー。
// ブラウザごとのlocalStorageに相当する領域をクライアントIDで分離するために使う。
type NamespacedKVStore struct {
	inner     KVStore
	namespace string
}

// NewNamespacedKVStore はNamespacedKVStoreを生成する。
// キーは "namespace:key" の形式で内側のストアに渡される。
func NewNamespacedKVStore(inner KVStore, namespace string) *NamespacedKVStore {
	return &NamespacedKVStore{
		inner:     inner,
		namespace: namespace,
	}
}

func (s *NamespacedKVStore) key(k string) string {
	return s.namespace + ":" + k
}

// Get は名前空間付きキーの値を取得する。
func (s *NamespacedKVStore) Get(ctx context.Context, key string) (string, bool, error) {
	return s.inner.Get(ctx, s.key(key))
}

// Set は名前空間付きキーに値を保存する。
func (s *NamespacedKVStore) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.key(key), value)
}

// Remove は名前空間付きキーを削除する。
func (s *NamespacedKVStore) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, s.key(key))
}

// Update は名前空間付きキーで内側のストアのUpdateに委譲する。
func (s *NamespacedKVStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return s.inner.Update(ctx, s.key(key), fn)
}

// Ping は内側のストアに委譲する。
func (s *NamespacedKVStore) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

var _ KVStore = (*NamespacedKVStore)(nil)
