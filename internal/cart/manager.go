package cart

import (
	"context"
	"sync"

	"github.com/hitoshi/glowderm/internal/repository"
)

// Manager はクライアントごとのカートStoreを組み立てる。
// 同一クライアントに対する操作はWithCartの単位で直列化される。
type Manager struct {
	kv    repository.KVStore
	opts  []Option
	locks keyedMutex
}

// NewManager はManagerを生成する。kvは名前空間なしの共有ストア。
func NewManager(kv repository.KVStore, opts ...Option) *Manager {
	return &Manager{
		kv:    kv,
		opts:  opts,
		locks: keyedMutex{entries: make(map[string]*lockEntry)},
	}
}

// WithCart はクライアントのカートを復元してfnに渡す。
// fnの実行中、同じクライアントの他のWithCart呼び出しは待機する。
func (m *Manager) WithCart(ctx context.Context, clientID string, fn func(*Store) error) error {
	unlock := m.locks.lock(clientID)
	defer unlock()

	repo := repository.NewKVCartRepo(repository.NewNamespacedKVStore(m.kv, clientID))
	store, err := Load(ctx, repo, m.opts...)
	if err != nil {
		return err
	}
	return fn(store)
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex はキー単位の排他制御を提供する。
// 参照が無くなったエントリは削除する。
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &lockEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
