package auth

import (
	"context"

	"github.com/hitoshi/glowderm/internal/repository"
)

// Factory はクライアントごとのServiceを組み立てる。
// アカウント一覧は全クライアントで共有し、現在のセッションはクライアントの名前空間に保存する。
type Factory struct {
	kv       repository.KVStore
	accounts repository.AccountRepository
	config   ServiceConfig
	opts     []Option
}

// NewFactory はFactoryを生成する。kvは名前空間なしの共有ストア。
func NewFactory(kv repository.KVStore, config ServiceConfig, opts ...Option) *Factory {
	return &Factory{
		kv:       kv,
		accounts: repository.NewKVAccountRepo(kv),
		config:   config,
		opts:     opts,
	}
}

// ForClient はクライアントの保存済みセッションを復元したServiceを返す。
func (f *Factory) ForClient(ctx context.Context, clientID string) (*Service, error) {
	current := repository.NewKVCurrentUserRepo(repository.NewNamespacedKVStore(f.kv, clientID))
	svc := NewService(f.accounts, current, f.config, f.opts...)
	if err := svc.Restore(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}
