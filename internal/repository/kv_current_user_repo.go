package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/glowderm/internal/model"
)

// KVCurrentUserRepo は現在のセッションをKVStoreに保存するリポジトリ。
// クライアント名前空間付きのKVStoreと組み合わせて使う。
type KVCurrentUserRepo struct {
	store KVStore
}

// NewKVCurrentUserRepo はKVCurrentUserRepoを生成する。
func NewKVCurrentUserRepo(store KVStore) *KVCurrentUserRepo {
	return &KVCurrentUserRepo{store: store}
}

// Load は保存済みのセッションを取得する。
func (r *KVCurrentUserRepo) Load(ctx context.Context) (*model.PublicUser, error) {
	raw, found, err := r.store.Get(ctx, KeyCurrentUser)
	if err != nil {
		return nil, fmt.Errorf("failed to load current user: %w", err)
	}
	if !found {
		return nil, nil
	}

	var user model.PublicUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("current user: %w", ErrMalformedRecord)
	}
	if !user.Valid() {
		return nil, fmt.Errorf("current user: %w", ErrMalformedRecord)
	}
	return &user, nil
}

// Save は現在のセッションを保存する。
func (r *KVCurrentUserRepo) Save(ctx context.Context, user model.PublicUser) error {
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode current user: %w", err)
	}
	if err := r.store.Set(ctx, KeyCurrentUser, string(b)); err != nil {
		return fmt.Errorf("failed to save current user: %w", err)
	}
	return nil
}

// Clear は現在のセッションを削除する。
func (r *KVCurrentUserRepo) Clear(ctx context.Context) error {
	if err := r.store.Remove(ctx, KeyCurrentUser); err != nil {
		return fmt.Errorf("failed to clear current user: %w", err)
	}
	return nil
}

var _ CurrentUserRepository = (*KVCurrentUserRepo)(nil)
