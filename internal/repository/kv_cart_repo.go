package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/glowderm/internal/model"
)

// KVCartRepo はカートをKVStoreにJSONで保存するリポジトリ。
type KVCartRepo struct {
	store KVStore
}

// NewKVCartRepo はKVCartRepoを生成する。
func NewKVCartRepo(store KVStore) *KVCartRepo {
	return &KVCartRepo{store: store}
}

// Load は保存済みのカートを取得する。
func (r *KVCartRepo) Load(ctx context.Context) (*model.Cart, error) {
	raw, found, err := r.store.Get(ctx, KeyCart)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if !found {
		return nil, nil
	}

	var cart model.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return nil, fmt.Errorf("cart: %w", ErrMalformedRecord)
	}
	return &cart, nil
}

// Save はカート全体を保存する。
func (r *KVCartRepo) Save(ctx context.Context, cart *model.Cart) error {
	b, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := r.store.Set(ctx, KeyCart, string(b)); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

var _ CartRepository = (*KVCartRepo)(nil)
