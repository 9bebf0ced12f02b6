package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/glowderm/internal/model"
)

// KVAccountRepo はアカウント一覧をKVStoreの1キーにJSON配列として保存するリポジトリ。
type KVAccountRepo struct {
	store KVStore
}

// NewKVAccountRepo はKVAccountRepoを生成する。
func NewKVAccountRepo(store KVStore) *KVAccountRepo {
	return &KVAccountRepo{store: store}
}

// FindByEmail はメールアドレスの完全一致（大文字小文字を区別）でアカウントを検索する。
func (r *KVAccountRepo) FindByEmail(ctx context.Context, email string) (*model.UserAccount, error) {
	accounts, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].Email == email {
			return &accounts[i], nil
		}
	}
	return nil, nil
}

// Create は重複を確認したうえでアカウントを一覧の末尾に追加して保存する。
// 確認と保存はKVStore.Updateの中で行うため、複数のレプリカから同時に呼ばれても
// 互いの追加を上書きしない。
func (r *KVAccountRepo) Create(ctx context.Context, account *model.UserAccount) error {
	err := r.store.Update(ctx, KeyAccounts, func(raw string, found bool) (string, error) {
		accounts, err := decodeAccounts(raw, found)
		if err != nil {
			return "", err
		}
		for i := range accounts {
			if accounts[i].Email == account.Email {
				return "", ErrDuplicateEmail
			}
		}
		accounts = append(accounts, *account)

		b, err := json.Marshal(accounts)
		if err != nil {
			return "", fmt.Errorf("failed to encode accounts: %w", err)
		}
		return string(b), nil
	})
	if err != nil {
		return fmt.Errorf("failed to save accounts: %w", err)
	}
	return nil
}

// list は保存済みアカウント一覧を返す。未保存の場合は空の一覧。
func (r *KVAccountRepo) list(ctx context.Context) ([]model.UserAccount, error) {
	raw, found, err := r.store.Get(ctx, KeyAccounts)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	return decodeAccounts(raw, found)
}

func decodeAccounts(raw string, found bool) ([]model.UserAccount, error) {
	if !found || raw == "" {
		return []model.UserAccount{}, nil
	}

	var accounts []model.UserAccount
	if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
		return nil, fmt.Errorf("accounts: %w", ErrMalformedRecord)
	}
	return accounts, nil
}

var _ AccountRepository = (*KVAccountRepo)(nil)
