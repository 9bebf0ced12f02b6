// Package repository はデータ永続化のインターフェースを定義する。
//
// 永続化媒体は文字列キー・文字列値の単純なKVストア（KVStore）として扱い、
// アカウント一覧・現在のセッション・カートはその上にJSONで保存する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/glowderm/internal/model"
)

// 永続化キー。ブラウザ版ストアフロントのlocalStorageキーと同じ名前を使う。
const (
	KeyAccounts    = "glowderm_users"
	KeyCurrentUser = "glowderm_user"
	KeyCart        = "glowderm_cart"
)

// ErrMalformedRecord は保存済みの値がJSONとして解釈できない場合に返される。
var ErrMalformedRecord = errors.New("malformed stored record")

// ErrDuplicateEmail は同じメールアドレスのアカウントが既に登録されている場合に返される。
var ErrDuplicateEmail = errors.New("account email already registered")

// UpdateFunc は現在の値から次の値を作る。エラーを返すと書き込みは行われない。
type UpdateFunc func(current string, found bool) (string, error)

// KVStore は永続化媒体のインターフェース。
// Get/Set/Removeは後勝ち。読み込みから書き戻しまでを守る必要がある場合はUpdateを使う。
type KVStore interface {
	// Get は指定キーの値を取得する。存在しない場合はfound=falseを返す。
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set は指定キーに値を保存する。
	Set(ctx context.Context, key, value string) error

	// Remove は指定キーを削除する。存在しない場合もエラーにしない。
	Remove(ctx context.Context, key string) error

	// Ping は媒体への疎通を確認する。
	Ping(ctx context.Context) error

	// Update は1キーの読み込み・fn・書き戻しを、同じキーへの他のUpdateと直列に行う。
	// 複数プロセスから同じ媒体を使う場合も直列化は媒体側で保証される。
	// fnはストアを呼び返してはならない。
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// AccountRepository は登録済みアカウント一覧の永続化インターフェース。
type AccountRepository interface {
	// FindByEmail はメールアドレスの完全一致でアカウントを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.UserAccount, error)

	// Create はアカウントを一覧の末尾に追加する。
	// 同じメールアドレスが既にあればErrDuplicateEmailを返し、一覧は変更しない。
	Create(ctx context.Context, account *model.UserAccount) error
}

// CurrentUserRepository は「現在のセッション」レコードの永続化インターフェース。
type CurrentUserRepository interface {
	// Load は保存済みのセッションを取得する。存在しない場合はnilを返す。
	// 壊れたレコードの場合はErrMalformedRecordを返す。
	Load(ctx context.Context) (*model.PublicUser, error)

	// Save は現在のセッションを保存する。
	Save(ctx context.Context, user model.PublicUser) error

	// Clear は現在のセッションを削除する。アカウント一覧には触れない。
	Clear(ctx context.Context) error
}

// CartRepository はカートの永続化インターフェース。
type CartRepository interface {
	// Load は保存済みのカートを取得する。存在しない場合はnilを返す。
	// 壊れたレコードの場合はErrMalformedRecordを返す。
	Load(ctx context.Context) (*model.Cart, error)

	// Save はカート全体を保存する。
	Save(ctx context.Context, cart *model.Cart) error
}
