// Package cart はカートの状態管理と派生集計を提供する。
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/glowderm/internal/metrics"
	"github.com/hitoshi/glowderm/internal/model"
	"github.com/hitoshi/glowderm/internal/repository"
	"github.com/shopspring/decimal"
)

// カート操作の種別。メトリクスのラベルとして使用する。
const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpUpdate = "update"
	OpClear  = "clear"
	OpOpen   = "open"
)

// Option はStoreの生成オプション。
type Option func(*Store)

// WithMetrics はカート操作を記録するMetricsCollectorを設定する。
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// Store は1つのカートを保持し、変更のたびにリポジトリへ永続化する。
// 集計値は保持せず、参照のたびに明細から再計算する。
type Store struct {
	mu      sync.Mutex
	repo    repository.CartRepository
	cart    model.Cart
	metrics metrics.MetricsCollector
}

// Load はリポジトリからカートを復元してStoreを生成する。
// 保存データが存在しない、または壊れている場合は空のカートから開始する。
func Load(ctx context.Context, repo repository.CartRepository, opts ...Option) (*Store, error) {
	s := &Store{
		repo:    repo,
		metrics: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}

	saved, err := repo.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrMalformedRecord):
		slog.Warn("discarding malformed cart record", slog.String("error", err.Error()))
	case err != nil:
		return nil, fmt.Errorf("failed to restore cart: %w", err)
	case saved != nil:
		s.cart = *saved
	}

	return s, nil
}

// AddToCart は商品をカートに追加する。
// 同じ商品の明細が既にあれば数量を加算し、なければ末尾に明細を追加する。
// quantityが1未満の場合は1として扱う。
func (s *Store) AddToCart(ctx context.Context, product model.Product, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.cart.IndexOf(product.ID); i >= 0 {
		s.cart.Lines[i].Quantity += quantity
	} else {
		s.cart.Lines = append(s.cart.Lines, model.CartLine{Product: product, Quantity: quantity})
	}

	return s.persist(ctx, OpAdd)
}

// RemoveFromCart は指定商品の明細を削除する。存在しない場合は何もしない。
func (s *Store) RemoveFromCart(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.removeLocked(productID) {
		return nil
	}
	return s.persist(ctx, OpRemove)
}

// UpdateQuantity は指定商品の数量を置き換える。
// quantityが0以下なら明細を削除する。商品がカートにない場合は何もしない。
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		if !s.removeLocked(productID) {
			return nil
		}
		return s.persist(ctx, OpRemove)
	}

	i := s.cart.IndexOf(productID)
	if i < 0 {
		return nil
	}
	s.cart.Lines[i].Quantity = quantity
	return s.persist(ctx, OpUpdate)
}

// ClearCart はすべての明細を削除する。
func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Lines = nil
	return s.persist(ctx, OpClear)
}

// SetCartOpen はカート表示フラグを設定する。
func (s *Store) SetCartOpen(ctx context.Context, open bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.IsOpen = open
	return s.persist(ctx, OpOpen)
}

// IsCartOpen はカート表示フラグを返す。
func (s *Store) IsCartOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.IsOpen
}

// Lines は明細のコピーを追加順で返す。
func (s *Store) Lines() []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked().Lines
}

// Contains は指定商品の明細があるかを返す。
func (s *Store) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.IndexOf(productID) >= 0
}

// TotalItems は全明細の数量の合計を返す。
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalItems()
}

// TotalPrice は全明細の単価×数量の合計を返す。
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalPrice()
}

// Snapshot は現在のカートのコピーを返す。
func (s *Store) Snapshot() model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() model.Cart {
	snap := model.Cart{IsOpen: s.cart.IsOpen, Lines: make([]model.CartLine, len(s.cart.Lines))}
	copy(snap.Lines, s.cart.Lines)
	return snap
}

func (s *Store) removeLocked(productID string) bool {
	i := s.cart.IndexOf(productID)
	if i < 0 {
		return false
	}
	s.cart.Lines = append(s.cart.Lines[:i], s.cart.Lines[i+1:]...)
	return true
}

// persist はカートを保存する。保存に失敗してもメモリ上の変更は維持する。
func (s *Store) persist(ctx context.Context, op string) error {
	s.metrics.RecordCartMutation(op)

	snap := s.snapshotLocked()
	if err := s.repo.Save(ctx, &snap); err != nil {
		return fmt.Errorf("failed to persist cart after %s: %w", op, err)
	}
	return nil
}
