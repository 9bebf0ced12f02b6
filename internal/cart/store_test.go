package cart

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/hitoshi/glowderm/internal/model"
	"github.com/hitoshi/glowderm/internal/repository"
	"github.com/shopspring/decimal"
)

// --- モック定義 ---

type mockCartRepo struct {
	loadFn func(ctx context.Context) (*model.Cart, error)
	saveFn func(ctx context.Context, cart *model.Cart) error
	saves  int
}

func (m *mockCartRepo) Load(ctx context.Context) (*model.Cart, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}
	return nil, nil
}

func (m *mockCartRepo) Save(ctx context.Context, cart *model.Cart) error {
	m.saves++
	if m.saveFn != nil {
		return m.saveFn(ctx, cart)
	}
	return nil
}

type recordingMetrics struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingMetrics) RecordCartMutation(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}
func (r *recordingMetrics) RecordSignup(string)               {}
func (r *recordingMetrics) RecordLogin(string)                {}
func (r *recordingMetrics) RecordOrderPlaced(decimal.Decimal) {}
func (r *recordingMetrics) RecordMessageSubmitted(string)     {}
func (r *recordingMetrics) RecordValidationFailure(string)    {}
func (r *recordingMetrics) RecordHTTPStatus(int)              {}

// --- ヘルパー ---

func product(id, price string) model.Product {
	return model.Product{ID: id, Name: "Product " + id, Price: decimal.RequireFromString(price)}
}

func newTestStore(t *testing.T) (*Store, *repository.KVCartRepo) {
	t.Helper()
	repo := repository.NewKVCartRepo(repository.NewMemoryKVStore())
	s, err := Load(context.Background(), repo)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return s, repo
}

// assertAggregates は集計値が明細から計算した値と一致することを検証する。
func assertAggregates(t *testing.T, s *Store) {
	t.Helper()
	items := 0
	price := decimal.Zero
	for _, l := range s.Lines() {
		items += l.Quantity
		price = price.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	if got := s.TotalItems(); got != items {
		t.Errorf("TotalItems = %d, want %d", got, items)
	}
	if got := s.TotalPrice(); !got.Equal(price) {
		t.Errorf("TotalPrice = %s, want %s", got, price)
	}
}

// --- テスト ---

func TestLoad_EmptyRepositoryStartsEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	if len(s.Lines()) != 0 {
		t.Errorf("lines = %d, want 0", len(s.Lines()))
	}
	if s.TotalItems() != 0 {
		t.Errorf("TotalItems = %d, want 0", s.TotalItems())
	}
	if !s.TotalPrice().IsZero() {
		t.Errorf("TotalPrice = %s, want 0", s.TotalPrice())
	}
	if s.IsCartOpen() {
		t.Error("expected cart to start closed")
	}
}

// 壊れた保存データは空のカートとして扱う
func TestLoad_MalformedRecordStartsEmpty(t *testing.T) {
	repo := &mockCartRepo{
		loadFn: func(ctx context.Context) (*model.Cart, error) {
			return nil, repository.ErrMalformedRecord
		},
	}

	s, err := Load(context.Background(), repo)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(s.Lines()) != 0 {
		t.Errorf("lines = %d, want 0", len(s.Lines()))
	}
}

func TestLoad_RepositoryErrorIsReturned(t *testing.T) {
	repo := &mockCartRepo{
		loadFn: func(ctx context.Context) (*model.Cart, error) {
			return nil, errors.New("connection refused")
		},
	}

	if _, err := Load(context.Background(), repo); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestLoad_RestoresSavedCart(t *testing.T) {
	ctx := context.Background()
	first, repo := newTestStore(t)
	_ = first.AddToCart(ctx, product("serum", "24.00"), 2)
	_ = first.AddToCart(ctx, product("toner", "12.50"), 1)
	_ = first.SetCartOpen(ctx, true)

	restored, err := Load(ctx, repo)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	lines := restored.Lines()
	if len(lines) != 2 || lines[0].Product.ID != "serum" || lines[1].Product.ID != "toner" {
		t.Fatalf("lines = %+v, want serum then toner", lines)
	}
	if restored.TotalItems() != 3 {
		t.Errorf("TotalItems = %d, want 3", restored.TotalItems())
	}
	if !restored.IsCartOpen() {
		t.Error("expected open flag to be restored")
	}
}

// 同じ商品を2回追加すると1明細に数量が合算される
func TestAddToCart_SameProductMergesQuantities(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	p := product("cleanser", "18.00")

	if err := s.AddToCart(ctx, p, 2); err != nil {
		t.Fatalf("AddToCart returned error: %v", err)
	}
	if err := s.AddToCart(ctx, p, 3); err != nil {
		t.Fatalf("AddToCart returned error: %v", err)
	}

	lines := s.Lines()
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}
	if lines[0].Quantity != 5 {
		t.Errorf("quantity = %d, want 5", lines[0].Quantity)
	}
	assertAggregates(t, s)
}

func TestAddToCart_PreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_ = s.AddToCart(ctx, product("a", "1.00"), 1)
	_ = s.AddToCart(ctx, product("b", "2.00"), 1)
	_ = s.AddToCart(ctx, product("a", "1.00"), 1)

	lines := s.Lines()
	if len(lines) != 2 || lines[0].Product.ID != "a" || lines[1].Product.ID != "b" {
		t.Errorf("lines = %+v, want a then b", lines)
	}
}

func TestAddToCart_NonPositiveQuantityDefaultsToOne(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_ = s.AddToCart(ctx, product("mask", "9.99"), 0)
	_ = s.AddToCart(ctx, product("mask", "9.99"), -4)

	if got := s.TotalItems(); got != 2 {
		t.Errorf("TotalItems = %d, want 2", got)
	}
}

// 数量に上限はない
func TestAddToCart_NoUpperBound(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_ = s.AddToCart(ctx, product("spf", "30.00"), 10000)

	if got := s.TotalItems(); got != 10000 {
		t.Errorf("TotalItems = %d, want 10000", got)
	}
}

func TestRemoveFromCart_DeletesLine(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_ = s.AddToCart(ctx, product("a", "1.00"), 1)
	_ = s.AddToCart(ctx, product("b", "2.00"), 1)

	if err := s.RemoveFromCart(ctx, "a"); err != nil {
		t.Fatalf("RemoveFromCart returned error: %v", err)
	}
	if s.Contains("a") {
		t.Error("expected a to be removed")
	}
	if !s.Contains("b") {
		t.Error("expected b to remain")
	}
}

// 存在しない商品の削除はエラーにならず、状態も変わらない
func TestRemoveFromCart_AbsentIsNoOp(t *testing.T) {
	ctx := context.Background()
	repo := &mockCartRepo{}
	s, err := Load(ctx, repo)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	_ = s.AddToCart(ctx, product("a", "1.00"), 2)
	savesBefore := repo.saves

	if err := s.RemoveFromCart(ctx, "missing"); err != nil {
		t.Fatalf("RemoveFromCart returned error: %v", err)
	}
	if repo.saves != savesBefore {
		t.Errorf("saves = %d, want %d (no persist on no-op)", repo.saves, savesBefore)
	}
	if s.TotalItems() != 2 {
		t.Errorf("TotalItems = %d, want 2", s.TotalItems())
	}
}

func TestUpdateQuantity_SetsExactValue(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_ = s.AddToCart(ctx, product("a", "4.00"), 3)

	if err := s.UpdateQuantity(ctx, "a", 7); err != nil {
		t.Fatalf("UpdateQuantity returned error: %v", err)
	}
	if got := s.Lines()[0].Quantity; got != 7 {
		t.Errorf("quantity = %d, want 7", got)
	}
	assertAggregates(t, s)
}

func TestUpdateQuantity_ZeroRemovesLine(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_ = s.AddToCart(ctx, product("a", "4.00"), 3)

	if err := s.UpdateQuantity(ctx, "a", 0); err != nil {
		t.Fatalf("UpdateQuantity returned error: %v", err)
	}
	if s.Contains("a") {
		t.Error("expected line to be removed")
	}
	if s.TotalItems() != 0 {
		t.Errorf("TotalItems = %d, want 0", s.TotalItems())
	}
}

func TestUpdateQuantity_AbsentIsNoOp(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_ = s.AddToCart(ctx, product("a", "4.00"), 3)

	if err := s.UpdateQuantity(ctx, "missing", 5); err != nil {
		t.Fatalf("UpdateQuantity returned error: %v", err)
	}
	if s.Contains("missing") {
		t.Error("update must not add a line")
	}
	if s.TotalItems() != 3 {
		t.Errorf("TotalItems = %d, want 3", s.TotalItems())
	}
}

func TestClearCart_EmptiesLines(t *testing.T) {
	ctx := context.Background()
	s, repo := newTestStore(t)
	_ = s.AddToCart(ctx, product("a", "4.00"), 3)

	if err := s.ClearCart(ctx); err != nil {
		t.Fatalf("ClearCart returned error: %v", err)
	}
	if s.TotalItems() != 0 || len(s.Lines()) != 0 {
		t.Errorf("cart not empty: %+v", s.Lines())
	}

	saved, _ := repo.Load(ctx)
	if saved == nil || len(saved.Lines) != 0 {
		t.Errorf("persisted cart = %+v, want empty", saved)
	}
}

// 保存に失敗した場合はエラーを返すが、メモリ上の変更は維持する
func TestAddToCart_PersistFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	repo := &mockCartRepo{
		saveFn: func(ctx context.Context, cart *model.Cart) error {
			return errors.New("disk full")
		},
	}
	s, err := Load(ctx, repo)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if err := s.AddToCart(ctx, product("a", "4.00"), 1); err == nil {
		t.Fatal("expected persist error, got nil")
	}
	if !s.Contains("a") {
		t.Error("expected in-memory mutation to be kept")
	}
}

// Linesは内部状態のコピーを返す
func TestLines_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_ = s.AddToCart(ctx, product("a", "4.00"), 1)

	lines := s.Lines()
	lines[0].Quantity = 99

	if got := s.TotalItems(); got != 1 {
		t.Errorf("TotalItems = %d, want 1", got)
	}
}

func TestSetCartOpen_TogglesFlag(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_ = s.SetCartOpen(ctx, true)
	if !s.IsCartOpen() {
		t.Error("expected open")
	}
	_ = s.SetCartOpen(ctx, false)
	if s.IsCartOpen() {
		t.Error("expected closed")
	}
}

func TestMutations_RecordMetrics(t *testing.T) {
	ctx := context.Background()
	rec := &recordingMetrics{}
	s, err := Load(ctx, &mockCartRepo{}, WithMetrics(rec))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	_ = s.AddToCart(ctx, product("a", "1.00"), 1)
	_ = s.UpdateQuantity(ctx, "a", 3)
	_ = s.UpdateQuantity(ctx, "a", 0)
	_ = s.RemoveFromCart(ctx, "a")
	_ = s.ClearCart(ctx)

	want := []string{OpAdd, OpUpdate, OpRemove, OpClear}
	if len(rec.ops) != len(want) {
		t.Fatalf("ops = %v, want %v", rec.ops, want)
	}
	for i := range want {
		if rec.ops[i] != want[i] {
			t.Errorf("ops[%d] = %q, want %q", i, rec.ops[i], want[i])
		}
	}
}

// ランダムな操作列でも集計値が常に明細と一致する
func TestAggregates_NeverDriftFromLines(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	rng := rand.New(rand.NewSource(42))

	catalog := []model.Product{
		product("a", "4.25"),
		product("b", "12.00"),
		product("c", "0.99"),
		product("d", "49.95"),
	}

	for i := 0; i < 500; i++ {
		p := catalog[rng.Intn(len(catalog))]
		switch rng.Intn(3) {
		case 0:
			_ = s.AddToCart(ctx, p, rng.Intn(5)+1)
		case 1:
			_ = s.RemoveFromCart(ctx, p.ID)
		case 2:
			_ = s.UpdateQuantity(ctx, p.ID, rng.Intn(6)-1)
		}
		assertAggregates(t, s)

		seen := make(map[string]bool)
		for _, l := range s.Lines() {
			if seen[l.Product.ID] {
				t.Fatalf("duplicate line for %s after step %d", l.Product.ID, i)
			}
			if l.Quantity < 1 {
				t.Fatalf("non-positive quantity %d for %s", l.Quantity, l.Product.ID)
			}
			seen[l.Product.ID] = true
		}
	}
}
