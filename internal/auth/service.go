// Package auth はアカウント登録・ログイン・セッション管理を提供する。
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/glowderm/internal/metrics"
	"github.com/hitoshi/glowderm/internal/model"
	"github.com/hitoshi/glowderm/internal/repository"
	"github.com/hitoshi/glowderm/internal/tracing"
	"github.com/hitoshi/glowderm/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"
)

// State はセッションの状態。
type State int

const (
	// Anonymous は未ログイン状態。
	Anonymous State = iota
	// Authenticated はログイン済み状態。
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// 認証結果。メトリクスのラベルとして使用する。
const (
	resultSuccess            = "success"
	resultDuplicate          = "duplicate"
	resultInvalidForm        = "invalid_form"
	resultInvalidCredentials = "invalid_credentials"
	resultError              = "error"
)

// DefaultDelay はサインアップ・ログインの既定の待機時間。
const DefaultDelay = 500 * time.Millisecond

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	Delay      time.Duration // サインアップ・ログイン前の待機時間
	BcryptCost int           // 0の場合はbcrypt.DefaultCost
}

// Service は1クライアント分のセッション状態と、共有のアカウント一覧を扱う。
type Service struct {
	accounts  repository.AccountRepository
	current   repository.CurrentUserRepository
	config    ServiceConfig
	metrics   metrics.MetricsCollector
	validator *validation.Validator

	mu   sync.Mutex
	user *model.PublicUser
}

// Option はServiceの生成オプション。
type Option func(*Service)

// WithMetrics は認証結果を記録するMetricsCollectorを設定する。
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService はAnonymous状態のServiceを生成する。
func NewService(
	accounts repository.AccountRepository,
	current repository.CurrentUserRepository,
	config ServiceConfig,
	opts ...Option,
) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	s := &Service{
		accounts:  accounts,
		current:   current,
		config:    config,
		metrics:   metrics.Nop{},
		validator: validation.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore は保存済みのセッションを復元する。資格情報の再検証は行わない。
// 保存データが無い、または壊れている場合はAnonymousのままとする。
func (s *Service) Restore(ctx context.Context) error {
	user, err := s.current.Load(ctx)
	if errors.Is(err, repository.ErrMalformedRecord) {
		slog.Warn("ignoring malformed session record", slog.String("error", err.Error()))
		user, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return nil
}

// Signup はアカウントを作成し、そのままログイン状態にする。
// 同じメールアドレスのアカウントが存在する場合はDUPLICATE_ACCOUNTを返す。
func (s *Service) Signup(ctx context.Context, name, email, password string) (*model.PublicUser, error) {
	ctx, span := tracing.Tracer().Start(ctx, "auth.Signup")
	defer span.End()

	form := &validation.SignupForm{Name: name, Email: email, Password: password}
	if err := s.validator.Validate(form); err != nil {
		s.metrics.RecordSignup(resultInvalidForm)
		s.metrics.RecordValidationFailure(form.FormName())
		return nil, err
	}

	if err := wait(ctx, s.config.Delay); err != nil {
		return nil, err
	}

	account, err := s.createAccount(ctx, name, email, password)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeDuplicateAccount {
			s.metrics.RecordSignup(resultDuplicate)
		} else {
			s.metrics.RecordSignup(resultError)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	user := account.Public()
	if err := s.establish(ctx, user); err != nil {
		s.metrics.RecordSignup(resultError)
		return nil, err
	}

	s.metrics.RecordSignup(resultSuccess)
	span.SetAttributes(attribute.String("user.id", user.ID))
	slog.Info("account created", slog.String("user_id", user.ID))
	return &user, nil
}

// Login はメールアドレスとパスワードが完全一致するアカウントでログインする。
// 一致しない場合はINVALID_CREDENTIALSを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.PublicUser, error) {
	ctx, span := tracing.Tracer().Start(ctx, "auth.Login")
	defer span.End()

	if err := wait(ctx, s.config.Delay); err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		s.metrics.RecordLogin(resultError)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil || !matchesCredential(account.PasswordHash, password) {
		s.metrics.RecordLogin(resultInvalidCredentials)
		return nil, model.NewInvalidCredentialsError()
	}

	user := account.Public()
	if err := s.establish(ctx, user); err != nil {
		s.metrics.RecordLogin(resultError)
		return nil, err
	}

	s.metrics.RecordLogin(resultSuccess)
	span.SetAttributes(attribute.String("user.id", user.ID))
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return &user, nil
}

// Logout は現在のセッションを破棄する。アカウント一覧には触れない。
func (s *Service) Logout(ctx context.Context) error {
	if err := s.current.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.mu.Lock()
	prev := s.user
	s.user = nil
	s.mu.Unlock()

	if prev != nil {
		slog.Info("user logged out", slog.String("user_id", prev.ID))
	}
	return nil
}

// Current は現在のユーザーを返す。未ログインの場合はnil。
func (s *Service) Current() *model.PublicUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// State は現在のセッション状態を返す。
func (s *Service) State() State {
	if s.IsAuthenticated() {
		return Authenticated
	}
	return Anonymous
}

// IsAuthenticated はログイン済みかを返す。
func (s *Service) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// createAccount は重複を確認したうえでアカウントを追加する。
// 事前の検索はハッシュ計算を省くためのもので、最終的な重複判定は一覧の更新内で行われる。
func (s *Service) createAccount(ctx context.Context, name, email, password string) (*model.UserAccount, error) {
	existing, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateAccountError()
	}

	hash, err := hashCredential(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &model.UserAccount{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewDuplicateAccountError()
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// establish はユーザーを現在のセッションとして保存する。
func (s *Service) establish(ctx context.Context, user model.PublicUser) error {
	if err := s.current.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return nil
}

// hashCredential はパスワードのハッシュを生成する。
// bcryptの72バイト制限を避けるため、SHA-256ダイジェストをbcryptに渡す。
func hashCredential(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(digest(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func matchesCredential(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), digest(password)) == nil
}

func digest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// wait はdだけ待機する。ctxがキャンセルされた場合は待機を中断してエラーを返す。
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
