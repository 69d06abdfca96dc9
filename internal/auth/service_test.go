package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/pressrelay/internal/model"
	"github.com/hitoshi/pressrelay/internal/repository"
)

// mockUserRepo はUserRepositoryのテスト用モック。
type mockUserRepo struct {
	createFunc      func(ctx context.Context, user *model.User) error
	findByEmailFunc func(ctx context.Context, email string) (*model.User, error)
	findByIDFunc    func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func newTestService(repo repository.UserRepository) *Service {
	return NewService(repo, ServiceConfig{
		JWTSecret: "test-secret",
		JWTMaxAge: time.Hour,
	})
}

func TestService_SignUp_CreatesUserAndIssuesToken(t *testing.T) {
	var created *model.User
	repo := &mockUserRepo{
		createFunc: func(ctx context.Context, user *model.User) error {
			created = user
			return nil
		},
	}

	s := newTestService(repo)
	user, token, err := s.SignUp(context.Background(), "User@Example.com", "password123")
	if err != nil {
		t.Fatalf("SignUp がエラーを返した: %v", err)
	}

	if created == nil {
		t.Fatal("ユーザーが作成されていない")
	}
	// メールアドレスは小文字化して保存する
	if user.Email != "user@example.com" {
		t.Errorf("Email = %s, want user@example.com", user.Email)
	}
	if token == "" {
		t.Error("トークンが発行されていない")
	}
	// パスワードは平文で保存されないこと
	if string(created.PasswordHash) == "password123" {
		t.Error("パスワードがハッシュ化されていない")
	}
}

func TestService_SignUp_DuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{
		createFunc: func(ctx context.Context, user *model.User) error {
			return repository.ErrDuplicateEmail
		},
	}

	s := newTestService(repo)
	_, _, err := s.SignUp(context.Background(), "user@example.com", "password123")
	if err == nil {
		t.Fatal("重複メールアドレスではエラーが返るべき")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("APIErrorが返るべき: %T", err)
	}
	if apiErr.Code != model.ErrCodeDuplicateEmail {
		t.Errorf("Code = %s, want %s", apiErr.Code, model.ErrCodeDuplicateEmail)
	}
}

func TestService_SignIn_Success(t *testing.T) {
	repo := &mockUserRepo{}
	s := newTestService(repo)

	// まずSignUpで正しいハッシュを作る
	var stored *model.User
	repo.createFunc = func(ctx context.Context, user *model.User) error {
		stored = user
		return nil
	}
	if _, _, err := s.SignUp(context.Background(), "user@example.com", "password123"); err != nil {
		t.Fatalf("SignUp がエラーを返した: %v", err)
	}

	repo.findByEmailFunc = func(ctx context.Context, email string) (*model.User, error) {
		return stored, nil
	}

	user, token, err := s.SignIn(context.Background(), "user@example.com", "password123")
	if err != nil {
		t.Fatalf("SignIn がエラーを返した: %v", err)
	}
	if user.ID != stored.ID {
		t.Errorf("user.ID = %s, want %s", user.ID, stored.ID)
	}

	// 発行されたトークンが検証できること
	userID, err := s.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken がエラーを返した: %v", err)
	}
	if userID != stored.ID {
		t.Errorf("VerifyToken userID = %s, want %s", userID, stored.ID)
	}
}

func TestService_SignIn_WrongPassword(t *testing.T) {
	repo := &mockUserRepo{}
	s := newTestService(repo)

	var stored *model.User
	repo.createFunc = func(ctx context.Context, user *model.User) error {
		stored = user
		return nil
	}
	if _, _, err := s.SignUp(context.Background(), "user@example.com", "password123"); err != nil {
		t.Fatalf("SignUp がエラーを返した: %v", err)
	}
	repo.findByEmailFunc = func(ctx context.Context, email string) (*model.User, error) {
		return stored, nil
	}

	_, _, err := s.SignIn(context.Background(), "user@example.com", "wrong-password")
	if err == nil {
		t.Fatal("パスワード不一致ではエラーが返るべき")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredential {
		t.Errorf("INVALID_CREDENTIALエラーが返るべき: %v", err)
	}
}

func TestService_SignIn_UnknownUser(t *testing.T) {
	repo := &mockUserRepo{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return nil, nil
		},
	}

	s := newTestService(repo)
	_, _, err := s.SignIn(context.Background(), "nobody@example.com", "password123")
	if err == nil {
		t.Fatal("未登録ユーザーではエラーが返るべき")
	}

	// ユーザー不在とパスワード不一致は同じエラーを返す
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredential {
		t.Errorf("INVALID_CREDENTIALエラーが返るべき: %v", err)
	}
}

func TestService_VerifyToken_InvalidSignature(t *testing.T) {
	s := newTestService(&mockUserRepo{})

	other := NewService(&mockUserRepo{}, ServiceConfig{
		JWTSecret: "different-secret",
		JWTMaxAge: time.Hour,
	})

	token, err := other.IssueToken("user-1")
	if err != nil {
		t.Fatalf("IssueToken がエラーを返した: %v", err)
	}

	if _, err := s.VerifyToken(token); err == nil {
		t.Fatal("署名鍵が異なるトークンは検証に失敗すべき")
	}
}

func TestService_VerifyToken_Expired(t *testing.T) {
	s := NewService(&mockUserRepo{}, ServiceConfig{
		JWTSecret: "test-secret",
		JWTMaxAge: -time.Hour, // 既に期限切れのトークンを発行する
	})

	token, err := s.IssueToken("user-1")
	if err != nil {
		t.Fatalf("IssueToken がエラーを返した: %v", err)
	}

	if _, err := s.VerifyToken(token); err == nil {
		t.Fatal("期限切れトークンは検証に失敗すべき")
	}
}

func TestService_VerifyToken_Garbage(t *testing.T) {
	s := newTestService(&mockUserRepo{})

	if _, err := s.VerifyToken("not.a.jwt"); err == nil {
		t.Fatal("不正な形式のトークンは検証に失敗すべき")
	}
}
