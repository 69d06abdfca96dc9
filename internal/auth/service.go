// Package auth はメールアドレスとパスワードによる認証とJWTの発行・検証を提供する。
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/pressrelay/internal/model"
	"github.com/hitoshi/pressrelay/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	JWTSecret string
	JWTMaxAge time.Duration
}

// Service は認証のドメインサービス。
// パスワードはbcryptでハッシュ化して保存し、認証成功時にHMAC署名のJWTを発行する。
type Service struct {
	userRepo repository.UserRepository
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, config ServiceConfig) *Service {
	return &Service{
		userRepo: userRepo,
		config:   config,
	}
}

// SignUp は新規ユーザーを登録し、JWTを発行する。
// メールアドレスが登録済みの場合はAPIErrorを返す。
func (s *Service) SignUp(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if err == repository.ErrDuplicateEmail {
			return nil, "", model.NewDuplicateEmailError()
		}
		return nil, "", err
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// SignIn はメールアドレスとパスワードを検証し、JWTを発行する。
// 認証失敗の理由（ユーザー不在かパスワード不一致か）は呼び出し元に区別させない。
func (s *Service) SignIn(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", model.NewInvalidCredentialError()
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, "", model.NewInvalidCredentialError()
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// IssueToken はユーザーIDをsubjectに持つJWTを発行する。
func (s *Service) IssueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.JWTMaxAge)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("JWTの署名に失敗しました: %w", err)
	}
	return signed, nil
}

// VerifyToken はJWTを検証し、ユーザーIDを返す。
// 署名不正・期限切れ・アルゴリズム不一致はすべてエラーとなる。
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("想定外の署名アルゴリズムです: %v", t.Header["alg"])
			}
			return []byte(s.config.JWTSecret), nil
		},
	)
	if err != nil {
		return "", fmt.Errorf("JWTの検証に失敗しました: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("JWTのクレームが不正です")
	}

	return claims.Subject, nil
}
