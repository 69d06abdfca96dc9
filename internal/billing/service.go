package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/pressrelay/internal/model"
	"github.com/hitoshi/pressrelay/internal/repository"
)

// CheckoutCreator はチェックアウトセッション作成のインターフェース。
type CheckoutCreator interface {
	CreateSession(ctx context.Context, priceID, successURL, cancelURL string) (sessionID, url string, err error)
}

// PurchaseNotifier は購入確認メール送信のインターフェース。
type PurchaseNotifier interface {
	SendPurchaseConfirmation(ctx context.Context, to, planName string) error
}

// ServiceConfig はServiceの設定。
type ServiceConfig struct {
	SuccessURL string
	CancelURL  string
}

// Service はチェックアウトセッションの作成から決済完了までの注文ライフサイクルを管理する。
type Service struct {
	orderRepo repository.OrderRepository
	checkout  CheckoutCreator
	notifier  PurchaseNotifier
	catalog   *Catalog
	logger    *slog.Logger
	config    ServiceConfig
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	orderRepo repository.OrderRepository,
	checkout CheckoutCreator,
	notifier PurchaseNotifier,
	catalog *Catalog,
	logger *slog.Logger,
	config ServiceConfig,
) *Service {
	return &Service{
		orderRepo: orderRepo,
		checkout:  checkout,
		notifier:  notifier,
		catalog:   catalog,
		logger:    logger,
		config:    config,
	}
}

// CheckoutResult はチェックアウトセッション作成の結果。
type CheckoutResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CreateCheckout はプラン名からホスト型チェックアウトセッションを作成し、
// pending状態の注文を記録してリダイレクト先URLを返す。
// userIDは未認証購入の場合は空文字列で、注文はuser_id未設定のまま作成される。
// 注文の記録失敗はログに残すがリクエストは失敗させない（ユーザーの決済を妨げないため）。
func (s *Service) CreateCheckout(ctx context.Context, planName, userID string) (*CheckoutResult, error) {
	// 1. プランの解決（未知プラン・価格未設定はここで弾く）
	plan, err := s.catalog.Resolve(planName)
	if err != nil {
		return nil, err
	}

	// 2. チェックアウトセッションの作成
	sessionID, url, err := s.checkout.CreateSession(ctx, plan.PriceID, s.config.SuccessURL, s.config.CancelURL)
	if err != nil {
		return nil, model.NewCheckoutFailedError(err.Error())
	}

	// 3. pending注文の記録（ベストエフォート）
	now := time.Now()
	order := &model.Order{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		PlanName:  plan.Name,
		Amount:    plan.Amount,
		Status:    model.OrderStatusPending,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error("注文の記録に失敗しました",
			slog.String("session_id", sessionID),
			slog.String("plan_name", plan.Name),
			slog.String("error", err.Error()),
		)
	} else {
		s.logger.Info("チェックアウトセッションを作成しました",
			slog.String("session_id", sessionID),
			slog.String("plan_name", plan.Name),
			slog.Bool("authenticated", userID != ""),
		)
	}

	return &CheckoutResult{SessionID: sessionID, URL: url}, nil
}

// HandleCheckoutCompleted は検証済みのチェックアウト完了イベントを処理する。
// 注文をcompletedに更新して顧客メールを保存し、購入確認メールを送信する。
// 注文更新の失敗・未知のセッションID・メール送信失敗はいずれもログに残すだけで、
// エラーとしては返さない（決済プラットフォームにイベントを再送させないため）。
func (s *Service) HandleCheckoutCompleted(ctx context.Context, sessionID, customerEmail string) {
	rows, err := s.orderRepo.MarkCompleted(ctx, sessionID, customerEmail)
	if err != nil {
		s.logger.Error("注文の決済完了更新に失敗しました",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return
	}
	if rows == 0 {
		// 未知のセッションID、または処理済みイベントの再送
		s.logger.Warn("決済完了イベントに対応する未処理の注文がありません",
			slog.String("session_id", sessionID),
		)
		return
	}

	s.logger.Info("注文を決済完了に更新しました",
		slog.String("session_id", sessionID),
	)

	if customerEmail == "" {
		return
	}

	// 確認メールはベストエフォート
	order, err := s.orderRepo.FindBySessionID(ctx, sessionID)
	if err != nil || order == nil {
		s.logger.Error("確認メール用の注文取得に失敗しました",
			slog.String("session_id", sessionID),
		)
		return
	}
	if err := s.notifier.SendPurchaseConfirmation(ctx, customerEmail, order.PlanName); err != nil {
		s.logger.Error("購入確認メールの送信に失敗しました",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
}

// ClaimOrder は未認証で購入された注文にユーザーIDを後付けする。
// クライアント側に保持されたセッションIDを、サインイン後に照合して呼び出される。
func (s *Service) ClaimOrder(ctx context.Context, sessionID, userID string) error {
	rows, err := s.orderRepo.AttachUser(ctx, sessionID, userID)
	if err != nil {
		return fmt.Errorf("注文へのユーザー紐付けに失敗しました: %w", err)
	}
	if rows == 0 {
		order, err := s.orderRepo.FindBySessionID(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("注文の検索に失敗しました: %w", err)
		}
		if order == nil {
			return model.NewOrderNotFoundError(sessionID)
		}
		// 既にユーザーが紐付いている場合は何もしない（冪等）
		s.logger.Info("注文は既にユーザーに紐付いています",
			slog.String("session_id", sessionID),
		)
		return nil
	}

	s.logger.Info("注文にユーザーを紐付けました",
		slog.String("session_id", sessionID),
		slog.String("user_id", userID),
	)
	return nil
}
