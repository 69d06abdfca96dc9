package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/pressrelay/internal/metrics"
	"github.com/hitoshi/pressrelay/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 決済
	CheckoutService CheckoutServiceInterface
	WebhookService  WebhookServiceInterface
	WebhookSecret   string

	// 記事
	ArticleRepo  ArticleRepoInterface
	ImageStore   ImageStorer
	Orchestrator FanOutRunner
	MinWords     int

	// 認証
	AuthService AuthServiceInterface
	UserFinder  UserFinder

	// 通知
	NotifyService NotifyServiceInterface

	// メトリクス
	Collector *metrics.Collector
	Gatherer  prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → CORS → (Auth | OptionalAuth) → RateLimit
//
// Webhookエンドポイントは署名で認証するため、JWTミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	checkoutHandler := NewCheckoutHandler(deps.CheckoutService, deps.Collector)
	webhookHandler := NewWebhookHandler(deps.WebhookService, deps.Collector, deps.Logger, deps.WebhookSecret)
	articleHandler := NewArticleHandler(deps.ArticleRepo, deps.ImageStore, deps.Orchestrator,
		deps.NotifyService, deps.UserFinder, deps.MinWords)
	authHandler := NewAuthHandler(deps.AuthService, deps.NotifyService)
	notifyHandler := NewNotifyHandler(deps.NotifyService)

	// --- JWT認証の外に置くルート ---

	// 決済Webhook（署名検証で認証する）
	r.Post("/api/webhooks/payment", webhookHandler.HandlePaymentWebhook)

	// ユーザー登録・ログイン
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Post("/signup", authHandler.SignUp)
		r.Post("/login", authHandler.Login)
	})

	// ヘルスチェック
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Prometheusメトリクス
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	// --- 認証が任意のルート ---
	// チェックアウトは未認証でも許可する（注文はuser_idなしで作成される）
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewOptionalAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/api/checkout", checkoutHandler.CreateCheckout)
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 注文管理
		r.Post("/api/orders/claim", checkoutHandler.ClaimOrder)

		// 記事管理
		r.Route("/api/articles", func(r chi.Router) {
			r.Get("/", articleHandler.ListArticles)

			// 投稿とファンアウトは投稿専用レート制限を追加
			r.With(deps.RateLimiter.SubmitMiddleware()).Post("/", articleHandler.CreateArticle)
			r.With(deps.RateLimiter.SubmitMiddleware()).Post("/process", articleHandler.ProcessArticle)
		})

		// 通知
		r.Route("/api/notifications", func(r chi.Router) {
			r.Post("/confirmation", notifyHandler.SendConfirmation)
			r.Post("/owner/signup", notifyHandler.SendOwnerSignup)
			r.Post("/owner/submission", notifyHandler.SendOwnerSubmission)
		})
	})

	return r
}
