// Package app はアプリケーションの初期化・依存関係のワイヤリング・起動を担う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/pressrelay/internal/adapt"
	"github.com/hitoshi/pressrelay/internal/auth"
	"github.com/hitoshi/pressrelay/internal/billing"
	"github.com/hitoshi/pressrelay/internal/config"
	"github.com/hitoshi/pressrelay/internal/database"
	"github.com/hitoshi/pressrelay/internal/fanout"
	"github.com/hitoshi/pressrelay/internal/handler"
	"github.com/hitoshi/pressrelay/internal/logger"
	"github.com/hitoshi/pressrelay/internal/mailer"
	"github.com/hitoshi/pressrelay/internal/metrics"
	"github.com/hitoshi/pressrelay/internal/middleware"
	"github.com/hitoshi/pressrelay/internal/publish"
	"github.com/hitoshi/pressrelay/internal/repository"
	"github.com/hitoshi/pressrelay/internal/security"
	"github.com/hitoshi/pressrelay/internal/storage"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	orderRepo := repository.NewPostgresOrderRepo(db)
	articleRepo := repository.NewPostgresArticleRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 外部サービスクライアントの初期化
	// 外部APIはすべて共通のタイムアウトを適用する
	externalClient := &http.Client{Timeout: cfg.ExternalCallTimeout}

	profiles, err := adapt.LoadProfiles()
	if err != nil {
		return fmt.Errorf("failed to load site profiles: %w", err)
	}
	engine := adapt.NewEngine(externalClient, slog.Default(), profiles, cfg.OpenAIAPIKey, cfg.OpenAIModel)

	notionClient := publish.NewNotionClient(externalClient, slog.Default(), cfg.NotionAPIKey, cfg.NotionParentPageID)
	sink := publish.NewSink(notionClient, slog.Default())

	resendClient := mailer.NewResendClient(externalClient, slog.Default(), cfg.ResendAPIKey, cfg.MailFrom)
	dispatcher := mailer.NewDispatcher(resendClient, slog.Default(), cfg.OwnerEmail, collector)

	stripeClient := billing.NewStripeClient(externalClient, slog.Default(), cfg.StripeSecretKey)

	// 5. ドメインサービスの初期化
	authService := auth.NewService(userRepo, auth.ServiceConfig{
		JWTSecret: cfg.JWTSecret,
		JWTMaxAge: cfg.JWTMaxAge,
	})

	catalog := billing.NewCatalog(cfg.PlanPriceIDs)
	billingService := billing.NewService(orderRepo, stripeClient, dispatcher, catalog, slog.Default(),
		billing.ServiceConfig{
			SuccessURL: cfg.CheckoutSuccessURL,
			CancelURL:  cfg.CheckoutCancelURL,
		})

	orchestrator := fanout.NewOrchestrator(engine, sink, dispatcher, collector, slog.Default(), cfg.FanOutMaxConcurrent)

	ssrfGuard := security.NewSSRFGuard()
	imageStore := storage.NewImageStore(ssrfGuard, slog.Default(), cfg.ImageStoreRoot, cfg.ExternalCallTimeout)

	// 6. ルーターの構築
	// configのレート制限はreq/min単位なのでreq/secに変換する
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(cfg.RateLimitGeneral) / 60.0),
		GeneralBurst:    cfg.RateLimitGeneral,
		SubmitRate:      rate.Limit(float64(cfg.RateLimitSubmit) / 60.0),
		SubmitBurst:     cfg.RateLimitSubmit,
		CleanupInterval: 5 * time.Minute,
	})
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		TokenVerifier:     authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		CheckoutService: billingService,
		WebhookService:  billingService,
		WebhookSecret:   cfg.StripeWebhookSecret,

		ArticleRepo:  articleRepo,
		ImageStore:   imageStore,
		Orchestrator: orchestrator,
		MinWords:     cfg.ArticleMinWords,

		AuthService: authService,
		UserFinder:  userRepo,

		NotifyService: dispatcher,

		Collector: collector,
		Gatherer:  registry,
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	// ファンアウトはリライト・ページ作成・通知の3フェーズを同期実行するため、
	// WriteTimeoutは外部呼び出しタイムアウトの3倍を確保する
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * cfg.ExternalCallTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
