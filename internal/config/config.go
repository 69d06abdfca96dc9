// Package config は環境変数からのアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Payment (Stripe)
	StripeSecretKey     string
	StripeWebhookSecret string
	PlanPriceIDs        map[string]string // プラン名 → 価格ID
	CheckoutSuccessURL  string
	CheckoutCancelURL   string

	// Content adaptation (OpenAI)
	OpenAIAPIKey string
	OpenAIModel  string

	// Publication (Notion)
	NotionAPIKey       string
	NotionParentPageID string

	// Mail (Resend)
	ResendAPIKey string
	MailFrom     string
	OwnerEmail   string

	// Auth
	JWTSecret string
	JWTMaxAge time.Duration

	// Fan-out
	FanOutMaxConcurrent int
	ExternalCallTimeout time.Duration

	// Article
	ArticleMinWords int
	ImageStoreRoot  string

	// Rate Limit（req/min/user）
	RateLimitGeneral int
	RateLimitSubmit  int

	// Server
	ServerPort string
	BaseURL    string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.StripeSecretKey = os.Getenv("STRIPE_SECRET_KEY")
	if cfg.StripeSecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}

	cfg.StripeWebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")
	if cfg.StripeWebhookSecret == "" {
		missing = append(missing, "STRIPE_WEBHOOK_SECRET")
	}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}

	cfg.NotionAPIKey = os.Getenv("NOTION_API_KEY")
	if cfg.NotionAPIKey == "" {
		missing = append(missing, "NOTION_API_KEY")
	}

	cfg.NotionParentPageID = os.Getenv("NOTION_PARENT_PAGE_ID")
	if cfg.NotionParentPageID == "" {
		missing = append(missing, "NOTION_PARENT_PAGE_ID")
	}

	cfg.ResendAPIKey = os.Getenv("RESEND_API_KEY")
	if cfg.ResendAPIKey == "" {
		missing = append(missing, "RESEND_API_KEY")
	}

	cfg.OwnerEmail = os.Getenv("OWNER_EMAIL")
	if cfg.OwnerEmail == "" {
		missing = append(missing, "OWNER_EMAIL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// プラン価格マッピング
	// 価格IDが未設定のプランはチェックアウト時に設定エラー（500）となる
	cfg.PlanPriceIDs = map[string]string{
		"Launch Special": os.Getenv("STRIPE_PRICE_LAUNCH_SPECIAL"),
		"Standard":       os.Getenv("STRIPE_PRICE_STANDARD"),
		"Agency":         os.Getenv("STRIPE_PRICE_AGENCY"),
	}

	// Optional fields with defaults
	cfg.CheckoutSuccessURL = getEnvString("CHECKOUT_SUCCESS_URL", cfg.BaseURL+"/success?session_id={CHECKOUT_SESSION_ID}")
	cfg.CheckoutCancelURL = getEnvString("CHECKOUT_CANCEL_URL", cfg.BaseURL+"/pricing")
	cfg.OpenAIModel = getEnvString("OPENAI_MODEL", "gpt-4o-mini")
	cfg.MailFrom = getEnvString("MAIL_FROM", "Press Relay <noreply@pressrelay.app>")
	cfg.JWTMaxAge = getEnvDuration("JWT_MAX_AGE", 72*time.Hour)
	cfg.FanOutMaxConcurrent = getEnvInt("FANOUT_MAX_CONCURRENT", 6)
	cfg.ExternalCallTimeout = getEnvDuration("EXTERNAL_CALL_TIMEOUT", 60*time.Second)
	cfg.ArticleMinWords = getEnvInt("ARTICLE_MIN_WORDS", 100)
	cfg.ImageStoreRoot = getEnvString("IMAGE_STORE_ROOT", "/var/lib/pressrelay/images")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitSubmit = getEnvInt("RATE_LIMIT_SUBMIT", 10)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
