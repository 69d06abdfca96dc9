package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // API全般のレート（req/sec）
	GeneralBurst    int           // API全般のバーストサイズ
	SubmitRate      rate.Limit    // 記事投稿・チェックアウトのレート（req/sec）
	SubmitBurst     int           // 記事投稿・チェックアウトのバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// API全般 120 req/min、記事投稿系 10 req/min。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(120.0 / 60.0),
		GeneralBurst:    120,
		SubmitRate:      rate.Limit(10.0 / 60.0),
		SubmitBurst:     10,
		CleanupInterval: 5 * time.Minute,
	}
}

// keyedLimiter はキーごとのレートリミッターとアクセス時刻を保持する。
type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterPool はキーごとのリミッターの集合を管理する。
type limiterPool struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	r        rate.Limit
	burst    int
}

func newLimiterPool(r rate.Limit, burst int) *limiterPool {
	return &limiterPool{
		limiters: make(map[string]*keyedLimiter),
		r:        r,
		burst:    burst,
	}
}

// get はキーに対応するリミッターを取得または作成し、最終アクセス時刻を更新する。
func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if kl, exists := p.limiters[key]; exists {
		kl.lastAccess = time.Now()
		return kl.limiter
	}

	limiter := rate.NewLimiter(p.r, p.burst)
	p.limiters[key] = &keyedLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}
	return limiter
}

// cleanup は最終アクセス時刻がttlを超えたエントリを削除する。
func (p *limiterPool) cleanup(ttl time.Duration) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	for key, kl := range p.limiters {
		if now.Sub(kl.lastAccess) > ttl {
			delete(p.limiters, key)
		}
	}
}

func (p *limiterPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.limiters)
}

// RateLimiter はクライアントごとのレート制限を管理する。
// 認証済みリクエストはユーザーID、未認証リクエストはクライアントIPでキーイングする。
type RateLimiter struct {
	config  RateLimiterConfig
	general *limiterPool
	submit  *limiterPool
	stopCh  chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		general: newLimiterPool(config.GeneralRate, config.GeneralBurst),
		submit:  newLimiterPool(config.SubmitRate, config.SubmitBurst),
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.general, rl.config.GeneralRate, "general")
}

// SubmitMiddleware は記事投稿・チェックアウト専用のレート制限ミドルウェアを返す。
// API全般のレート制限とは独立に動作する。
func (rl *RateLimiter) SubmitMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.submit, rl.config.SubmitRate, "submit")
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	return rl.general.size()
}

// SubmitLimiterCount は現在管理されている投稿系リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) SubmitLimiterCount() int {
	return rl.submit.size()
}

func (rl *RateLimiter) middleware(pool *limiterPool, r rate.Limit, limitType string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			key := clientKey(req)

			if !pool.get(key).Allow() {
				writeRateLimitResponse(w, r)
				slog.Warn("rate limit exceeded",
					slog.String("client", key),
					slog.String("limit_type", limitType),
				)
				return
			}

			next.ServeHTTP(w, req)
		})
	}
}

// clientKey はレート制限のキーを決定する。
// 認証済みの場合はユーザーID、それ以外はクライアントIPを使用する。
func clientKey(r *http.Request) string {
	if userID, err := UserIDFromContext(r.Context()); err == nil && userID != "" {
		return "user:" + userID
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ttl := rl.config.CleanupInterval * 2
			rl.general.cleanup(ttl)
			rl.submit.cleanup(ttl)
		case <-rl.stopCh:
			return
		}
	}
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]string{
		"code":     "rate_limit_exceeded",
		"message":  "Too many requests. Please try again later.",
		"category": "system",
		"action":   "Please wait and retry after the specified time.",
	})
}
