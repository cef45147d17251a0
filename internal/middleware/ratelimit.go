package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // API全般のレート（req/sec）。120/60 = 2 req/sec
	GeneralBurst    int           // API全般のバーストサイズ
	ClaimRate       rate.Limit    // 特典受け取りのレート（req/sec）。10/60
	ClaimBurst      int           // 特典受け取りのバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// 要件: API全般 120 req/min/user、特典受け取り 10 req/min/user
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(120.0 / 60.0), // 2 req/sec
		GeneralBurst:    120,
		ClaimRate:       rate.Limit(10.0 / 60.0), // ~0.167 req/sec
		ClaimBurst:      10,
		CleanupInterval: 5 * time.Minute,
	}
}

// userLimiter はユーザーごとのレートリミッターとアクセス時刻を保持する。
type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterSet はユーザーIDをキーとするリミッターの集合。
type limiterSet struct {
	mu       sync.RWMutex
	limiters map[string]*userLimiter
	rateVal  rate.Limit
	burst    int
}

func newLimiterSet(r rate.Limit, burst int) *limiterSet {
	return &limiterSet{
		limiters: make(map[string]*userLimiter),
		rateVal:  r,
		burst:    burst,
	}
}

// getOrCreate はユーザーのリミッターを取得または作成する。
func (ls *limiterSet) getOrCreate(userID string) *rate.Limiter {
	ls.mu.RLock()
	ul, exists := ls.limiters[userID]
	ls.mu.RUnlock()

	if exists {
		ls.mu.Lock()
		ul.lastAccess = time.Now()
		ls.mu.Unlock()
		return ul.limiter
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	// ダブルチェック
	if ul, exists := ls.limiters[userID]; exists {
		ul.lastAccess = time.Now()
		return ul.limiter
	}

	limiter := rate.NewLimiter(ls.rateVal, ls.burst)
	ls.limiters[userID] = &userLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}
	return limiter
}

func (ls *limiterSet) count() int {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return len(ls.limiters)
}

func (ls *limiterSet) cleanup(now time.Time, ttl time.Duration) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for userID, ul := range ls.limiters {
		if now.Sub(ul.lastAccess) > ttl {
			delete(ls.limiters, userID)
		}
	}
}

// RateLimiter はユーザーごとのレート制限を管理する。
// API全般のレート制限と、特典受け取り専用のより厳しいレート制限の2種類を提供する。
type RateLimiter struct {
	config  RateLimiterConfig
	general *limiterSet
	claim   *limiterSet
	stopCh  chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		general: newLimiterSet(config.GeneralRate, config.GeneralBurst),
		claim:   newLimiterSet(config.ClaimRate, config.ClaimBurst),
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
// リクエストコンテキストにユーザーIDが含まれている必要がある（SessionMiddlewareの後に配置）。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.general, rl.config.GeneralRate, "general")
}

// ClaimMiddleware は特典受け取り専用のレート制限ミドルウェアを返す。
// API全般のレート制限とは独立に動作する。
func (rl *RateLimiter) ClaimMiddleware() func(next http.Handler) http.Handler {
	return rl.middleware(rl.claim, rl.config.ClaimRate, "claim")
}

func (rl *RateLimiter) middleware(set *limiterSet, limit rate.Limit, limitType string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if !set.getOrCreate(userID).Allow() {
				writeRateLimitResponse(w, limit)
				slog.Warn("rate limit exceeded",
					slog.String("user_id", userID),
					slog.String("limit_type", limitType),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	return rl.general.count()
}

// ClaimLimiterCount は現在管理されている特典受け取りリミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) ClaimLimiterCount() int {
	return rl.claim.count()
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2
	now := time.Now()
	rl.general.cleanup(now, ttl)
	rl.claim.cleanup(now, ttl)
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
