// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/edisonsteele/firstwork/internal/model"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Payment Gateway
	StripeSecretKey     string
	StripeWebhookSecret string
	StripeAPIBaseURL    string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string
	SignatureTolerance  time.Duration
	PlanPriceMap        map[string]model.Plan

	// Referral
	// ReferralInitialStatus はWebhookが作成する紹介行の初期状態。
	// 本システム内にpendingの生成経路はないが、外部プロセスが完了処理を行う
	// 運用向けに設定で切り替えられる。
	ReferralInitialStatus  model.ReferralStatus
	DefaultDiscountPercent int
	RewardExpiryDays       int

	// Rate Limit（req/min/user）
	RateLimitGeneral int
	RateLimitClaim   int

	// Cleanup
	WebhookEventRetentionDays int

	// Server
	ServerPort string
	BaseURL    string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// .envファイルが存在する場合は先に読み込む（環境変数が優先）。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	_ = godotenv.Load()

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

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.StripeAPIBaseURL = getEnvString("STRIPE_API_BASE_URL", "https://api.stripe.com")
	cfg.CheckoutSuccessURL = getEnvString("CHECKOUT_SUCCESS_URL", cfg.BaseURL+"/dashboard?checkout=success")
	cfg.CheckoutCancelURL = getEnvString("CHECKOUT_CANCEL_URL", cfg.BaseURL+"/checkout")
	cfg.SignatureTolerance = getEnvDuration("WEBHOOK_SIGNATURE_TOLERANCE", 5*time.Minute)
	cfg.DefaultDiscountPercent = getEnvInt("REFERRAL_DEFAULT_DISCOUNT", 10)
	cfg.RewardExpiryDays = getEnvInt("REFERRAL_REWARD_EXPIRY_DAYS", 30)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitClaim = getEnvInt("RATE_LIMIT_CLAIM", 10)
	cfg.WebhookEventRetentionDays = getEnvInt("WEBHOOK_EVENT_RETENTION_DAYS", 90)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	status, err := parseReferralInitialStatus(os.Getenv("REFERRAL_INITIAL_STATUS"))
	if err != nil {
		return nil, err
	}
	cfg.ReferralInitialStatus = status

	cfg.PlanPriceMap = parsePlanPriceMap(os.Getenv("PLAN_PRICE_MAP"))

	return cfg, nil
}

// PlanForPrice は価格IDに対応するプランを返す。未知の価格IDはsingleにフォールバックする。
func (c *Config) PlanForPrice(priceID string) model.Plan {
	if plan, ok := c.PlanPriceMap[priceID]; ok {
		return plan
	}
	return model.PlanSingle
}

// parseReferralInitialStatus はREFERRAL_INITIAL_STATUSの値を検証する。
// 未設定の場合はcompleted（オリジナル実装と同じ唯一の生成経路）を返す。
func parseReferralInitialStatus(v string) (model.ReferralStatus, error) {
	switch v {
	case "":
		return model.ReferralStatusCompleted, nil
	case string(model.ReferralStatusCompleted):
		return model.ReferralStatusCompleted, nil
	case string(model.ReferralStatusPending):
		return model.ReferralStatusPending, nil
	default:
		return "", fmt.Errorf("invalid REFERRAL_INITIAL_STATUS: %q (must be completed or pending)", v)
	}
}

// parsePlanPriceMap は"price_id=plan,price_id=plan"形式の文字列をマップに変換する。
// 不正なエントリは無視する。
func parsePlanPriceMap(v string) map[string]model.Plan {
	m := map[string]model.Plan{
		"price_single": model.PlanSingle,
		"price_small":  model.PlanSmall,
		"price_medium": model.PlanMedium,
		"price_large":  model.PlanLarge,
	}
	if v == "" {
		return m
	}
	for _, pair := range strings.Split(v, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 || kv[0] == "" || kv[1] == "" {
			continue
		}
		m[kv[0]] = model.Plan(kv[1])
	}
	return m
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
