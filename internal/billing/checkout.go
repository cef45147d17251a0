package billing

import (
	"context"
	"log/slog"

	"github.com/edisonsteele/firstwork/internal/metrics"
	"github.com/edisonsteele/firstwork/internal/model"
	"github.com/edisonsteele/firstwork/internal/payment"
)

// CheckoutGateway はチェックアウトセッション作成のインターフェース。
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, params payment.CheckoutParams) (*payment.CheckoutSession, error)
}

// CheckoutConfig はCheckoutServiceの設定を保持する。
type CheckoutConfig struct {
	SuccessURL   string
	CancelURL    string
	PlanForPrice func(priceID string) model.Plan
}

// CheckoutService はホスト型チェックアウトセッションの作成を担う。
type CheckoutService struct {
	gateway CheckoutGateway
	metrics metrics.MetricsCollector
	config  CheckoutConfig
}

// NewCheckoutService はCheckoutServiceを生成する。
func NewCheckoutService(gateway CheckoutGateway, collector metrics.MetricsCollector, config CheckoutConfig) *CheckoutService {
	if config.PlanForPrice == nil {
		config.PlanForPrice = func(string) model.Plan { return model.PlanSingle }
	}
	return &CheckoutService{
		gateway: gateway,
		metrics: collector,
		config:  config,
	}
}

// CreateCheckout はユーザーのチェックアウトセッションを作成しリダイレクト先URLを返す。
// referrerIDが指定された場合はメタデータ経由でWebhookまで伝搬する。
func (s *CheckoutService) CreateCheckout(ctx context.Context, userID, priceID string, quantity int, referrerID string) (*payment.CheckoutSession, error) {
	if priceID == "" {
		return nil, model.NewInvalidRequestError("priceIdは必須です")
	}
	if quantity < 1 {
		quantity = 1
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutParams{
		PriceID:    priceID,
		Quantity:   quantity,
		UserID:     userID,
		ReferrerID: referrerID,
		SuccessURL: s.config.SuccessURL,
		CancelURL:  s.config.CancelURL,
	})
	if err != nil {
		slog.Error("checkout session creation failed",
			slog.String("user_id", userID),
			slog.String("price_id", priceID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewCheckoutFailedError()
	}

	if s.metrics != nil {
		s.metrics.RecordCheckoutSession(string(s.config.PlanForPrice(priceID)))
	}

	slog.Info("checkout session created",
		slog.String("user_id", userID),
		slog.String("session_id", session.ID),
		slog.String("price_id", priceID),
	)
	return session, nil
}
