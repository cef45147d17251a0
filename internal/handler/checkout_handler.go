package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/edisonsteele/firstwork/internal/middleware"
	"github.com/edisonsteele/firstwork/internal/model"
	"github.com/edisonsteele/firstwork/internal/payment"
)

// CheckoutServiceInterface はチェックアウトハンドラーが必要とするサービスインターフェース。
type CheckoutServiceInterface interface {
	// CreateCheckout はホスト型チェックアウトセッションを作成する。
	CreateCheckout(ctx context.Context, userID, priceID string, quantity int, referrerID string) (*payment.CheckoutSession, error)
}

// CheckoutHandler はチェックアウトのHTTPハンドラー。
type CheckoutHandler struct {
	service CheckoutServiceInterface
}

// NewCheckoutHandler はCheckoutHandlerを生成する。
func NewCheckoutHandler(service CheckoutServiceInterface) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
	}
}

// checkoutRequest はチェックアウト作成リクエストのボディ。
// フィールド名は外部契約に合わせてcamelCaseとする。
// referralCodeは紹介者のユーザーIDで、メタデータ経由でWebhookまで伝搬する。
type checkoutRequest struct {
	PriceID      string `json:"priceId"`
	Quantity     int    `json:"quantity"`
	ReferralCode string `json:"referralCode,omitempty"`
}

// checkoutResponse はチェックアウト作成のAPIレスポンス。
type checkoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CreateCheckout はチェックアウトセッションを作成しリダイレクト先URLを返す。
// POST /api/checkout
func (h *CheckoutHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	if req.PriceID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("priceIdは必須です"))
		return
	}

	session, err := h.service.CreateCheckout(r.Context(), userID, req.PriceID, req.Quantity, req.ReferralCode)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(checkoutResponse{
		SessionID: session.ID,
		URL:       session.URL,
	})
}
