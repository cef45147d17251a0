package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/edisonsteele/firstwork/internal/middleware"
	"github.com/edisonsteele/firstwork/internal/model"
)

// PurchaseLister は購入ハンドラーが必要とするリポジトリインターフェース。
// repository.PurchaseRepositoryの部分集合として定義する。
type PurchaseLister interface {
	ListByUserID(ctx context.Context, userID string) ([]*model.Purchase, error)
}

// PurchaseHandler は購入履歴のHTTPハンドラー。
type PurchaseHandler struct {
	purchases PurchaseLister
}

// NewPurchaseHandler はPurchaseHandlerを生成する。
func NewPurchaseHandler(purchases PurchaseLister) *PurchaseHandler {
	return &PurchaseHandler{
		purchases: purchases,
	}
}

// purchaseResponse は購入情報のAPIレスポンス。
type purchaseResponse struct {
	ID        string     `json:"id"`
	Plan      string     `json:"plan"`
	Quantity  int        `json:"quantity"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ListPurchases はユーザーの購入履歴を取得する。
// GET /api/purchases
func (h *PurchaseHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	purchases, err := h.purchases.ListByUserID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		resp = append(resp, purchaseResponse{
			ID:        p.ID,
			Plan:      string(p.Plan),
			Quantity:  p.Quantity,
			Status:    string(p.Status),
			CreatedAt: p.CreatedAt,
			ExpiresAt: p.ExpiresAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
