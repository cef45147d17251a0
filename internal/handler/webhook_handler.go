// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/edisonsteele/firstwork/internal/model"
	"github.com/edisonsteele/firstwork/internal/payment"
)

// Webhookボディの最大サイズ。ゲートウェイのイベントはこれより十分小さい。
const maxWebhookBodySize = 1 << 20

// WebhookProcessor はWebhookハンドラーが必要とするサービスインターフェース。
type WebhookProcessor interface {
	// Process は署名付きWebhook配信を検証・処理する。
	Process(ctx context.Context, payload []byte, signatureHeader string) error
}

// WebhookHandler は決済ゲートウェイWebhookのHTTPハンドラー。
// 認証ミドルウェアの外に配置する。呼び出し元の真正性は署名検証で担保する。
type WebhookHandler struct {
	processor WebhookProcessor
}

// NewWebhookHandler はWebhookHandlerを生成する。
func NewWebhookHandler(processor WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
	}
}

// HandleWebhook はWebhook配信を受け付ける。
// POST /api/webhooks/payment
//
// 署名検証失敗は400を返す（ゲートウェイは再送しない）。
// 処理失敗は500を返し、ゲートウェイの再送に委ねる。
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの読み取りに失敗しました"))
		return
	}

	err = h.processor.Process(r.Context(), payload, r.Header.Get(payment.SignatureHeader))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			slog.Warn("webhook signature verification failed",
				slog.String("remote_addr", r.RemoteAddr),
			)
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("署名の検証に失敗しました"))
			return
		}

		slog.Error("webhook processing failed", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
			Code:     "INTERNAL_ERROR",
			Message:  "内部エラーが発生しました。",
			Category: "system",
			Action:   "しばらく待ってから再度お試しください。",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"received": true})
}
