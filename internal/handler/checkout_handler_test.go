package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/edisonsteele/firstwork/internal/middleware"
	"github.com/edisonsteele/firstwork/internal/model"
	"github.com/edisonsteele/firstwork/internal/payment"
)

// --- モック ---

type mockCheckoutService struct {
	createFn func(ctx context.Context, userID, priceID string, quantity int, referrerID string) (*payment.CheckoutSession, error)
}

func (m *mockCheckoutService) CreateCheckout(ctx context.Context, userID, priceID string, quantity int, referrerID string) (*payment.CheckoutSession, error) {
	return m.createFn(ctx, userID, priceID, quantity, referrerID)
}

// --- テスト ---

// TestCreateCheckout_Handler はcamelCaseのリクエストを受理し、
// sessionIdを含むレスポンスを返すことを検証する。
func TestCreateCheckout_Handler(t *testing.T) {
	var gotPriceID, gotReferrer string
	var gotQuantity int
	service := &mockCheckoutService{
		createFn: func(ctx context.Context, userID, priceID string, quantity int, referrerID string) (*payment.CheckoutSession, error) {
			gotPriceID = priceID
			gotQuantity = quantity
			gotReferrer = referrerID
			return &payment.CheckoutSession{ID: "cs_1", URL: "https://pay.example.com/cs_1"}, nil
		},
	}
	h := NewCheckoutHandler(service)

	body := bytes.NewReader([]byte(`{"priceId":"price_small","quantity":3,"referralCode":"referrer-1"}`))
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", body)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()

	h.CreateCheckout(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if gotPriceID != "price_small" || gotQuantity != 3 || gotReferrer != "referrer-1" {
		t.Errorf("unexpected args: %s %d %s", gotPriceID, gotQuantity, gotReferrer)
	}

	if !strings.Contains(rec.Body.String(), `"sessionId":"cs_1"`) {
		t.Errorf("expected sessionId in response, got %s", rec.Body.String())
	}
	var resp checkoutResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.URL != "https://pay.example.com/cs_1" {
		t.Errorf("unexpected url: %s", resp.URL)
	}
}

// TestCreateCheckout_Handler_MissingPriceID はpriceId欠落に400を返すことを検証する。
func TestCreateCheckout_Handler_MissingPriceID(t *testing.T) {
	h := NewCheckoutHandler(&mockCheckoutService{})

	body := bytes.NewReader([]byte(`{"quantity":1}`))
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", body)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()

	h.CreateCheckout(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// TestCreateCheckout_Handler_GatewayFailure はゲートウェイ障害に502を返すことを検証する。
func TestCreateCheckout_Handler_GatewayFailure(t *testing.T) {
	service := &mockCheckoutService{
		createFn: func(ctx context.Context, userID, priceID string, quantity int, referrerID string) (*payment.CheckoutSession, error) {
			return nil, model.NewCheckoutFailedError()
		},
	}
	h := NewCheckoutHandler(service)

	body := bytes.NewReader([]byte(`{"priceId":"price_single","quantity":1}`))
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", body)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()

	h.CreateCheckout(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}
