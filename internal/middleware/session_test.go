package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/edisonsteele/firstwork/internal/model"
)

// --- モック ---

type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

// --- テスト ---

func TestSessionMiddleware_ValidSession_InjectsUserID(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			if id == "valid-session-id" {
				return &model.Session{
					ID:        "valid-session-id",
					UserID:    "user-123",
					ExpiresAt: time.Now().Add(1 * time.Hour),
				}, nil
			}
			return nil, nil
		},
	}

	mw := NewSessionMiddleware(finder)

	var capturedUserID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		capturedUserID = userID
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/students", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "valid-session-id"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if capturedUserID != "user-123" {
		t.Errorf("userID = %q, want %q", capturedUserID, "user-123")
	}
}

func TestSessionMiddleware_NoSessionCookie_Returns401(t *testing.T) {
	mw := NewSessionMiddleware(&mockSessionFinder{})

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/students", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestSessionMiddleware_ExpiredSession_Returns401(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			// 期限切れセッションはリポジトリがnilを返す
			return nil, nil
		},
	}
	mw := NewSessionMiddleware(finder)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/students", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "expired-session"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestSessionMiddleware_RepositoryError_Returns401(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, context.DeadlineExceeded
		},
	}
	mw := NewSessionMiddleware(finder)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/students", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "some-session"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

func TestUserIDFromContext_NoValue_ReturnsError(t *testing.T) {
	_, err := UserIDFromContext(context.Background())
	if err == nil {
		t.Error("expected error for missing user ID in context")
	}
}

func TestUserIDFromContext_ValidValue_ReturnsUserID(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), "user-456")
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if userID != "user-456" {
		t.Errorf("userID = %q, want %q", userID, "user-456")
	}
}
