package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/edisonsteele/firstwork/internal/middleware"
	"github.com/edisonsteele/firstwork/internal/model"
)

type mockReferralService struct {
	claimFn     func(ctx context.Context, userID, referralID string) (*model.ReferralReward, error)
	applyCodeFn func(ctx context.Context, parentID, studentID, code string) error
	listFn      func(ctx context.Context, userID string) ([]*model.Referral, error)
}

func (m *mockReferralService) ClaimReward(ctx context.Context, userID, referralID string) (*model.ReferralReward, error) {
	return m.claimFn(ctx, userID, referralID)
}
func (m *mockReferralService) ApplyCode(ctx context.Context, parentID, studentID, code string) error {
	return m.applyCodeFn(ctx, parentID, studentID, code)
}
func (m *mockReferralService) ListReferrals(ctx context.Context, userID string) ([]*model.Referral, error) {
	return m.listFn(ctx, userID)
}

// newClaimRequest は認証済みの特典受け取りリクエストを組み立てる。
func newClaimRequest(userID, referralID string) *http.Request {
	body := bytes.NewReader([]byte(`{"referralId":"` + referralID + `"}`))
	req := httptest.NewRequest(http.MethodPost, "/api/referrals/claim", body)
	return req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
}

// TestClaimReward_Handler は特典受け取りの成功レスポンスを検証する。
func TestClaimReward_Handler(t *testing.T) {
	expiresAt := time.Now().AddDate(0, 0, 30)
	service := &mockReferralService{
		claimFn: func(ctx context.Context, userID, referralID string) (*model.ReferralReward, error) {
			if userID != "u1" || referralID != "ref-1" {
				t.Errorf("unexpected args: %s %s", userID, referralID)
			}
			return &model.ReferralReward{
				ID:        "rw-1",
				Type:      model.RewardTypeAccessToken,
				Value:     1,
				Status:    model.RewardStatusClaimed,
				ExpiresAt: &expiresAt,
			}, nil
		},
	}
	h := NewReferralHandler(service)

	rec := httptest.NewRecorder()
	h.ClaimReward(rec, newClaimRequest("u1", "ref-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp claimResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
	if resp.Reward.Type != "access_token" || resp.Reward.Value != 1 {
		t.Errorf("unexpected reward: %+v", resp.Reward)
	}
}

// TestClaimReward_Handler_ErrorMapping はサービスエラーとHTTPステータスの対応を検証する。
func TestClaimReward_Handler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"紹介が見つからない", model.NewReferralNotFoundError("ref-1"), http.StatusNotFound, "REFERRAL_NOT_FOUND"},
		{"受け取り済み", model.NewRewardAlreadyClaimedError(), http.StatusBadRequest, "REWARD_ALREADY_CLAIMED"},
		{"未完了", model.NewReferralNotCompletedError(), http.StatusBadRequest, "REFERRAL_NOT_COMPLETED"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := &mockReferralService{
				claimFn: func(ctx context.Context, userID, referralID string) (*model.ReferralReward, error) {
					return nil, tc.serviceErr
				},
			}
			h := NewReferralHandler(service)

			rec := httptest.NewRecorder()
			h.ClaimReward(rec, newClaimRequest("u1", "ref-1"))

			if rec.Code != tc.wantStatus {
				t.Errorf("expected %d, got %d", tc.wantStatus, rec.Code)
			}

			var resp apiErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Code != tc.wantCode {
				t.Errorf("expected code %s, got %s", tc.wantCode, resp.Code)
			}
		})
	}
}

// TestClaimReward_Handler_Unauthorized は未認証リクエストに401を返すことを検証する。
func TestClaimReward_Handler_Unauthorized(t *testing.T) {
	h := NewReferralHandler(&mockReferralService{})

	req := httptest.NewRequest(http.MethodPost, "/api/referrals/ref-1/claim", nil)
	rec := httptest.NewRecorder()

	h.ClaimReward(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// TestApplyCode_Handler は紹介コード適用エンドポイントを検証する。
func TestApplyCode_Handler(t *testing.T) {
	var gotStudentID, gotCode string
	service := &mockReferralService{
		applyCodeFn: func(ctx context.Context, parentID, studentID, code string) error {
			gotStudentID = studentID
			gotCode = code
			return nil
		},
	}
	h := NewReferralHandler(service)

	body := bytes.NewReader([]byte(`{"studentId":"student-1","referralCode":"referrer-1"}`))
	req := httptest.NewRequest(http.MethodPost, "/api/referrals/apply-code", body)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "parent-1"))
	rec := httptest.NewRecorder()

	h.ApplyCode(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotStudentID != "student-1" || gotCode != "referrer-1" {
		t.Errorf("unexpected args: %s %s", gotStudentID, gotCode)
	}
}

// TestApplyCode_Handler_MissingStudentID はstudentId欠落に400を返すことを検証する。
func TestApplyCode_Handler_MissingStudentID(t *testing.T) {
	h := NewReferralHandler(&mockReferralService{})

	body := bytes.NewReader([]byte(`{"referralCode":"referrer-1"}`))
	req := httptest.NewRequest(http.MethodPost, "/api/referrals/apply-code", body)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "parent-1"))
	rec := httptest.NewRecorder()

	h.ApplyCode(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// TestListReferrals_Handler は紹介一覧エンドポイントを検証する。
func TestListReferrals_Handler(t *testing.T) {
	now := time.Now()
	service := &mockReferralService{
		listFn: func(ctx context.Context, userID string) ([]*model.Referral, error) {
			return []*model.Referral{
				{
					ID:            "ref-1",
					ReferrerID:    userID,
					ReferredEmail: "referred@example.com",
					Status:        model.ReferralStatusCompleted,
					RewardType:    model.RewardTypeAccessToken,
					CreatedAt:     now,
					CompletedAt:   &now,
				},
			}, nil
		},
	}
	h := NewReferralHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/referrals", nil)
	req = req.WithContext(middleware.ContextWithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()

	h.ListReferrals(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []referralResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].ID != "ref-1" || resp[0].Status != "completed" {
		t.Errorf("unexpected response: %+v", resp)
	}
}
