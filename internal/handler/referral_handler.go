package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/edisonsteele/firstwork/internal/middleware"
	"github.com/edisonsteele/firstwork/internal/model"
)

// ReferralServiceInterface は紹介ハンドラーが必要とするサービスインターフェース。
type ReferralServiceInterface interface {
	// ClaimReward は紹介特典を受け取り、発行した特典を返す。
	ClaimReward(ctx context.Context, userID, referralID string) (*model.ReferralReward, error)
	// ApplyCode は学習者の設定に紹介コードを保存する。
	ApplyCode(ctx context.Context, parentID, studentID, code string) error
	// ListReferrals はユーザーが紹介者となっている紹介一覧を返す。
	ListReferrals(ctx context.Context, userID string) ([]*model.Referral, error)
}

// ReferralHandler は紹介プログラムのHTTPハンドラー。
type ReferralHandler struct {
	service ReferralServiceInterface
}

// NewReferralHandler はReferralHandlerを生成する。
func NewReferralHandler(service ReferralServiceInterface) *ReferralHandler {
	return &ReferralHandler{
		service: service,
	}
}

// referralResponse は紹介情報のAPIレスポンス。
type referralResponse struct {
	ID            string     `json:"id"`
	ReferredEmail string     `json:"referred_email"`
	Status        string     `json:"status"`
	RewardClaimed bool       `json:"reward_claimed"`
	RewardType    string     `json:"reward_type"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// rewardResponse は発行した特典のAPIレスポンス。
type rewardResponse struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Value     int        `json:"value"`
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// claimResponse は特典受け取りのAPIレスポンス。
type claimResponse struct {
	Success bool           `json:"success"`
	Reward  rewardResponse `json:"reward"`
}

// applyCodeRequest は紹介コード適用リクエストのボディ。
// フィールド名は外部契約に合わせてcamelCaseとする。
type applyCodeRequest struct {
	StudentID    string `json:"studentId"`
	ReferralCode string `json:"referralCode"`
}

// claimRequest は特典受け取りリクエストのボディ。
type claimRequest struct {
	ReferralID string `json:"referralId"`
}

// ClaimReward は紹介特典を受け取る。
// POST /api/referrals/claim
func (h *ReferralHandler) ClaimReward(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}
	if req.ReferralID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("referralIdは必須です"))
		return
	}

	reward, err := h.service.ClaimReward(r.Context(), userID, req.ReferralID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(claimResponse{
		Success: true,
		Reward: rewardResponse{
			ID:        reward.ID,
			Type:      string(reward.Type),
			Value:     reward.Value,
			Status:    string(reward.Status),
			ExpiresAt: reward.ExpiresAt,
		},
	})
}

// ApplyCode は学習者の設定に紹介コードを適用する。
// POST /api/referrals/apply-code
func (h *ReferralHandler) ApplyCode(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req applyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	if req.StudentID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("studentIdは必須です"))
		return
	}

	if err := h.service.ApplyCode(r.Context(), userID, req.StudentID, req.ReferralCode); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// ListReferrals はユーザーの紹介一覧を取得する。
// GET /api/referrals
func (h *ReferralHandler) ListReferrals(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	referrals, err := h.service.ListReferrals(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]referralResponse, 0, len(referrals))
	for _, ref := range referrals {
		resp = append(resp, referralResponse{
			ID:            ref.ID,
			ReferredEmail: ref.ReferredEmail,
			Status:        string(ref.Status),
			RewardClaimed: ref.RewardClaimed,
			RewardType:    string(ref.RewardType),
			CreatedAt:     ref.CreatedAt,
			CompletedAt:   ref.CompletedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// --- ヘルパー関数 ---

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// apiErrorResponse はAPIエラーレスポンスのJSON表現。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeInvalidRequest, model.ErrCodeInvalidReferralCode:
		return http.StatusBadRequest
	case model.ErrCodeReferralNotFound, model.ErrCodeStudentNotFound,
		model.ErrCodeTaskNotFound, model.ErrCodeRewardNotFound,
		model.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case model.ErrCodeRewardAlreadyClaimed, model.ErrCodeReferralNotCompleted:
		return http.StatusBadRequest
	case model.ErrCodeTaskAlreadyCompleted, model.ErrCodeSessionCompleted:
		return http.StatusConflict
	case model.ErrCodeCheckoutFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
