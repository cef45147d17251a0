package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edisonsteele/firstwork/internal/middleware"
	"github.com/edisonsteele/firstwork/internal/model"
	"github.com/edisonsteele/firstwork/internal/reward"
)

// RewardServiceInterface はごほうびハンドラーが必要とするサービスインターフェース。
type RewardServiceInterface interface {
	Create(ctx context.Context, parentID string, params reward.CreateParams) (*model.Reward, error)
	List(ctx context.Context, parentID, studentID string) ([]*model.Reward, error)
	Deactivate(ctx context.Context, parentID, rewardID string) error
}

// RewardHandler はごほうびカタログのHTTPハンドラー。
type RewardHandler struct {
	service RewardServiceInterface
}

// NewRewardHandler はRewardHandlerを生成する。
func NewRewardHandler(service RewardServiceInterface) *RewardHandler {
	return &RewardHandler{
		service: service,
	}
}

// rewardCatalogResponse はごほうび情報のAPIレスポンス。
type rewardCatalogResponse struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"student_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	PointsRequired int       `json:"points_required"`
	Duration       int       `json:"duration"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// createRewardRequest はごほうび作成リクエストのボディ。
type createRewardRequest struct {
	StudentID      string `json:"student_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	PointsRequired int    `json:"points_required"`
	Duration       int    `json:"duration"`
	Type           string `json:"type"`
}

// CreateReward は学習者のごほうびを登録する。
// POST /api/rewards
func (h *RewardHandler) CreateReward(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createRewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	created, err := h.service.Create(r.Context(), userID, reward.CreateParams{
		StudentID:      req.StudentID,
		Name:           req.Name,
		Description:    req.Description,
		PointsRequired: req.PointsRequired,
		Duration:       req.Duration,
		Type:           model.RewardKind(req.Type),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toRewardCatalogResponse(created))
}

// ListRewards は学習者のごほうび一覧を取得する。
// GET /api/students/{id}/rewards
func (h *RewardHandler) ListRewards(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	studentID := chi.URLParam(r, "id")

	rewards, err := h.service.List(r.Context(), userID, studentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]rewardCatalogResponse, 0, len(rewards))
	for _, rw := range rewards {
		resp = append(resp, toRewardCatalogResponse(rw))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// DeactivateReward はごほうびを無効化する。
// DELETE /api/rewards/{id}
func (h *RewardHandler) DeactivateReward(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	rewardID := chi.URLParam(r, "id")

	if err := h.service.Deactivate(r.Context(), userID, rewardID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toRewardCatalogResponse はmodel.RewardからAPIレスポンスに変換する。
func toRewardCatalogResponse(rw *model.Reward) rewardCatalogResponse {
	return rewardCatalogResponse{
		ID:             rw.ID,
		StudentID:      rw.StudentID,
		Name:           rw.Name,
		Description:    rw.Description,
		PointsRequired: rw.PointsRequired,
		Duration:       rw.Duration,
		Type:           string(rw.Type),
		Status:         string(rw.Status),
		CreatedAt:      rw.CreatedAt,
	}
}
