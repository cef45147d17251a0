package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edisonsteele/firstwork/internal/middleware"
	"github.com/edisonsteele/firstwork/internal/model"
	"github.com/edisonsteele/firstwork/internal/studysession"
)

// StudySessionServiceInterface はセッションハンドラーが必要とするサービスインターフェース。
type StudySessionServiceInterface interface {
	Start(ctx context.Context, parentID string, params studysession.StartParams) (*model.StudySession, error)
	Complete(ctx context.Context, parentID, sessionID string) (*model.StudySession, error)
	List(ctx context.Context, parentID, studentID string) ([]*model.StudySession, error)
}

// StudySessionHandler はワーク/ごほうびタイマーセッションのHTTPハンドラー。
type StudySessionHandler struct {
	service StudySessionServiceInterface
}

// NewStudySessionHandler はStudySessionHandlerを生成する。
func NewStudySessionHandler(service StudySessionServiceInterface) *StudySessionHandler {
	return &StudySessionHandler{
		service: service,
	}
}

// studySessionResponse はセッション情報のAPIレスポンス。
type studySessionResponse struct {
	ID        string     `json:"id"`
	StudentID string     `json:"student_id"`
	Type      string     `json:"type"`
	Status    string     `json:"status"`
	Duration  int        `json:"duration"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	TaskID    *string    `json:"task_id,omitempty"`
	RewardID  *string    `json:"reward_id,omitempty"`
}

// startSessionRequest はセッション開始リクエストのボディ。
type startSessionRequest struct {
	StudentID string  `json:"student_id"`
	Type      string  `json:"type"`
	Duration  int     `json:"duration"`
	TaskID    *string `json:"task_id,omitempty"`
	RewardID  *string `json:"reward_id,omitempty"`
}

// StartSession はタイマーセッションを開始する。
// POST /api/study-sessions
func (h *StudySessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	session, err := h.service.Start(r.Context(), userID, studysession.StartParams{
		StudentID: req.StudentID,
		Type:      model.SessionType(req.Type),
		Duration:  req.Duration,
		TaskID:    req.TaskID,
		RewardID:  req.RewardID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toStudySessionResponse(session))
}

// CompleteSession はセッションを完了にする。実測時間が進捗集計へ加算される。
// POST /api/study-sessions/{id}/complete
func (h *StudySessionHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	sessionID := chi.URLParam(r, "id")

	session, err := h.service.Complete(r.Context(), userID, sessionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toStudySessionResponse(session))
}

// ListSessions は学習者のセッション一覧を取得する。
// GET /api/students/{id}/study-sessions
func (h *StudySessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	studentID := chi.URLParam(r, "id")

	sessions, err := h.service.List(r.Context(), userID, studentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]studySessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, toStudySessionResponse(s))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// toStudySessionResponse はmodel.StudySessionからAPIレスポンスに変換する。
func toStudySessionResponse(s *model.StudySession) studySessionResponse {
	return studySessionResponse{
		ID:        s.ID,
		StudentID: s.StudentID,
		Type:      string(s.Type),
		Status:    string(s.Status),
		Duration:  s.Duration,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		TaskID:    s.TaskID,
		RewardID:  s.RewardID,
	}
}
