package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edisonsteele/firstwork/internal/middleware"
	"github.com/edisonsteele/firstwork/internal/model"
	"github.com/edisonsteele/firstwork/internal/progress"
)

// ProgressServiceInterface は進捗ハンドラーが必要とするサービスインターフェース。
type ProgressServiceInterface interface {
	GetSummary(ctx context.Context, parentID, studentID string, from, to time.Time) (*progress.Summary, error)
}

// ProgressHandler は進捗集計のHTTPハンドラー。
type ProgressHandler struct {
	service ProgressServiceInterface
}

// NewProgressHandler はProgressHandlerを生成する。
func NewProgressHandler(service ProgressServiceInterface) *ProgressHandler {
	return &ProgressHandler{
		service: service,
	}
}

// progressDayResponse は日次進捗のAPIレスポンス。
type progressDayResponse struct {
	Date           string `json:"date"`
	TasksCompleted int    `json:"tasks_completed"`
	PointsEarned   int    `json:"points_earned"`
	WorkTime       int    `json:"work_time"`
	RewardTime     int    `json:"reward_time"`
}

// progressSummaryResponse は進捗サマリーのAPIレスポンス。
type progressSummaryResponse struct {
	Days           []progressDayResponse `json:"days"`
	TasksCompleted int                   `json:"tasks_completed"`
	PointsEarned   int                   `json:"points_earned"`
	WorkTime       int                   `json:"work_time"`
	RewardTime     int                   `json:"reward_time"`
}

// GetProgress は学習者の進捗サマリーを取得する。
// GET /api/students/{id}/progress?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	studentID := chi.URLParam(r, "id")

	from, err := parseDateParam(r.URL.Query().Get("from"))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("fromの日付形式が不正です"))
		return
	}
	to, err := parseDateParam(r.URL.Query().Get("to"))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("toの日付形式が不正です"))
		return
	}

	summary, err := h.service.GetSummary(r.Context(), userID, studentID, from, to)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := progressSummaryResponse{
		Days:           make([]progressDayResponse, 0, len(summary.Days)),
		TasksCompleted: summary.TasksCompleted,
		PointsEarned:   summary.PointsEarned,
		WorkTime:       summary.WorkTime,
		RewardTime:     summary.RewardTime,
	}
	for _, day := range summary.Days {
		resp.Days = append(resp.Days, progressDayResponse{
			Date:           day.Date.Format("2006-01-02"),
			TasksCompleted: day.TasksCompleted,
			PointsEarned:   day.PointsEarned,
			WorkTime:       day.WorkTime,
			RewardTime:     day.RewardTime,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// parseDateParam はYYYY-MM-DD形式のクエリパラメータを解析する。空文字はゼロ値を返す。
func parseDateParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", value)
}
