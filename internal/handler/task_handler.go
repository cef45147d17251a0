package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edisonsteele/firstwork/internal/middleware"
	"github.com/edisonsteele/firstwork/internal/model"
	"github.com/edisonsteele/firstwork/internal/task"
)

// TaskServiceInterface は課題ハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	Create(ctx context.Context, parentID string, params task.CreateParams) (*model.Task, error)
	List(ctx context.Context, parentID, studentID string) ([]*model.Task, error)
	Start(ctx context.Context, parentID, taskID string) error
	Complete(ctx context.Context, parentID, taskID string) (*model.Task, error)
}

// TaskHandler は課題管理のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{
		service: service,
	}
}

// taskResponse は課題情報のAPIレスポンス。
type taskResponse struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"student_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Difficulty  string     `json:"difficulty"`
	Category    string     `json:"category"`
	Status      string     `json:"status"`
	Points      int        `json:"points"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// createTaskRequest は課題作成リクエストのボディ。
type createTaskRequest struct {
	StudentID   string `json:"student_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	Category    string `json:"category"`
}

// CreateTask は学習者に課題を割り当てる。
// POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	created, err := h.service.Create(r.Context(), userID, task.CreateParams{
		StudentID:   req.StudentID,
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  model.TaskDifficulty(req.Difficulty),
		Category:    model.TaskCategory(req.Category),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toTaskResponse(created))
}

// ListTasks は学習者の課題一覧を取得する。
// GET /api/students/{id}/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	studentID := chi.URLParam(r, "id")

	tasks, err := h.service.List(r.Context(), userID, studentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, toTaskResponse(t))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// StartTask は課題を進行中にする。
// POST /api/tasks/{id}/start
func (h *TaskHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	taskID := chi.URLParam(r, "id")

	if err := h.service.Start(r.Context(), userID, taskID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CompleteTask は課題を完了にする。完了時にポイントが進捗集計へ加算される。
// POST /api/tasks/{id}/complete
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	taskID := chi.URLParam(r, "id")

	completed, err := h.service.Complete(r.Context(), userID, taskID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTaskResponse(completed))
}

// toTaskResponse はmodel.TaskからAPIレスポンスに変換する。
func toTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		StudentID:   t.StudentID,
		Title:       t.Title,
		Description: t.Description,
		Difficulty:  string(t.Difficulty),
		Category:    string(t.Category),
		Status:      string(t.Status),
		Points:      t.Points,
		CreatedAt:   t.CreatedAt,
		CompletedAt: t.CompletedAt,
	}
}
