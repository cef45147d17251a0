package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edisonsteele/firstwork/internal/middleware"
	"github.com/edisonsteele/firstwork/internal/model"
	"github.com/edisonsteele/firstwork/internal/student"
)

// StudentServiceInterface は学習者ハンドラーが必要とするサービスインターフェース。
type StudentServiceInterface interface {
	Create(ctx context.Context, parentID string, params student.CreateParams) (*model.Student, error)
	Get(ctx context.Context, parentID, studentID string) (*model.Student, error)
	List(ctx context.Context, parentID string) ([]*model.Student, error)
	UpdatePreferences(ctx context.Context, parentID, studentID string, prefs *model.StudentPreferences) error
}

// StudentHandler は学習者管理のHTTPハンドラー。
type StudentHandler struct {
	service StudentServiceInterface
}

// NewStudentHandler はStudentHandlerを生成する。
func NewStudentHandler(service StudentServiceInterface) *StudentHandler {
	return &StudentHandler{
		service: service,
	}
}

// studentResponse は学習者情報のAPIレスポンス。
type studentResponse struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"`
	Preferences *model.StudentPreferences `json:"preferences,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
	LastActive  *time.Time                `json:"last_active,omitempty"`
}

// createStudentRequest は学習者作成リクエストのボディ。
type createStudentRequest struct {
	Name          string                    `json:"name"`
	AccessTokenID string                    `json:"access_token_id"`
	Preferences   *model.StudentPreferences `json:"preferences,omitempty"`
}

// CreateStudent はアクセストークンを消費して学習者を作成する。
// POST /api/students
func (h *StudentHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	created, err := h.service.Create(r.Context(), userID, student.CreateParams{
		Name:          req.Name,
		AccessTokenID: req.AccessTokenID,
		Preferences:   req.Preferences,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toStudentResponse(created))
}

// GetStudent は学習者詳細を取得する。
// GET /api/students/{id}
func (h *StudentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	studentID := chi.URLParam(r, "id")

	found, err := h.service.Get(r.Context(), userID, studentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toStudentResponse(found))
}

// ListStudents は保護者配下の学習者一覧を取得する。
// GET /api/students
func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	students, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]studentResponse, 0, len(students))
	for _, s := range students {
		resp = append(resp, toStudentResponse(s))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// UpdatePreferences は学習者の設定を更新する。
// PUT /api/students/{id}/preferences
func (h *StudentHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	studentID := chi.URLParam(r, "id")

	var prefs model.StudentPreferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	if err := h.service.UpdatePreferences(r.Context(), userID, studentID, &prefs); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toStudentResponse はmodel.StudentからAPIレスポンスに変換する。
func toStudentResponse(s *model.Student) studentResponse {
	return studentResponse{
		ID:          s.ID,
		Name:        s.Name,
		Preferences: s.Preferences,
		CreatedAt:   s.CreatedAt,
		LastActive:  s.LastActive,
	}
}
