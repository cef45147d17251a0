// Package task は課題のドメインロジックを提供する。
// 課題の完了は日次進捗集計への加算を伴う。
package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/edisonsteele/firstwork/internal/model"
	"github.com/edisonsteele/firstwork/internal/repository"
)

// 難易度ごとの獲得ポイント。
const (
	pointsEasy   = 1
	pointsMedium = 2
	pointsHard   = 3
)

// Service は課題のサービス。
type Service struct {
	taskRepo     repository.TaskRepository
	studentRepo  repository.StudentRepository
	progressRepo repository.ProgressRepository
}

// NewService はServiceを生成する。
func NewService(
	taskRepo repository.TaskRepository,
	studentRepo repository.StudentRepository,
	progressRepo repository.ProgressRepository,
) *Service {
	return &Service{
		taskRepo:     taskRepo,
		studentRepo:  studentRepo,
		progressRepo: progressRepo,
	}
}

// CreateParams は課題作成のパラメータ。
type CreateParams struct {
	StudentID   string
	Title       string
	Description string
	Difficulty  model.TaskDifficulty
	Category    model.TaskCategory
}

// Create は学習者に課題を割り当てる。ポイントは難易度から決まる。
func (s *Service) Create(ctx context.Context, parentID string, params CreateParams) (*model.Task, error) {
	if params.Title == "" {
		return nil, model.NewInvalidRequestError("titleは必須です")
	}
	if !model.ValidTaskDifficulty(params.Difficulty) {
		return nil, model.NewInvalidRequestError("difficultyの値が不正です")
	}
	if !model.ValidTaskCategory(params.Category) {
		return nil, model.NewInvalidRequestError("categoryの値が不正です")
	}

	student, err := s.studentRepo.FindByID(ctx, params.StudentID)
	if err != nil {
		return nil, fmt.Errorf("学習者の取得に失敗しました: %w", err)
	}
	if student == nil || student.ParentID != parentID {
		return nil, model.NewStudentNotFoundError(params.StudentID)
	}

	task := &model.Task{
		ID:          uuid.NewString(),
		StudentID:   params.StudentID,
		ParentID:    parentID,
		Title:       params.Title,
		Description: params.Description,
		Difficulty:  params.Difficulty,
		Category:    params.Category,
		Status:      model.TaskStatusPending,
		Points:      PointsForDifficulty(params.Difficulty),
		CreatedAt:   time.Now(),
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("課題の作成に失敗しました: %w", err)
	}
	return task, nil
}

// List は学習者の課題一覧を返す。
func (s *Service) List(ctx context.Context, parentID, studentID string) ([]*model.Task, error) {
	student, err := s.studentRepo.FindByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("学習者の取得に失敗しました: %w", err)
	}
	if student == nil || student.ParentID != parentID {
		return nil, model.NewStudentNotFoundError(studentID)
	}

	tasks, err := s.taskRepo.ListByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("課題一覧の取得に失敗しました: %w", err)
	}
	return tasks, nil
}

// Start は課題を進行中に更新する。
func (s *Service) Start(ctx context.Context, parentID, taskID string) error {
	task, err := s.findOwned(ctx, parentID, taskID)
	if err != nil {
		return err
	}
	if task.Status == model.TaskStatusCompleted {
		return model.NewTaskAlreadyCompletedError()
	}
	if err := s.taskRepo.UpdateStatus(ctx, taskID, model.TaskStatusInProgress, nil); err != nil {
		return fmt.Errorf("課題の更新に失敗しました: %w", err)
	}
	return nil
}

// Complete は課題を完了にし、当日の進捗集計にポイントを加算する。
func (s *Service) Complete(ctx context.Context, parentID, taskID string) (*model.Task, error) {
	task, err := s.findOwned(ctx, parentID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == model.TaskStatusCompleted {
		return nil, model.NewTaskAlreadyCompletedError()
	}

	now := time.Now()
	if err := s.taskRepo.UpdateStatus(ctx, taskID, model.TaskStatusCompleted, &now); err != nil {
		return nil, fmt.Errorf("課題の更新に失敗しました: %w", err)
	}

	date := now.UTC().Truncate(24 * time.Hour)
	if err := s.progressRepo.AddTaskCompletion(ctx, task.StudentID, task.ParentID, date, task.Points); err != nil {
		// 課題自体は完了済み。集計の失敗は記録して完了を返す
		slog.Error("progress update failed after task completion",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()),
		)
	}

	task.Status = model.TaskStatusCompleted
	task.CompletedAt = &now
	return task, nil
}

func (s *Service) findOwned(ctx context.Context, parentID, taskID string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("課題の取得に失敗しました: %w", err)
	}
	if task == nil || task.ParentID != parentID {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	return task, nil
}

// PointsForDifficulty は難易度に応じた獲得ポイントを返す。
func PointsForDifficulty(d model.TaskDifficulty) int {
	switch d {
	case model.TaskDifficultyHard:
		return pointsHard
	case model.TaskDifficultyMedium:
		return pointsMedium
	default:
		return pointsEasy
	}
}
