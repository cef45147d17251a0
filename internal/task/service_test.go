package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/edisonsteele/firstwork/internal/model"
)

// --- モック ---

type mockTaskRepo struct {
	findByIDFn     func(ctx context.Context, id string) (*model.Task, error)
	updateStatusFn func(ctx context.Context, id string, status model.TaskStatus, completedAt *time.Time) error
	created        []*model.Task
}

func (m *mockTaskRepo) Create(ctx context.Context, task *model.Task) error {
	m.created = append(m.created, task)
	return nil
}
func (m *mockTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockTaskRepo) ListByStudentID(ctx context.Context, studentID string) ([]*model.Task, error) {
	return nil, nil
}
func (m *mockTaskRepo) UpdateStatus(ctx context.Context, id string, status model.TaskStatus, completedAt *time.Time) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status, completedAt)
	}
	return nil
}

type mockStudentRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Student, error)
}

func (m *mockStudentRepo) Create(ctx context.Context, student *model.Student) error { return nil }
func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*model.Student, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockStudentRepo) ListByParentID(ctx context.Context, parentID string) ([]*model.Student, error) {
	return nil, nil
}
func (m *mockStudentRepo) UpdatePreferences(ctx context.Context, id string, prefs *model.StudentPreferences) error {
	return nil
}

type mockProgressRepo struct {
	taskCompletions []int
}

func (m *mockProgressRepo) AddTaskCompletion(ctx context.Context, studentID, parentID string, date time.Time, points int) error {
	m.taskCompletions = append(m.taskCompletions, points)
	return nil
}
func (m *mockProgressRepo) AddSessionTime(ctx context.Context, studentID, parentID string, date time.Time, sessionType model.SessionType, minutes int) error {
	return nil
}
func (m *mockProgressRepo) ListByStudentID(ctx context.Context, studentID string, from, to time.Time) ([]*model.Progress, error) {
	return nil, nil
}

func ownedStudent(parentID string) *mockStudentRepo {
	return &mockStudentRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Student, error) {
			return &model.Student{ID: id, ParentID: parentID}, nil
		},
	}
}

// --- テスト ---

// TestCreate は課題作成と難易度に応じたポイント設定を検証する。
func TestCreate(t *testing.T) {
	taskRepo := &mockTaskRepo{}
	s := NewService(taskRepo, ownedStudent("parent-1"), &mockProgressRepo{})

	created, err := s.Create(context.Background(), "parent-1", CreateParams{
		StudentID:  "student-1",
		Title:      "漢字ドリル1ページ",
		Difficulty: model.TaskDifficultyHard,
		Category:   model.TaskCategoryAcademic,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.Status != model.TaskStatusPending {
		t.Errorf("expected status pending, got %s", created.Status)
	}
	if created.Points != 3 {
		t.Errorf("expected 3 points for hard task, got %d", created.Points)
	}
	if len(taskRepo.created) != 1 {
		t.Errorf("expected 1 task created, got %d", len(taskRepo.created))
	}
}

// TestCreate_Validation は課題作成のバリデーションを検証する。
func TestCreate_Validation(t *testing.T) {
	s := NewService(&mockTaskRepo{}, ownedStudent("parent-1"), &mockProgressRepo{})

	cases := []struct {
		name   string
		params CreateParams
	}{
		{"タイトル欠落", CreateParams{StudentID: "student-1", Difficulty: model.TaskDifficultyEasy, Category: model.TaskCategoryAcademic}},
		{"難易度不正", CreateParams{StudentID: "student-1", Title: "t", Difficulty: "impossible", Category: model.TaskCategoryAcademic}},
		{"分類不正", CreateParams{StudentID: "student-1", Title: "t", Difficulty: model.TaskDifficultyEasy, Category: "chores"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Create(context.Background(), "parent-1", tc.params)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRequest {
				t.Fatalf("expected INVALID_REQUEST, got: %v", err)
			}
		})
	}
}

// TestComplete は課題完了と進捗集計への加算を検証する。
func TestComplete(t *testing.T) {
	var gotStatus model.TaskStatus
	taskRepo := &mockTaskRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Task, error) {
			return &model.Task{
				ID:        id,
				StudentID: "student-1",
				ParentID:  "parent-1",
				Status:    model.TaskStatusInProgress,
				Points:    2,
			}, nil
		},
		updateStatusFn: func(ctx context.Context, id string, status model.TaskStatus, completedAt *time.Time) error {
			gotStatus = status
			if completedAt == nil {
				t.Error("expected completed_at to be set")
			}
			return nil
		},
	}
	progressRepo := &mockProgressRepo{}
	s := NewService(taskRepo, ownedStudent("parent-1"), progressRepo)

	completed, err := s.Complete(context.Background(), "parent-1", "task-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotStatus != model.TaskStatusCompleted {
		t.Errorf("expected status completed, got %s", gotStatus)
	}
	if completed.CompletedAt == nil {
		t.Error("expected completed_at on returned task")
	}
	if len(progressRepo.taskCompletions) != 1 || progressRepo.taskCompletions[0] != 2 {
		t.Errorf("expected 2 points added to progress, got %v", progressRepo.taskCompletions)
	}
}

// TestComplete_AlreadyCompleted は完了済み課題の再完了拒否を検証する。
func TestComplete_AlreadyCompleted(t *testing.T) {
	taskRepo := &mockTaskRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Task, error) {
			return &model.Task{ID: id, ParentID: "parent-1", Status: model.TaskStatusCompleted}, nil
		},
	}
	progressRepo := &mockProgressRepo{}
	s := NewService(taskRepo, ownedStudent("parent-1"), progressRepo)

	_, err := s.Complete(context.Background(), "parent-1", "task-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTaskAlreadyCompleted {
		t.Fatalf("expected TASK_ALREADY_COMPLETED, got: %v", err)
	}
	if len(progressRepo.taskCompletions) != 0 {
		t.Error("expected no progress writes")
	}
}

// TestComplete_OtherParentsTask は他の保護者の課題が見つからない扱いになることを検証する。
func TestComplete_OtherParentsTask(t *testing.T) {
	taskRepo := &mockTaskRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Task, error) {
			return &model.Task{ID: id, ParentID: "other-parent", Status: model.TaskStatusPending}, nil
		},
	}
	s := NewService(taskRepo, ownedStudent("parent-1"), &mockProgressRepo{})

	_, err := s.Complete(context.Background(), "parent-1", "task-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTaskNotFound {
		t.Fatalf("expected TASK_NOT_FOUND, got: %v", err)
	}
}

// TestPointsForDifficulty は難易度とポイントの対応を検証する。
func TestPointsForDifficulty(t *testing.T) {
	cases := []struct {
		difficulty model.TaskDifficulty
		want       int
	}{
		{model.TaskDifficultyEasy, 1},
		{model.TaskDifficultyMedium, 2},
		{model.TaskDifficultyHard, 3},
	}
	for _, tc := range cases {
		if got := PointsForDifficulty(tc.difficulty); got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.difficulty, tc.want, got)
		}
	}
}
