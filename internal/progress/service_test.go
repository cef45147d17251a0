package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/edisonsteele/firstwork/internal/model"
)

// --- モック ---

type mockProgressRepo struct {
	listFn  func(ctx context.Context, studentID string, from, to time.Time) ([]*model.Progress, error)
	gotFrom time.Time
	gotTo   time.Time
}

func (m *mockProgressRepo) AddTaskCompletion(ctx context.Context, studentID, parentID string, date time.Time, points int) error {
	return nil
}
func (m *mockProgressRepo) AddSessionTime(ctx context.Context, studentID, parentID string, date time.Time, sessionType model.SessionType, minutes int) error {
	return nil
}
func (m *mockProgressRepo) ListByStudentID(ctx context.Context, studentID string, from, to time.Time) ([]*model.Progress, error) {
	m.gotFrom = from
	m.gotTo = to
	if m.listFn != nil {
		return m.listFn(ctx, studentID, from, to)
	}
	return nil, nil
}

type mockStudentRepo struct {
	parentID string
}

func (m *mockStudentRepo) Create(ctx context.Context, student *model.Student) error { return nil }
func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*model.Student, error) {
	return &model.Student{ID: id, ParentID: m.parentID}, nil
}
func (m *mockStudentRepo) ListByParentID(ctx context.Context, parentID string) ([]*model.Student, error) {
	return nil, nil
}
func (m *mockStudentRepo) UpdatePreferences(ctx context.Context, id string, prefs *model.StudentPreferences) error {
	return nil
}

// --- テスト ---

// TestGetSummary は日次進捗行の取得と合計計算を検証する。
func TestGetSummary(t *testing.T) {
	day1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	progressRepo := &mockProgressRepo{
		listFn: func(ctx context.Context, studentID string, from, to time.Time) ([]*model.Progress, error) {
			return []*model.Progress{
				{Date: day1, TasksCompleted: 2, PointsEarned: 4, WorkTime: 40, RewardTime: 20},
				{Date: day2, TasksCompleted: 1, PointsEarned: 3, WorkTime: 25, RewardTime: 10},
			}, nil
		},
	}
	s := NewService(progressRepo, &mockStudentRepo{parentID: "parent-1"})

	summary, err := s.GetSummary(context.Background(), "parent-1", "student-1", day1, day2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(summary.Days) != 2 {
		t.Errorf("expected 2 days, got %d", len(summary.Days))
	}
	if summary.TasksCompleted != 3 || summary.PointsEarned != 7 {
		t.Errorf("unexpected task totals: %d tasks, %d points", summary.TasksCompleted, summary.PointsEarned)
	}
	if summary.WorkTime != 65 || summary.RewardTime != 30 {
		t.Errorf("unexpected time totals: work %d, reward %d", summary.WorkTime, summary.RewardTime)
	}
}

// TestGetSummary_DefaultRange は範囲未指定時に直近7日間が使われることを検証する。
func TestGetSummary_DefaultRange(t *testing.T) {
	progressRepo := &mockProgressRepo{}
	s := NewService(progressRepo, &mockStudentRepo{parentID: "parent-1"})

	if _, err := s.GetSummary(context.Background(), "parent-1", "student-1", time.Time{}, time.Time{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if !progressRepo.gotTo.Equal(today) {
		t.Errorf("expected to = %v, got %v", today, progressRepo.gotTo)
	}
	if !progressRepo.gotFrom.Equal(today.AddDate(0, 0, -6)) {
		t.Errorf("expected from = %v, got %v", today.AddDate(0, 0, -6), progressRepo.gotFrom)
	}
}

// TestGetSummary_InvalidRange はfromがtoより後の場合のエラーを検証する。
func TestGetSummary_InvalidRange(t *testing.T) {
	s := NewService(&mockProgressRepo{}, &mockStudentRepo{parentID: "parent-1"})

	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)

	_, err := s.GetSummary(context.Background(), "parent-1", "student-1", from, to)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRequest {
		t.Fatalf("expected INVALID_REQUEST, got: %v", err)
	}
}

// TestGetSummary_OtherParentsStudent は他の保護者の学習者が見つからない扱いになることを検証する。
func TestGetSummary_OtherParentsStudent(t *testing.T) {
	s := NewService(&mockProgressRepo{}, &mockStudentRepo{parentID: "other-parent"})

	_, err := s.GetSummary(context.Background(), "parent-1", "student-1", time.Time{}, time.Time{})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeStudentNotFound {
		t.Fatalf("expected STUDENT_NOT_FOUND, got: %v", err)
	}
}
