package studysession

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/edisonsteele/firstwork/internal/model"
)

// --- モック ---

type mockSessionRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.StudySession, error)
	completeFn func(ctx context.Context, id string, endTime time.Time, durationMinutes int) error
	created    []*model.StudySession
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.StudySession) error {
	m.created = append(m.created, session)
	return nil
}
func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.StudySession, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockSessionRepo) ListByStudentID(ctx context.Context, studentID string) ([]*model.StudySession, error) {
	return nil, nil
}
func (m *mockSessionRepo) Complete(ctx context.Context, id string, endTime time.Time, durationMinutes int) error {
	if m.completeFn != nil {
		return m.completeFn(ctx, id, endTime, durationMinutes)
	}
	return nil
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

type mockProgressRepo struct {
	sessionTimes []struct {
		sessionType model.SessionType
		minutes     int
	}
	addSessionTimeFn func(ctx context.Context, studentID, parentID string, date time.Time, sessionType model.SessionType, minutes int) error
}

func (m *mockProgressRepo) AddTaskCompletion(ctx context.Context, studentID, parentID string, date time.Time, points int) error {
	return nil
}
func (m *mockProgressRepo) AddSessionTime(ctx context.Context, studentID, parentID string, date time.Time, sessionType model.SessionType, minutes int) error {
	m.sessionTimes = append(m.sessionTimes, struct {
		sessionType model.SessionType
		minutes     int
	}{sessionType, minutes})
	if m.addSessionTimeFn != nil {
		return m.addSessionTimeFn(ctx, studentID, parentID, date, sessionType, minutes)
	}
	return nil
}
func (m *mockProgressRepo) ListByStudentID(ctx context.Context, studentID string, from, to time.Time) ([]*model.Progress, error) {
	return nil, nil
}

// --- テスト ---

// TestStart はセッション開始の成功パスを検証する。
func TestStart(t *testing.T) {
	sessionRepo := &mockSessionRepo{}
	s := NewService(sessionRepo, &mockStudentRepo{parentID: "parent-1"}, &mockProgressRepo{})

	taskID := "task-1"
	session, err := s.Start(context.Background(), "parent-1", StartParams{
		StudentID: "student-1",
		Type:      model.SessionTypeWork,
		Duration:  20,
		TaskID:    &taskID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if session.Status != model.SessionStatusInProgress {
		t.Errorf("expected status in_progress, got %s", session.Status)
	}
	if session.Duration != 20 || session.TaskID == nil || *session.TaskID != "task-1" {
		t.Errorf("unexpected session: %+v", session)
	}
	if len(sessionRepo.created) != 1 {
		t.Errorf("expected 1 session created, got %d", len(sessionRepo.created))
	}
}

// TestStart_Validation はセッション開始のバリデーションを検証する。
func TestStart_Validation(t *testing.T) {
	s := NewService(&mockSessionRepo{}, &mockStudentRepo{parentID: "parent-1"}, &mockProgressRepo{})

	cases := []struct {
		name   string
		params StartParams
	}{
		{"種別不正", StartParams{StudentID: "student-1", Type: "nap", Duration: 20}},
		{"時間不正", StartParams{StudentID: "student-1", Type: model.SessionTypeWork, Duration: 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Start(context.Background(), "parent-1", tc.params)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRequest {
				t.Fatalf("expected INVALID_REQUEST, got: %v", err)
			}
		})
	}
}

// TestComplete はセッション完了と実測時間の進捗加算を検証する。
func TestComplete(t *testing.T) {
	start := time.Now().Add(-25 * time.Minute)
	var gotMinutes int
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.StudySession, error) {
			return &model.StudySession{
				ID:        id,
				StudentID: "student-1",
				ParentID:  "parent-1",
				Type:      model.SessionTypeWork,
				Status:    model.SessionStatusInProgress,
				Duration:  20,
				StartTime: start,
			}, nil
		},
		completeFn: func(ctx context.Context, id string, endTime time.Time, durationMinutes int) error {
			gotMinutes = durationMinutes
			return nil
		},
	}
	progressRepo := &mockProgressRepo{}
	s := NewService(sessionRepo, &mockStudentRepo{parentID: "parent-1"}, progressRepo)

	session, err := s.Complete(context.Background(), "parent-1", "session-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 予定20分ではなく実測25分が記録される
	if gotMinutes != 25 {
		t.Errorf("expected 25 measured minutes, got %d", gotMinutes)
	}
	if session.Status != model.SessionStatusCompleted || session.EndTime == nil {
		t.Errorf("unexpected session: %+v", session)
	}
	if len(progressRepo.sessionTimes) != 1 {
		t.Fatalf("expected 1 progress write, got %d", len(progressRepo.sessionTimes))
	}
	if progressRepo.sessionTimes[0].sessionType != model.SessionTypeWork || progressRepo.sessionTimes[0].minutes != 25 {
		t.Errorf("unexpected progress write: %+v", progressRepo.sessionTimes[0])
	}
}

// TestComplete_MinimumOneMinute は1分未満のセッションが1分として記録されることを検証する。
func TestComplete_MinimumOneMinute(t *testing.T) {
	var gotMinutes int
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.StudySession, error) {
			return &model.StudySession{
				ID:        id,
				ParentID:  "parent-1",
				Type:      model.SessionTypeReward,
				Status:    model.SessionStatusInProgress,
				StartTime: time.Now().Add(-10 * time.Second),
			}, nil
		},
		completeFn: func(ctx context.Context, id string, endTime time.Time, durationMinutes int) error {
			gotMinutes = durationMinutes
			return nil
		},
	}
	s := NewService(sessionRepo, &mockStudentRepo{parentID: "parent-1"}, &mockProgressRepo{})

	if _, err := s.Complete(context.Background(), "parent-1", "session-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMinutes != 1 {
		t.Errorf("expected minimum 1 minute, got %d", gotMinutes)
	}
}

// TestComplete_AlreadyCompleted は完了済みセッションの再完了拒否を検証する。
func TestComplete_AlreadyCompleted(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.StudySession, error) {
			return &model.StudySession{ID: id, ParentID: "parent-1", Status: model.SessionStatusCompleted}, nil
		},
	}
	s := NewService(sessionRepo, &mockStudentRepo{parentID: "parent-1"}, &mockProgressRepo{})

	_, err := s.Complete(context.Background(), "parent-1", "session-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeSessionCompleted {
		t.Fatalf("expected SESSION_COMPLETED, got: %v", err)
	}
}

// TestComplete_ProgressFailureTolerated は進捗加算の失敗がセッション完了を妨げないことを検証する。
func TestComplete_ProgressFailureTolerated(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.StudySession, error) {
			return &model.StudySession{
				ID:        id,
				ParentID:  "parent-1",
				Type:      model.SessionTypeWork,
				Status:    model.SessionStatusInProgress,
				StartTime: time.Now().Add(-5 * time.Minute),
			}, nil
		},
	}
	progressRepo := &mockProgressRepo{
		addSessionTimeFn: func(ctx context.Context, studentID, parentID string, date time.Time, sessionType model.SessionType, minutes int) error {
			return errors.New("connection reset")
		},
	}
	s := NewService(sessionRepo, &mockStudentRepo{parentID: "parent-1"}, progressRepo)

	session, err := s.Complete(context.Background(), "parent-1", "session-1")
	if err != nil {
		t.Fatalf("expected completion to succeed despite progress failure: %v", err)
	}
	if session.Status != model.SessionStatusCompleted {
		t.Errorf("expected status completed, got %s", session.Status)
	}
}

// TestComplete_OtherParentsSession は他の保護者のセッションが見つからない扱いになることを検証する。
func TestComplete_OtherParentsSession(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.StudySession, error) {
			return &model.StudySession{ID: id, ParentID: "other-parent", Status: model.SessionStatusInProgress}, nil
		},
	}
	s := NewService(sessionRepo, &mockStudentRepo{parentID: "parent-1"}, &mockProgressRepo{})

	_, err := s.Complete(context.Background(), "parent-1", "session-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeSessionNotFound {
		t.Fatalf("expected SESSION_NOT_FOUND, got: %v", err)
	}
}
