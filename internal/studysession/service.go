// Package studysession はワーク/ごほうびタイマーセッションのドメインロジックを提供する。
// セッションの完了は日次進捗集計への時間加算を伴う。
package studysession

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/edisonsteele/firstwork/internal/model"
	"github.com/edisonsteele/firstwork/internal/repository"
)

// Service はタイマーセッションのサービス。
type Service struct {
	sessionRepo  repository.StudySessionRepository
	studentRepo  repository.StudentRepository
	progressRepo repository.ProgressRepository
}

// NewService はServiceを生成する。
func NewService(
	sessionRepo repository.StudySessionRepository,
	studentRepo repository.StudentRepository,
	progressRepo repository.ProgressRepository,
) *Service {
	return &Service{
		sessionRepo:  sessionRepo,
		studentRepo:  studentRepo,
		progressRepo: progressRepo,
	}
}

// StartParams はセッション開始のパラメータ。
type StartParams struct {
	StudentID string
	Type      model.SessionType
	// Duration は予定時間（分）。学習者設定のデフォルトを呼び出し側で解決して渡す。
	Duration int
	TaskID   *string
	RewardID *string
}

// Start は新しいタイマーセッションを開始する。
func (s *Service) Start(ctx context.Context, parentID string, params StartParams) (*model.StudySession, error) {
	if params.Type != model.SessionTypeWork && params.Type != model.SessionTypeReward {
		return nil, model.NewInvalidRequestError("typeの値が不正です")
	}
	if params.Duration < 1 {
		return nil, model.NewInvalidRequestError("durationは1以上である必要があります")
	}

	student, err := s.studentRepo.FindByID(ctx, params.StudentID)
	if err != nil {
		return nil, fmt.Errorf("学習者の取得に失敗しました: %w", err)
	}
	if student == nil || student.ParentID != parentID {
		return nil, model.NewStudentNotFoundError(params.StudentID)
	}

	now := time.Now()
	session := &model.StudySession{
		ID:        uuid.NewString(),
		StudentID: params.StudentID,
		ParentID:  parentID,
		Type:      params.Type,
		Status:    model.SessionStatusInProgress,
		Duration:  params.Duration,
		StartTime: now,
		TaskID:    params.TaskID,
		RewardID:  params.RewardID,
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("セッションの作成に失敗しました: %w", err)
	}
	return session, nil
}

// Complete はセッションを完了にし、実測時間を当日の進捗集計に加算する。
func (s *Service) Complete(ctx context.Context, parentID, sessionID string) (*model.StudySession, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("セッションの取得に失敗しました: %w", err)
	}
	if session == nil || session.ParentID != parentID {
		return nil, model.NewSessionNotFoundError(sessionID)
	}
	if session.Status == model.SessionStatusCompleted {
		return nil, model.NewSessionCompletedError()
	}

	now := time.Now()
	minutes := int(now.Sub(session.StartTime).Minutes())
	if minutes < 1 {
		minutes = 1
	}

	if err := s.sessionRepo.Complete(ctx, sessionID, now, minutes); err != nil {
		return nil, fmt.Errorf("セッションの更新に失敗しました: %w", err)
	}

	date := now.UTC().Truncate(24 * time.Hour)
	if err := s.progressRepo.AddSessionTime(ctx, session.StudentID, session.ParentID, date, session.Type, minutes); err != nil {
		slog.Error("progress update failed after session completion",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	session.Status = model.SessionStatusCompleted
	session.EndTime = &now
	session.Duration = minutes
	return session, nil
}

// List は学習者のセッション一覧を返す。
func (s *Service) List(ctx context.Context, parentID, studentID string) ([]*model.StudySession, error) {
	student, err := s.studentRepo.FindByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("学習者の取得に失敗しました: %w", err)
	}
	if student == nil || student.ParentID != parentID {
		return nil, model.NewStudentNotFoundError(studentID)
	}

	sessions, err := s.sessionRepo.ListByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("セッション一覧の取得に失敗しました: %w", err)
	}
	return sessions, nil
}
