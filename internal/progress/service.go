// Package progress は日次進捗集計の読み取りロジックを提供する。
// 集計行への書き込みは課題完了とセッション完了が行う。
package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/edisonsteele/firstwork/internal/model"
	"github.com/edisonsteele/firstwork/internal/repository"
)

// Service は進捗集計のサービス。
type Service struct {
	progressRepo repository.ProgressRepository
	studentRepo  repository.StudentRepository
}

// NewService はServiceを生成する。
func NewService(progressRepo repository.ProgressRepository, studentRepo repository.StudentRepository) *Service {
	return &Service{
		progressRepo: progressRepo,
		studentRepo:  studentRepo,
	}
}

// Summary は日付範囲の進捗行とその合計を表す。
type Summary struct {
	Days           []*model.Progress
	TasksCompleted int
	PointsEarned   int
	WorkTime       int
	RewardTime     int
}

// GetSummary は学習者の進捗を日付範囲で取得し合計を付けて返す。
// fromとtoがゼロ値の場合は直近7日間を対象とする。
func (s *Service) GetSummary(ctx context.Context, parentID, studentID string, from, to time.Time) (*Summary, error) {
	student, err := s.studentRepo.FindByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("学習者の取得に失敗しました: %w", err)
	}
	if student == nil || student.ParentID != parentID {
		return nil, model.NewStudentNotFoundError(studentID)
	}

	if to.IsZero() {
		to = time.Now().UTC().Truncate(24 * time.Hour)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -6)
	}
	if from.After(to) {
		return nil, model.NewInvalidRequestError("fromはto以前の日付である必要があります")
	}

	days, err := s.progressRepo.ListByStudentID(ctx, studentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("進捗の取得に失敗しました: %w", err)
	}

	summary := &Summary{Days: days}
	for _, day := range days {
		summary.TasksCompleted += day.TasksCompleted
		summary.PointsEarned += day.PointsEarned
		summary.WorkTime += day.WorkTime
		summary.RewardTime += day.RewardTime
	}
	return summary, nil
}
