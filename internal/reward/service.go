// Package reward はごほうびカタログのドメインロジックを提供する。
package reward

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edisonsteele/firstwork/internal/model"
	"github.com/edisonsteele/firstwork/internal/repository"
)

// Service はごほうびカタログのサービス。
type Service struct {
	rewardRepo  repository.RewardRepository
	studentRepo repository.StudentRepository
}

// NewService はServiceを生成する。
func NewService(rewardRepo repository.RewardRepository, studentRepo repository.StudentRepository) *Service {
	return &Service{
		rewardRepo:  rewardRepo,
		studentRepo: studentRepo,
	}
}

// CreateParams はごほうび作成のパラメータ。
type CreateParams struct {
	StudentID      string
	Name           string
	Description    string
	PointsRequired int
	Duration       int
	Type           model.RewardKind
}

// Create は学習者のごほうびを登録する。
func (s *Service) Create(ctx context.Context, parentID string, params CreateParams) (*model.Reward, error) {
	if params.Name == "" {
		return nil, model.NewInvalidRequestError("nameは必須です")
	}
	if !model.ValidRewardKind(params.Type) {
		return nil, model.NewInvalidRequestError("typeの値が不正です")
	}
	if params.PointsRequired < 0 {
		return nil, model.NewInvalidRequestError("pointsRequiredは0以上である必要があります")
	}

	student, err := s.studentRepo.FindByID(ctx, params.StudentID)
	if err != nil {
		return nil, fmt.Errorf("学習者の取得に失敗しました: %w", err)
	}
	if student == nil || student.ParentID != parentID {
		return nil, model.NewStudentNotFoundError(params.StudentID)
	}

	reward := &model.Reward{
		ID:             uuid.NewString(),
		StudentID:      params.StudentID,
		ParentID:       parentID,
		Name:           params.Name,
		Description:    params.Description,
		PointsRequired: params.PointsRequired,
		Duration:       params.Duration,
		Type:           params.Type,
		Status:         model.RewardCatalogStatusActive,
		CreatedAt:      time.Now(),
	}
	if err := s.rewardRepo.Create(ctx, reward); err != nil {
		return nil, fmt.Errorf("ごほうびの作成に失敗しました: %w", err)
	}
	return reward, nil
}

// List は学習者のごほうび一覧を返す。
func (s *Service) List(ctx context.Context, parentID, studentID string) ([]*model.Reward, error) {
	student, err := s.studentRepo.FindByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("学習者の取得に失敗しました: %w", err)
	}
	if student == nil || student.ParentID != parentID {
		return nil, model.NewStudentNotFoundError(studentID)
	}

	rewards, err := s.rewardRepo.ListByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("ごほうび一覧の取得に失敗しました: %w", err)
	}
	return rewards, nil
}

// Deactivate はごほうびを無効化する。
func (s *Service) Deactivate(ctx context.Context, parentID, rewardID string) error {
	reward, err := s.rewardRepo.FindByID(ctx, rewardID)
	if err != nil {
		return fmt.Errorf("ごほうびの取得に失敗しました: %w", err)
	}
	if reward == nil || reward.ParentID != parentID {
		return model.NewRewardNotFoundError(rewardID)
	}

	if err := s.rewardRepo.UpdateStatus(ctx, rewardID, model.RewardCatalogStatusInactive); err != nil {
		return fmt.Errorf("ごほうびの更新に失敗しました: %w", err)
	}
	return nil
}
