// Package student は学習者プロフィールのドメインロジックを提供する。
package student

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/edisonsteele/firstwork/internal/model"
	"github.com/edisonsteele/firstwork/internal/repository"
)

// Service は学習者プロフィールのサービス。
type Service struct {
	studentRepo repository.StudentRepository
	tokenRepo   repository.AccessTokenRepository
}

// NewService はServiceを生成する。
func NewService(studentRepo repository.StudentRepository, tokenRepo repository.AccessTokenRepository) *Service {
	return &Service{
		studentRepo: studentRepo,
		tokenRepo:   tokenRepo,
	}
}

// CreateParams は学習者作成のパラメータ。
type CreateParams struct {
	Name          string
	AccessTokenID string
	Preferences   *model.StudentPreferences
}

// Create はアクセストークンを消費して学習者を作成する。
// トークンの消費は条件付き更新のため、同一トークンで作成できる学習者は1人だけとなる。
func (s *Service) Create(ctx context.Context, parentID string, params CreateParams) (*model.Student, error) {
	if params.Name == "" {
		return nil, model.NewInvalidRequestError("nameは必須です")
	}
	if params.AccessTokenID == "" {
		return nil, model.NewInvalidRequestError("accessTokenIdは必須です")
	}

	token, err := s.tokenRepo.FindByID(ctx, params.AccessTokenID)
	if err != nil {
		return nil, fmt.Errorf("アクセストークンの取得に失敗しました: %w", err)
	}
	if token == nil || token.Status != model.TokenStatusActive {
		return nil, model.NewInvalidRequestError("アクセストークンが無効です")
	}

	now := time.Now()
	studentID := uuid.NewString()

	// 先にトークンを消費する。学習者行を先に作ると、消費に負けた場合に
	// トークンなしの学習者が一覧に残ってしまう
	used, err := s.tokenRepo.MarkUsed(ctx, params.AccessTokenID, studentID, now)
	if err != nil {
		return nil, fmt.Errorf("アクセストークンの消費に失敗しました: %w", err)
	}
	if !used {
		// 並行リクエストに先を越された
		return nil, model.NewInvalidRequestError("アクセストークンが無効です")
	}

	student := &model.Student{
		ID:            studentID,
		Name:          params.Name,
		AccessTokenID: params.AccessTokenID,
		ParentID:      parentID,
		Preferences:   params.Preferences,
		CreatedAt:     now,
	}
	if err := s.studentRepo.Create(ctx, student); err != nil {
		return nil, fmt.Errorf("学習者の作成に失敗しました: %w", err)
	}

	slog.Info("student created",
		slog.String("student_id", student.ID),
		slog.String("parent_id", parentID),
	)
	return student, nil
}

// Get は保護者配下の学習者を取得する。他の保護者の学習者は見つからない扱いとする。
func (s *Service) Get(ctx context.Context, parentID, studentID string) (*model.Student, error) {
	student, err := s.studentRepo.FindByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("学習者の取得に失敗しました: %w", err)
	}
	if student == nil || student.ParentID != parentID {
		return nil, model.NewStudentNotFoundError(studentID)
	}
	return student, nil
}

// List は保護者配下の学習者一覧を返す。
func (s *Service) List(ctx context.Context, parentID string) ([]*model.Student, error) {
	students, err := s.studentRepo.ListByParentID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("学習者一覧の取得に失敗しました: %w", err)
	}
	return students, nil
}

// UpdatePreferences は学習者の設定を更新する。
func (s *Service) UpdatePreferences(ctx context.Context, parentID, studentID string, prefs *model.StudentPreferences) error {
	if prefs == nil {
		return model.NewInvalidRequestError("preferencesは必須です")
	}

	student, err := s.studentRepo.FindByID(ctx, studentID)
	if err != nil {
		return fmt.Errorf("学習者の取得に失敗しました: %w", err)
	}
	if student == nil || student.ParentID != parentID {
		return model.NewStudentNotFoundError(studentID)
	}

	// 紹介コードは別経路（apply-code）で設定するため、既存値を保持する
	if student.Preferences != nil && prefs.ReferralCode == "" {
		prefs.ReferralCode = student.Preferences.ReferralCode
	}

	if err := s.studentRepo.UpdatePreferences(ctx, studentID, prefs); err != nil {
		return fmt.Errorf("設定の更新に失敗しました: %w", err)
	}
	return nil
}
