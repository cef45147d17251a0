// Package referral は紹介プログラムのドメインロジックを提供する。
// 特典の受け取り、紹介コードの適用、紹介一覧の取得を担う。
package referral

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/edisonsteele/firstwork/internal/metrics"
	"github.com/edisonsteele/firstwork/internal/model"
	"github.com/edisonsteele/firstwork/internal/repository"
)

// Config はServiceの設定を保持する。
type Config struct {
	// DefaultDiscountPercent は割引率が未設定の紹介に適用する割引率。
	DefaultDiscountPercent int
	// RewardExpiryDays は発行した特典の有効日数。
	RewardExpiryDays int
}

// Service は紹介プログラムのサービス。
type Service struct {
	referralRepo repository.ReferralRepository
	rewardRepo   repository.ReferralRewardRepository
	tokenRepo    repository.AccessTokenRepository
	userRepo     repository.UserRepository
	studentRepo  repository.StudentRepository
	metrics      metrics.MetricsCollector
	config       Config
}

// NewService はServiceを生成する。
func NewService(
	referralRepo repository.ReferralRepository,
	rewardRepo repository.ReferralRewardRepository,
	tokenRepo repository.AccessTokenRepository,
	userRepo repository.UserRepository,
	studentRepo repository.StudentRepository,
	collector metrics.MetricsCollector,
	config Config,
) *Service {
	if config.DefaultDiscountPercent <= 0 {
		config.DefaultDiscountPercent = 10
	}
	if config.RewardExpiryDays <= 0 {
		config.RewardExpiryDays = 30
	}
	return &Service{
		referralRepo: referralRepo,
		rewardRepo:   rewardRepo,
		tokenRepo:    tokenRepo,
		userRepo:     userRepo,
		studentRepo:  studentRepo,
		metrics:      collector,
		config:       config,
	}
}

// ClaimReward は紹介特典を受け取り、発行した特典を返す。
// 受け取り済みフラグは条件付き更新で立てるため、同一紹介への
// 並行した受け取り要求のうち成功するのは1件だけとなる。
func (s *Service) ClaimReward(ctx context.Context, userID, referralID string) (*model.ReferralReward, error) {
	referral, err := s.referralRepo.FindByID(ctx, referralID)
	if err != nil {
		return nil, fmt.Errorf("紹介の取得に失敗しました: %w", err)
	}
	if referral == nil || referral.ReferrerID != userID {
		return nil, model.NewReferralNotFoundError(referralID)
	}
	if referral.RewardClaimed {
		return nil, model.NewRewardAlreadyClaimedError()
	}
	if referral.Status != model.ReferralStatusCompleted {
		return nil, model.NewReferralNotCompletedError()
	}

	// 先にフラグを立てる。負けた側はここで止まり、特典行は作られない
	claimed, err := s.referralRepo.ClaimReward(ctx, referralID)
	if err != nil {
		return nil, fmt.Errorf("受け取りフラグの更新に失敗しました: %w", err)
	}
	if !claimed {
		return nil, model.NewRewardAlreadyClaimedError()
	}

	now := time.Now()
	expiresAt := now.AddDate(0, 0, s.config.RewardExpiryDays)

	reward := &model.ReferralReward{
		ID:         uuid.NewString(),
		ReferralID: referralID,
		Type:       referral.RewardType,
		Status:     model.RewardStatusClaimed,
		CreatedAt:  now,
		ClaimedAt:  &now,
		ExpiresAt:  &expiresAt,
	}

	switch referral.RewardType {
	case model.RewardTypeSubscriptionDiscount:
		reward.Value = s.config.DefaultDiscountPercent
		if referral.RewardValue != nil && *referral.RewardValue > 0 {
			reward.Value = *referral.RewardValue
		}
	default:
		// アクセストークン特典。トークン1枚を発行する
		reward.Type = model.RewardTypeAccessToken
		reward.Value = 1
		token := &model.AccessToken{
			ID:        uuid.NewString(),
			Token:     uuid.NewString(),
			Status:    model.TokenStatusActive,
			CreatedAt: now,
			ExpiresAt: &expiresAt,
		}
		if err := s.tokenRepo.Create(ctx, token); err != nil {
			return nil, fmt.Errorf("アクセストークンの発行に失敗しました: %w", err)
		}
	}

	if err := s.rewardRepo.Create(ctx, reward); err != nil {
		return nil, fmt.Errorf("特典の発行に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordRewardClaim(string(reward.Type))
	}

	slog.Info("referral reward claimed",
		slog.String("referral_id", referralID),
		slog.String("user_id", userID),
		slog.String("reward_type", string(reward.Type)),
		slog.Int("reward_value", reward.Value),
	)
	return reward, nil
}

// ApplyCode は学習者の設定に紹介コードを保存する。
// コードは既存ユーザーのIDであることを検証する。
func (s *Service) ApplyCode(ctx context.Context, parentID, studentID, code string) error {
	if code == "" {
		return model.NewInvalidRequestError("referralCodeは必須です")
	}

	referrer, err := s.userRepo.FindByID(ctx, code)
	if err != nil {
		return fmt.Errorf("紹介コードの検証に失敗しました: %w", err)
	}
	if referrer == nil {
		return model.NewInvalidReferralCodeError()
	}
	if referrer.ID == parentID {
		// 自分自身のコードは適用できない
		return model.NewInvalidReferralCodeError()
	}

	student, err := s.studentRepo.FindByID(ctx, studentID)
	if err != nil {
		return fmt.Errorf("学習者の取得に失敗しました: %w", err)
	}
	if student == nil || student.ParentID != parentID {
		return model.NewStudentNotFoundError(studentID)
	}

	prefs := student.Preferences
	if prefs == nil {
		prefs = &model.StudentPreferences{}
	}
	prefs.ReferralCode = code

	if err := s.studentRepo.UpdatePreferences(ctx, studentID, prefs); err != nil {
		return fmt.Errorf("設定の更新に失敗しました: %w", err)
	}

	slog.Info("referral code applied",
		slog.String("student_id", studentID),
		slog.String("referrer_id", code),
	)
	return nil
}

// ListReferrals はユーザーが紹介者となっている紹介を新しい順に返す。
func (s *Service) ListReferrals(ctx context.Context, userID string) ([]*model.Referral, error) {
	referrals, err := s.referralRepo.ListByReferrerID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("紹介一覧の取得に失敗しました: %w", err)
	}
	return referrals, nil
}
