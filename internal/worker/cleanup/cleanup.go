// Package cleanup は期限切れデータの自動整理ジョブを提供する。
// 期限を過ぎたアクセストークン・紹介特典・キャンセル済み購入の状態遷移と、
// 期限切れセッション・古いWebhookイベント記録の削除を日次バッチで行う。
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/edisonsteele/firstwork/internal/repository"
)

// CleanupJob は期限切れデータの整理ジョブ。
// 日次実行のバッチジョブとして設計されており、すべてのステップは冪等。
type CleanupJob struct {
	tokenRepo    repository.AccessTokenRepository
	rewardRepo   repository.ReferralRewardRepository
	purchaseRepo repository.PurchaseRepository
	sessionRepo  repository.SessionRepository
	eventRepo    repository.WebhookEventRepository
	logger       *slog.Logger

	// EventRetentionDays はWebhookイベント記録の保持日数（デフォルト: 90）。
	// 冪等化ウィンドウを兼ねるため、ゲートウェイの再送期間より十分長くとる。
	EventRetentionDays int
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(
	tokenRepo repository.AccessTokenRepository,
	rewardRepo repository.ReferralRewardRepository,
	purchaseRepo repository.PurchaseRepository,
	sessionRepo repository.SessionRepository,
	eventRepo repository.WebhookEventRepository,
	logger *slog.Logger,
) *CleanupJob {
	return &CleanupJob{
		tokenRepo:          tokenRepo,
		rewardRepo:         rewardRepo,
		purchaseRepo:       purchaseRepo,
		sessionRepo:        sessionRepo,
		eventRepo:          eventRepo,
		logger:             logger,
		EventRetentionDays: 90,
	}
}

// Run は全整理ステップを順番に実行する。
// 1ステップの失敗は記録した上で残りのステップを続行する。
// すべてのステップが失敗した場合でもエラーは返さない（次回実行に委ねる）。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	now := time.Now()

	expiredTokens, err := j.tokenRepo.ExpireOverdue(ctx, now)
	if err != nil {
		j.logger.Error("期限切れトークンの整理に失敗しました", slog.String("error", err.Error()))
	}

	expiredRewards, err := j.rewardRepo.ExpireOverdue(ctx, now)
	if err != nil {
		j.logger.Error("期限切れ特典の整理に失敗しました", slog.String("error", err.Error()))
	}

	expiredPurchases, err := j.purchaseRepo.ExpireCancelled(ctx, now)
	if err != nil {
		j.logger.Error("キャンセル済み購入の整理に失敗しました", slog.String("error", err.Error()))
	}

	deletedSessions, err := j.sessionRepo.DeleteExpired(ctx, now)
	if err != nil {
		j.logger.Error("期限切れセッションの削除に失敗しました", slog.String("error", err.Error()))
	}

	cutoff := now.AddDate(0, 0, -j.EventRetentionDays)
	deletedEvents, err := j.eventRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("Webhookイベント記録の削除に失敗しました", slog.String("error", err.Error()))
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("expired_tokens", expiredTokens),
		slog.Int64("expired_rewards", expiredRewards),
		slog.Int64("expired_purchases", expiredPurchases),
		slog.Int64("deleted_sessions", deletedSessions),
		slog.Int64("deleted_events", deletedEvents),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
