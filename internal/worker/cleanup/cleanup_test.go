package cleanup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/edisonsteele/firstwork/internal/model"
)

// --- モック ---

type mockTokenRepo struct {
	expireFn func(ctx context.Context, now time.Time) (int64, error)
	calls    int
}

func (m *mockTokenRepo) Create(ctx context.Context, token *model.AccessToken) error { return nil }
func (m *mockTokenRepo) FindByID(ctx context.Context, id string) (*model.AccessToken, error) {
	return nil, nil
}
func (m *mockTokenRepo) MarkUsed(ctx context.Context, id, studentID string, usedAt time.Time) (bool, error) {
	return false, nil
}
func (m *mockTokenRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	m.calls++
	if m.expireFn != nil {
		return m.expireFn(ctx, now)
	}
	return 2, nil
}

type mockRewardRepo struct {
	calls int
}

func (m *mockRewardRepo) Create(ctx context.Context, reward *model.ReferralReward) error { return nil }
func (m *mockRewardRepo) FindByReferralID(ctx context.Context, referralID string) (*model.ReferralReward, error) {
	return nil, nil
}
func (m *mockRewardRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	m.calls++
	return 1, nil
}

type mockPurchaseRepo struct {
	calls int
}

func (m *mockPurchaseRepo) Create(ctx context.Context, purchase *model.Purchase) error { return nil }
func (m *mockPurchaseRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Purchase, error) {
	return nil, nil
}
func (m *mockPurchaseRepo) CancelBySubscriptionID(ctx context.Context, subscriptionID string, expiresAt time.Time) (int64, error) {
	return 0, nil
}
func (m *mockPurchaseRepo) ExpireCancelled(ctx context.Context, now time.Time) (int64, error) {
	m.calls++
	return 3, nil
}

type mockSessionRepo struct {
	calls int
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return nil, nil
}
func (m *mockSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.calls++
	return 5, nil
}

type mockEventRepo struct {
	gotCutoff time.Time
	calls     int
}

func (m *mockEventRepo) Record(ctx context.Context, eventID, eventType string) error { return nil }
func (m *mockEventRepo) Delete(ctx context.Context, eventID string) error            { return nil }
func (m *mockEventRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.calls++
	m.gotCutoff = cutoff
	return 10, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// --- テスト ---

// TestRun は全ステップが実行されることを検証する。
func TestRun(t *testing.T) {
	tokenRepo := &mockTokenRepo{}
	rewardRepo := &mockRewardRepo{}
	purchaseRepo := &mockPurchaseRepo{}
	sessionRepo := &mockSessionRepo{}
	eventRepo := &mockEventRepo{}

	job := NewCleanupJob(tokenRepo, rewardRepo, purchaseRepo, sessionRepo, eventRepo, discardLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tokenRepo.calls != 1 || rewardRepo.calls != 1 || purchaseRepo.calls != 1 ||
		sessionRepo.calls != 1 || eventRepo.calls != 1 {
		t.Errorf("expected each step to run once, got: %d %d %d %d %d",
			tokenRepo.calls, rewardRepo.calls, purchaseRepo.calls, sessionRepo.calls, eventRepo.calls)
	}
}

// TestRun_EventRetention は保持日数からカットオフ日時が計算されることを検証する。
func TestRun_EventRetention(t *testing.T) {
	eventRepo := &mockEventRepo{}
	job := NewCleanupJob(&mockTokenRepo{}, &mockRewardRepo{}, &mockPurchaseRepo{}, &mockSessionRepo{}, eventRepo, discardLogger())
	job.EventRetentionDays = 30

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Now().AddDate(0, 0, -30)
	if diff := eventRepo.gotCutoff.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("unexpected cutoff: %v (want around %v)", eventRepo.gotCutoff, want)
	}
}

// TestRun_ContinuesAfterFailure は1ステップの失敗が残りを止めないことを検証する。
func TestRun_ContinuesAfterFailure(t *testing.T) {
	tokenRepo := &mockTokenRepo{
		expireFn: func(ctx context.Context, now time.Time) (int64, error) {
			return 0, errors.New("deadlock detected")
		},
	}
	rewardRepo := &mockRewardRepo{}
	eventRepo := &mockEventRepo{}

	job := NewCleanupJob(tokenRepo, rewardRepo, &mockPurchaseRepo{}, &mockSessionRepo{}, eventRepo, discardLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("expected nil error even on step failure, got: %v", err)
	}
	if rewardRepo.calls != 1 || eventRepo.calls != 1 {
		t.Error("expected remaining steps to run after failure")
	}
}
