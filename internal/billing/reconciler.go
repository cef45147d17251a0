// Package billing は決済ゲートウェイのイベントをドメイン状態へ反映する。
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/edisonsteele/firstwork/internal/metrics"
	"github.com/edisonsteele/firstwork/internal/model"
	"github.com/edisonsteele/firstwork/internal/payment"
	"github.com/edisonsteele/firstwork/internal/repository"
)

// ErrMissingUserID はチェックアウト完了イベントにuserIdメタデータが
// 含まれていないことを示す。ゲートウェイの再送を促すため5xxで応答する。
var ErrMissingUserID = errors.New("checkout event has no user ID in metadata")

// ReconcilerConfig はReconcilerの設定を保持する。
type ReconcilerConfig struct {
	WebhookSecret      string
	SignatureTolerance time.Duration
	// ReferralInitialStatus はWebhookが作成する紹介行の初期状態。
	ReferralInitialStatus model.ReferralStatus
	// PlanForPrice は価格IDをプランに解決する。
	PlanForPrice func(priceID string) model.Plan
}

// Reconciler は署名付きWebhookイベントを検証し、
// イベント種別ごとのドメイン書き込みへ変換するサービス。
// イベントIDの一意記録により再配送を冪等にスキップする。
// 処理に失敗した配信は記録を解放してから5xxを返すため、
// ゲートウェイの再送が重複扱いで捨てられることはない。
type Reconciler struct {
	eventRepo    repository.WebhookEventRepository
	purchaseRepo repository.PurchaseRepository
	referralRepo repository.ReferralRepository
	metrics      metrics.MetricsCollector
	config       ReconcilerConfig
}

// NewReconciler はReconcilerを生成する。collectorはnilでもよい。
func NewReconciler(
	eventRepo repository.WebhookEventRepository,
	purchaseRepo repository.PurchaseRepository,
	referralRepo repository.ReferralRepository,
	collector metrics.MetricsCollector,
	config ReconcilerConfig,
) *Reconciler {
	if config.PlanForPrice == nil {
		config.PlanForPrice = func(string) model.Plan { return model.PlanSingle }
	}
	if config.ReferralInitialStatus == "" {
		config.ReferralInitialStatus = model.ReferralStatusCompleted
	}
	return &Reconciler{
		eventRepo:    eventRepo,
		purchaseRepo: purchaseRepo,
		referralRepo: referralRepo,
		metrics:      collector,
		config:       config,
	}
}

// Process は1件のWebhook配信を処理する。
// 署名検証に失敗した場合はpayment.ErrInvalidSignatureを返し、
// ドメイン書き込みは一切行わない。処理中の失敗はエラーとして返し、
// ゲートウェイの再送ポリシーに委ねる。
func (s *Reconciler) Process(ctx context.Context, payload []byte, signatureHeader string) error {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordWebhookLatency(time.Since(start))
		}
	}()

	// 1. 真正性の検証。未検証ペイロードはここより先に進めない
	if err := payment.VerifySignature(payload, signatureHeader, s.config.WebhookSecret, s.config.SignatureTolerance, time.Now()); err != nil {
		if s.metrics != nil {
			s.metrics.RecordWebhookSignatureFailure()
		}
		return err
	}

	event, err := payment.ParseEvent(payload)
	if err != nil {
		// 署名済みだが解析不能なボディ。再送されても成功しないため4xx扱い
		return fmt.Errorf("%w: %v", payment.ErrInvalidSignature, err)
	}

	// 2. 冪等化。同一イベントIDの再配送は成功済みとして受理する
	if event.ID != "" {
		if err := s.eventRepo.Record(ctx, event.ID, event.Type); err != nil {
			if errors.Is(err, repository.ErrDuplicateEvent) {
				if s.metrics != nil {
					s.metrics.RecordWebhookDuplicate()
				}
				slog.Info("duplicate webhook delivery skipped",
					slog.String("event_id", event.ID),
					slog.String("event_type", event.Type),
				)
				return nil
			}
			return fmt.Errorf("イベント記録に失敗しました: %w", err)
		}
	}

	// 3. 種別ごとのディスパッチ。未知の種別は受理して無視する
	switch event.Type {
	case payment.EventCheckoutCompleted:
		err = s.handleCheckoutCompleted(ctx, event)
	case payment.EventSubscriptionDeleted:
		err = s.handleSubscriptionDeleted(ctx, event)
	default:
		slog.Info("ignoring unhandled webhook event type",
			slog.String("event_type", event.Type),
		)
		return nil
	}

	if err != nil {
		// 記録したままエラーを返すと、再送が重複として受理されて
		// ドメイン書き込みが永久に失われる。先に記録を解放する
		s.releaseEventRecord(ctx, event)
		if s.metrics != nil {
			s.metrics.RecordWebhookFailure(event.Type)
		}
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordWebhookEvent(event.Type)
	}
	return nil
}

// releaseEventRecord は処理に失敗した配信のイベントID記録を削除する。
// 削除自体の失敗はログに残すのみとし、元の処理エラーを優先して返させる。
func (s *Reconciler) releaseEventRecord(ctx context.Context, event *payment.Event) {
	if event.ID == "" {
		return
	}
	if err := s.eventRepo.Delete(ctx, event.ID); err != nil {
		slog.Error("failed to release webhook event record",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.Type),
			slog.String("error", err.Error()),
		)
	}
}

// handleCheckoutCompleted はチェックアウト完了を購入行（と必要なら紹介行）に変換する。
func (s *Reconciler) handleCheckoutCompleted(ctx context.Context, event *payment.Event) error {
	obj := event.Data.Object

	userID := obj.Metadata["userId"]
	if userID == "" {
		return ErrMissingUserID
	}

	now := time.Now()
	purchase := &model.Purchase{
		ID:                   uuid.NewString(),
		UserID:               userID,
		StripeCustomerID:     obj.Customer,
		StripeSubscriptionID: obj.Subscription,
		Plan:                 s.config.PlanForPrice(obj.Metadata["priceId"]),
		Quantity:             quantityFromMetadata(obj.Metadata),
		Status:               model.PurchaseStatusActive,
		CreatedAt:            now,
	}
	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		return fmt.Errorf("購入の反映に失敗しました: %w", err)
	}

	slog.Info("purchase created from checkout event",
		slog.String("purchase_id", purchase.ID),
		slog.String("user_id", userID),
		slog.String("plan", string(purchase.Plan)),
	)

	referrerID := obj.Metadata["referrerId"]
	if referrerID == "" {
		return nil
	}

	rewardValue := 1
	referral := &model.Referral{
		ID:            uuid.NewString(),
		ReferrerID:    referrerID,
		ReferredEmail: obj.CustomerEmail,
		PurchaseID:    purchase.ID,
		Status:        s.config.ReferralInitialStatus,
		CreatedAt:     now,
		RewardClaimed: false,
		RewardType:    model.RewardTypeAccessToken,
		RewardValue:   &rewardValue,
	}
	if referral.Status == model.ReferralStatusCompleted {
		referral.CompletedAt = &now
	}
	if err := s.referralRepo.Create(ctx, referral); err != nil {
		return fmt.Errorf("紹介の反映に失敗しました: %w", err)
	}

	slog.Info("referral created from checkout event",
		slog.String("referral_id", referral.ID),
		slog.String("referrer_id", referrerID),
		slog.String("purchase_id", purchase.ID),
	)
	return nil
}

// handleSubscriptionDeleted は解約イベントで該当購入をcancelledに更新する。
// 一致する購入が存在しない場合は意図的な何もしない成功（順序乱れや重複配信への耐性）。
func (s *Reconciler) handleSubscriptionDeleted(ctx context.Context, event *payment.Event) error {
	obj := event.Data.Object

	expiresAt := time.Now()
	if obj.CancelAt > 0 {
		expiresAt = time.Unix(obj.CancelAt, 0)
	}

	affected, err := s.purchaseRepo.CancelBySubscriptionID(ctx, obj.ID, expiresAt)
	if err != nil {
		return fmt.Errorf("購入のキャンセル反映に失敗しました: %w", err)
	}
	if affected == 0 {
		slog.Info("subscription deletion matched no purchase",
			slog.String("subscription_id", obj.ID),
		)
	}
	return nil
}

// quantityFromMetadata はメタデータから数量を取り出す。不正値・欠落は1にフォールバックする。
func quantityFromMetadata(metadata map[string]string) int {
	v := metadata["quantity"]
	if v == "" {
		return 1
	}
	q, err := strconv.Atoi(v)
	if err != nil || q < 1 {
		return 1
	}
	return q
}
