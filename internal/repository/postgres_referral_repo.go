package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/edisonsteele/firstwork/internal/model"
)

// PostgresReferralRepo はPostgreSQLを使用した紹介リポジトリ。
type PostgresReferralRepo struct {
	db *sql.DB
}

// NewPostgresReferralRepo はPostgresReferralRepoを生成する。
func NewPostgresReferralRepo(db *sql.DB) *PostgresReferralRepo {
	return &PostgresReferralRepo{db: db}
}

// Create は紹介を作成する。
func (r *PostgresReferralRepo) Create(ctx context.Context, ref *model.Referral) error {
	var purchaseID *string
	if ref.PurchaseID != "" {
		purchaseID = &ref.PurchaseID
	}
	var rewardType *string
	if ref.RewardType != "" {
		rt := string(ref.RewardType)
		rewardType = &rt
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO referrals (id, referrer_id, referred_email, purchase_id, status, created_at, completed_at, reward_claimed, reward_type, reward_value)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		ref.ID, ref.ReferrerID, ref.ReferredEmail, purchaseID, ref.Status, ref.CreatedAt, ref.CompletedAt, ref.RewardClaimed, rewardType, ref.RewardValue,
	)
	if err != nil {
		return fmt.Errorf("紹介の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの紹介を取得する。見つからない場合はnilを返す。
func (r *PostgresReferralRepo) FindByID(ctx context.Context, id string) (*model.Referral, error) {
	ref := &model.Referral{}
	var purchaseID, rewardType sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, referrer_id, referred_email, purchase_id, status, created_at, completed_at, reward_claimed, reward_type, reward_value
		 FROM referrals WHERE id = $1`,
		id,
	).Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredEmail, &purchaseID, &ref.Status, &ref.CreatedAt, &ref.CompletedAt, &ref.RewardClaimed, &rewardType, &ref.RewardValue)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("紹介の取得に失敗しました: %w", err)
	}

	ref.PurchaseID = purchaseID.String
	ref.RewardType = model.RewardType(rewardType.String)
	return ref, nil
}

// ListByReferrerID は紹介者の紹介一覧を作成日時降順で返す。
func (r *PostgresReferralRepo) ListByReferrerID(ctx context.Context, referrerID string) ([]*model.Referral, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, referrer_id, referred_email, purchase_id, status, created_at, completed_at, reward_claimed, reward_type, reward_value
		 FROM referrals WHERE referrer_id = $1 ORDER BY created_at DESC`,
		referrerID,
	)
	if err != nil {
		return nil, fmt.Errorf("紹介一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var refs []*model.Referral
	for rows.Next() {
		ref := &model.Referral{}
		var purchaseID, rewardType sql.NullString
		if err := rows.Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredEmail, &purchaseID, &ref.Status, &ref.CreatedAt, &ref.CompletedAt, &ref.RewardClaimed, &rewardType, &ref.RewardValue); err != nil {
			return nil, fmt.Errorf("紹介行の読み取りに失敗しました: %w", err)
		}
		ref.PurchaseID = purchaseID.String
		ref.RewardType = model.RewardType(rewardType.String)
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("紹介一覧の走査に失敗しました: %w", err)
	}
	return refs, nil
}

// ClaimReward はreward_claimed=falseの場合に限りtrueへ条件付き更新する。
// 影響行数で成否を判定するため、並行する請求のうち1件だけが成功する。
func (r *PostgresReferralRepo) ClaimReward(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE referrals SET reward_claimed = TRUE
		 WHERE id = $1 AND reward_claimed = FALSE`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("特典請求フラグの更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	return affected == 1, nil
}

// PostgresReferralRewardRepo はPostgreSQLを使用した紹介特典リポジトリ。
type PostgresReferralRewardRepo struct {
	db *sql.DB
}

// NewPostgresReferralRewardRepo はPostgresReferralRewardRepoを生成する。
func NewPostgresReferralRewardRepo(db *sql.DB) *PostgresReferralRewardRepo {
	return &PostgresReferralRewardRepo{db: db}
}

// Create は紹介特典を作成する。
func (r *PostgresReferralRewardRepo) Create(ctx context.Context, reward *model.ReferralReward) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO referral_rewards (id, referral_id, type, value, status, created_at, claimed_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		reward.ID, reward.ReferralID, reward.Type, reward.Value, reward.Status, reward.CreatedAt, reward.ClaimedAt, reward.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("紹介特典の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByReferralID は指定紹介の特典を取得する。見つからない場合はnilを返す。
func (r *PostgresReferralRewardRepo) FindByReferralID(ctx context.Context, referralID string) (*model.ReferralReward, error) {
	reward := &model.ReferralReward{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, referral_id, type, value, status, created_at, claimed_at, expires_at
		 FROM referral_rewards WHERE referral_id = $1`,
		referralID,
	).Scan(&reward.ID, &reward.ReferralID, &reward.Type, &reward.Value, &reward.Status, &reward.CreatedAt, &reward.ClaimedAt, &reward.ExpiresAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("紹介特典の取得に失敗しました: %w", err)
	}

	return reward, nil
}

// ExpireOverdue は期限を過ぎた特典をexpiredに更新し、影響行数を返す。
func (r *PostgresReferralRewardRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE referral_rewards SET status = $1
		 WHERE status = $2 AND expires_at IS NOT NULL AND expires_at <= $3`,
		model.RewardStatusExpired, model.RewardStatusClaimed, now,
	)
	if err != nil {
		return 0, fmt.Errorf("期限切れ特典の更新に失敗しました: %w", err)
	}
	return result.RowsAffected()
}

// compile-time interface check
var (
	_ ReferralRepository       = (*PostgresReferralRepo)(nil)
	_ ReferralRewardRepository = (*PostgresReferralRewardRepo)(nil)
)
