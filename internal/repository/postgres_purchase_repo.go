package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/edisonsteele/firstwork/internal/model"
)

// PostgresPurchaseRepo はPostgreSQLを使用した購入リポジトリ。
type PostgresPurchaseRepo struct {
	db *sql.DB
}

// NewPostgresPurchaseRepo はPostgresPurchaseRepoを生成する。
func NewPostgresPurchaseRepo(db *sql.DB) *PostgresPurchaseRepo {
	return &PostgresPurchaseRepo{db: db}
}

// Create は購入を作成する。
func (r *PostgresPurchaseRepo) Create(ctx context.Context, p *model.Purchase) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO purchases (id, user_id, stripe_customer_id, stripe_subscription_id, plan, quantity, status, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.UserID, p.StripeCustomerID, p.StripeSubscriptionID, p.Plan, p.Quantity, p.Status, p.CreatedAt, p.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("購入の作成に失敗しました: %w", err)
	}
	return nil
}

// ListByUserID はユーザーの購入一覧を作成日時降順で返す。
func (r *PostgresPurchaseRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Purchase, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, stripe_customer_id, stripe_subscription_id, plan, quantity, status, created_at, expires_at
		 FROM purchases WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("購入一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var purchases []*model.Purchase
	for rows.Next() {
		p := &model.Purchase{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.StripeCustomerID, &p.StripeSubscriptionID, &p.Plan, &p.Quantity, &p.Status, &p.CreatedAt, &p.ExpiresAt); err != nil {
			return nil, fmt.Errorf("購入行の読み取りに失敗しました: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("購入一覧の走査に失敗しました: %w", err)
	}
	return purchases, nil
}

// CancelBySubscriptionID はサブスクリプションIDで一致した購入をcancelledに更新する。
// 一致しない場合は影響行数0を返す（エラーではない）。
func (r *PostgresPurchaseRepo) CancelBySubscriptionID(ctx context.Context, subscriptionID string, expiresAt time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE purchases SET status = $2, expires_at = $3
		 WHERE stripe_subscription_id = $1 AND status = $4`,
		subscriptionID, model.PurchaseStatusCancelled, expiresAt, model.PurchaseStatusActive,
	)
	if err != nil {
		return 0, fmt.Errorf("購入のキャンセル更新に失敗しました: %w", err)
	}
	return result.RowsAffected()
}

// ExpireCancelled は期限を過ぎたcancelled購入をexpiredに更新し、影響行数を返す。
func (r *PostgresPurchaseRepo) ExpireCancelled(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE purchases SET status = $1
		 WHERE status = $2 AND expires_at IS NOT NULL AND expires_at <= $3`,
		model.PurchaseStatusExpired, model.PurchaseStatusCancelled, now,
	)
	if err != nil {
		return 0, fmt.Errorf("期限切れ購入の更新に失敗しました: %w", err)
	}
	return result.RowsAffected()
}

// compile-time interface check
var _ PurchaseRepository = (*PostgresPurchaseRepo)(nil)
