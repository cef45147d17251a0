package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/edisonsteele/firstwork/internal/model"
)

// PostgresAccessTokenRepo はPostgreSQLを使用したアクセストークンリポジトリ。
type PostgresAccessTokenRepo struct {
	db *sql.DB
}

// NewPostgresAccessTokenRepo はPostgresAccessTokenRepoを生成する。
func NewPostgresAccessTokenRepo(db *sql.DB) *PostgresAccessTokenRepo {
	return &PostgresAccessTokenRepo{db: db}
}

// Create はアクセストークンを作成する。
func (r *PostgresAccessTokenRepo) Create(ctx context.Context, token *model.AccessToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_tokens (id, token, status, created_at, used_at, expires_at, student_id, purchase_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		token.ID, token.Token, token.Status, token.CreatedAt, token.UsedAt, token.ExpiresAt, token.StudentID, token.PurchaseID,
	)
	if err != nil {
		return fmt.Errorf("アクセストークンの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのトークンを取得する。見つからない場合はnilを返す。
func (r *PostgresAccessTokenRepo) FindByID(ctx context.Context, id string) (*model.AccessToken, error) {
	token := &model.AccessToken{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, token, status, created_at, used_at, expires_at, student_id, purchase_id
		 FROM access_tokens WHERE id = $1`,
		id,
	).Scan(&token.ID, &token.Token, &token.Status, &token.CreatedAt, &token.UsedAt, &token.ExpiresAt, &token.StudentID, &token.PurchaseID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("アクセストークンの取得に失敗しました: %w", err)
	}

	return token, nil
}

// MarkUsed はactiveなトークンに限りusedへ条件付き更新し、利用先の学習者IDを記録する。
func (r *PostgresAccessTokenRepo) MarkUsed(ctx context.Context, id, studentID string, usedAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE access_tokens SET status = $1, used_at = $2, student_id = $3
		 WHERE id = $4 AND status = $5`,
		model.TokenStatusUsed, usedAt, studentID, id, model.TokenStatusActive,
	)
	if err != nil {
		return false, fmt.Errorf("アクセストークンの更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("アクセストークンの更新結果の取得に失敗しました: %w", err)
	}
	return affected == 1, nil
}

// ExpireOverdue は期限を過ぎたactiveトークンをexpiredに更新し、影響行数を返す。
func (r *PostgresAccessTokenRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE access_tokens SET status = $1
		 WHERE status = $2 AND expires_at IS NOT NULL AND expires_at <= $3`,
		model.TokenStatusExpired, model.TokenStatusActive, now,
	)
	if err != nil {
		return 0, fmt.Errorf("期限切れトークンの更新に失敗しました: %w", err)
	}
	return result.RowsAffected()
}

// compile-time interface check
var _ AccessTokenRepository = (*PostgresAccessTokenRepo)(nil)
