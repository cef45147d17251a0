package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/edisonsteele/firstwork/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}

	return user, nil
}

// PostgresSessionRepo はPostgreSQLを使用したWebセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
func (r *PostgresSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	session := &model.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at, created_at
		 FROM sessions WHERE id = $1 AND expires_at > NOW()`,
		id,
	).Scan(&session.ID, &session.UserID, &session.ExpiresAt, &session.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("セッションの取得に失敗しました: %w", err)
	}

	return session, nil
}

// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
func (r *PostgresSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("期限切れセッションの削除に失敗しました: %w", err)
	}
	return result.RowsAffected()
}

// compile-time interface check
var (
	_ UserRepository    = (*PostgresUserRepo)(nil)
	_ SessionRepository = (*PostgresSessionRepo)(nil)
)
