package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/edisonsteele/firstwork/internal/model"
)

// PostgresRewardRepo はPostgreSQLを使用したごほうびカタログリポジトリ。
type PostgresRewardRepo struct {
	db *sql.DB
}

// NewPostgresRewardRepo はPostgresRewardRepoを生成する。
func NewPostgresRewardRepo(db *sql.DB) *PostgresRewardRepo {
	return &PostgresRewardRepo{db: db}
}

// Create はごほうびを作成する。
func (r *PostgresRewardRepo) Create(ctx context.Context, reward *model.Reward) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rewards (id, student_id, parent_id, name, description, points_required, duration, type, status, created_at, used_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		reward.ID, reward.StudentID, reward.ParentID, reward.Name, reward.Description, reward.PointsRequired, reward.Duration, reward.Type, reward.Status, reward.CreatedAt, reward.UsedAt,
	)
	if err != nil {
		return fmt.Errorf("ごほうびの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのごほうびを取得する。見つからない場合はnilを返す。
func (r *PostgresRewardRepo) FindByID(ctx context.Context, id string) (*model.Reward, error) {
	reward := &model.Reward{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, student_id, parent_id, name, description, points_required, duration, type, status, created_at, used_at
		 FROM rewards WHERE id = $1`,
		id,
	).Scan(&reward.ID, &reward.StudentID, &reward.ParentID, &reward.Name, &reward.Description, &reward.PointsRequired, &reward.Duration, &reward.Type, &reward.Status, &reward.CreatedAt, &reward.UsedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ごほうびの取得に失敗しました: %w", err)
	}

	return reward, nil
}

// ListByStudentID は学習者のごほうび一覧を返す。
func (r *PostgresRewardRepo) ListByStudentID(ctx context.Context, studentID string) ([]*model.Reward, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, student_id, parent_id, name, description, points_required, duration, type, status, created_at, used_at
		 FROM rewards WHERE student_id = $1 ORDER BY created_at ASC`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("ごほうび一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var rewards []*model.Reward
	for rows.Next() {
		reward := &model.Reward{}
		if err := rows.Scan(&reward.ID, &reward.StudentID, &reward.ParentID, &reward.Name, &reward.Description, &reward.PointsRequired, &reward.Duration, &reward.Type, &reward.Status, &reward.CreatedAt, &reward.UsedAt); err != nil {
			return nil, fmt.Errorf("ごほうび行の読み取りに失敗しました: %w", err)
		}
		rewards = append(rewards, reward)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ごほうび一覧の走査に失敗しました: %w", err)
	}
	return rewards, nil
}

// UpdateStatus はごほうびの有効状態を更新する。
func (r *PostgresRewardRepo) UpdateStatus(ctx context.Context, id string, status model.RewardCatalogStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE rewards SET status = $2 WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return fmt.Errorf("ごほうび状態の更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("ごほうびが見つかりません: %s", id)
	}
	return nil
}

// compile-time interface check
var _ RewardRepository = (*PostgresRewardRepo)(nil)
