package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/edisonsteele/firstwork/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用した課題リポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// Create は課題を作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, t *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, student_id, parent_id, title, description, difficulty, category, status, points, created_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.StudentID, t.ParentID, t.Title, t.Description, t.Difficulty, t.Category, t.Status, t.Points, t.CreatedAt, t.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("課題の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの課題を取得する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	t := &model.Task{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, student_id, parent_id, title, description, difficulty, category, status, points, created_at, completed_at
		 FROM tasks WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.StudentID, &t.ParentID, &t.Title, &t.Description, &t.Difficulty, &t.Category, &t.Status, &t.Points, &t.CreatedAt, &t.CompletedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("課題の取得に失敗しました: %w", err)
	}

	return t, nil
}

// ListByStudentID は学習者の課題一覧を作成日時降順で返す。
func (r *PostgresTaskRepo) ListByStudentID(ctx context.Context, studentID string) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, student_id, parent_id, title, description, difficulty, category, status, points, created_at, completed_at
		 FROM tasks WHERE student_id = $1 ORDER BY created_at DESC`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("課題一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		t := &model.Task{}
		if err := rows.Scan(&t.ID, &t.StudentID, &t.ParentID, &t.Title, &t.Description, &t.Difficulty, &t.Category, &t.Status, &t.Points, &t.CreatedAt, &t.CompletedAt); err != nil {
			return nil, fmt.Errorf("課題行の読み取りに失敗しました: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("課題一覧の走査に失敗しました: %w", err)
	}
	return tasks, nil
}

// UpdateStatus は課題の状態を更新する。completedAtは完了時のみ非nil。
func (r *PostgresTaskRepo) UpdateStatus(ctx context.Context, id string, status model.TaskStatus, completedAt *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status = $2, completed_at = $3 WHERE id = $1`,
		id, status, completedAt,
	)
	if err != nil {
		return fmt.Errorf("課題状態の更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("課題が見つかりません: %s", id)
	}
	return nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
