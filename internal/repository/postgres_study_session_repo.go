package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/edisonsteele/firstwork/internal/model"
)

// PostgresStudySessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresStudySessionRepo struct {
	db *sql.DB
}

// NewPostgresStudySessionRepo はPostgresStudySessionRepoを生成する。
func NewPostgresStudySessionRepo(db *sql.DB) *PostgresStudySessionRepo {
	return &PostgresStudySessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *PostgresStudySessionRepo) Create(ctx context.Context, s *model.StudySession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO study_sessions (id, student_id, parent_id, type, status, duration, start_time, end_time, task_id, reward_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.StudentID, s.ParentID, s.Type, s.Status, s.Duration, s.StartTime, s.EndTime, s.TaskID, s.RewardID, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("セッションの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
func (r *PostgresStudySessionRepo) FindByID(ctx context.Context, id string) (*model.StudySession, error) {
	s := &model.StudySession{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, student_id, parent_id, type, status, duration, start_time, end_time, task_id, reward_id, created_at
		 FROM study_sessions WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.StudentID, &s.ParentID, &s.Type, &s.Status, &s.Duration, &s.StartTime, &s.EndTime, &s.TaskID, &s.RewardID, &s.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("セッションの取得に失敗しました: %w", err)
	}

	return s, nil
}

// ListByStudentID は学習者のセッション一覧を開始時刻降順で返す。
func (r *PostgresStudySessionRepo) ListByStudentID(ctx context.Context, studentID string) ([]*model.StudySession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, student_id, parent_id, type, status, duration, start_time, end_time, task_id, reward_id, created_at
		 FROM study_sessions WHERE student_id = $1 ORDER BY start_time DESC`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("セッション一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var sessions []*model.StudySession
	for rows.Next() {
		s := &model.StudySession{}
		if err := rows.Scan(&s.ID, &s.StudentID, &s.ParentID, &s.Type, &s.Status, &s.Duration, &s.StartTime, &s.EndTime, &s.TaskID, &s.RewardID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("セッション行の読み取りに失敗しました: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("セッション一覧の走査に失敗しました: %w", err)
	}
	return sessions, nil
}

// Complete はセッションをcompletedに更新し、終了時刻と実測時間を記録する。
func (r *PostgresStudySessionRepo) Complete(ctx context.Context, id string, endTime time.Time, durationMinutes int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE study_sessions SET status = $2, end_time = $3, duration = $4 WHERE id = $1`,
		id, model.SessionStatusCompleted, endTime, durationMinutes,
	)
	if err != nil {
		return fmt.Errorf("セッション完了の更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("セッションが見つかりません: %s", id)
	}
	return nil
}

// compile-time interface check
var _ StudySessionRepository = (*PostgresStudySessionRepo)(nil)
