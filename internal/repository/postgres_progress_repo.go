package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edisonsteele/firstwork/internal/model"
)

// PostgresProgressRepo はPostgreSQLを使用した日次進捗リポジトリ。
// (student_id, date)の一意制約を利用したUPSERTで加算する。
type PostgresProgressRepo struct {
	db *sql.DB
}

// NewPostgresProgressRepo はPostgresProgressRepoを生成する。
func NewPostgresProgressRepo(db *sql.DB) *PostgresProgressRepo {
	return &PostgresProgressRepo{db: db}
}

// AddTaskCompletion は指定日の進捗行に課題完了1件とポイントを加算する。
func (r *PostgresProgressRepo) AddTaskCompletion(ctx context.Context, studentID, parentID string, date time.Time, points int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO progress (id, student_id, parent_id, date, tasks_completed, points_earned, work_time, reward_time)
		 VALUES ($1, $2, $3, $4, 1, $5, 0, 0)
		 ON CONFLICT (student_id, date) DO UPDATE SET
		   tasks_completed = progress.tasks_completed + 1,
		   points_earned = progress.points_earned + EXCLUDED.points_earned`,
		uuid.NewString(), studentID, parentID, date, points,
	)
	if err != nil {
		return fmt.Errorf("進捗（課題完了）の加算に失敗しました: %w", err)
	}
	return nil
}

// AddSessionTime は指定日の進捗行にワークまたはごほうびの時間（分）を加算する。
func (r *PostgresProgressRepo) AddSessionTime(ctx context.Context, studentID, parentID string, date time.Time, sessionType model.SessionType, minutes int) error {
	var query string
	switch sessionType {
	case model.SessionTypeWork:
		query = `INSERT INTO progress (id, student_id, parent_id, date, tasks_completed, points_earned, work_time, reward_time)
		 VALUES ($1, $2, $3, $4, 0, 0, $5, 0)
		 ON CONFLICT (student_id, date) DO UPDATE SET
		   work_time = progress.work_time + EXCLUDED.work_time`
	case model.SessionTypeReward:
		query = `INSERT INTO progress (id, student_id, parent_id, date, tasks_completed, points_earned, work_time, reward_time)
		 VALUES ($1, $2, $3, $4, 0, 0, 0, $5)
		 ON CONFLICT (student_id, date) DO UPDATE SET
		   reward_time = progress.reward_time + EXCLUDED.reward_time`
	default:
		return fmt.Errorf("無効なセッション種別です: %s", sessionType)
	}

	_, err := r.db.ExecContext(ctx, query, uuid.NewString(), studentID, parentID, date, minutes)
	if err != nil {
		return fmt.Errorf("進捗（セッション時間）の加算に失敗しました: %w", err)
	}
	return nil
}

// ListByStudentID は学習者の進捗行を日付範囲で取得する。
func (r *PostgresProgressRepo) ListByStudentID(ctx context.Context, studentID string, from, to time.Time) ([]*model.Progress, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, student_id, parent_id, date, tasks_completed, points_earned, work_time, reward_time
		 FROM progress WHERE student_id = $1 AND date >= $2 AND date <= $3 ORDER BY date ASC`,
		studentID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("進捗一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var progresses []*model.Progress
	for rows.Next() {
		p := &model.Progress{}
		if err := rows.Scan(&p.ID, &p.StudentID, &p.ParentID, &p.Date, &p.TasksCompleted, &p.PointsEarned, &p.WorkTime, &p.RewardTime); err != nil {
			return nil, fmt.Errorf("進捗行の読み取りに失敗しました: %w", err)
		}
		progresses = append(progresses, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("進捗一覧の走査に失敗しました: %w", err)
	}
	return progresses, nil
}

// compile-time interface check
var _ ProgressRepository = (*PostgresProgressRepo)(nil)
