package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/edisonsteele/firstwork/internal/model"
)

// PostgresStudentRepo はPostgreSQLを使用した学習者リポジトリ。
type PostgresStudentRepo struct {
	db *sql.DB
}

// NewPostgresStudentRepo はPostgresStudentRepoを生成する。
func NewPostgresStudentRepo(db *sql.DB) *PostgresStudentRepo {
	return &PostgresStudentRepo{db: db}
}

// Create は学習者を作成する。
func (r *PostgresStudentRepo) Create(ctx context.Context, s *model.Student) error {
	prefs, err := marshalPreferences(s.Preferences)
	if err != nil {
		return err
	}
	var tokenID *string
	if s.AccessTokenID != "" {
		tokenID = &s.AccessTokenID
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO students (id, name, access_token_id, parent_id, preferences, created_at, last_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.Name, tokenID, s.ParentID, prefs, s.CreatedAt, s.LastActive,
	)
	if err != nil {
		return fmt.Errorf("学習者の作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの学習者を取得する。見つからない場合はnilを返す。
func (r *PostgresStudentRepo) FindByID(ctx context.Context, id string) (*model.Student, error) {
	s := &model.Student{}
	var tokenID sql.NullString
	var prefs []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, access_token_id, parent_id, preferences, created_at, last_active
		 FROM students WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Name, &tokenID, &s.ParentID, &prefs, &s.CreatedAt, &s.LastActive)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("学習者の取得に失敗しました: %w", err)
	}

	s.AccessTokenID = tokenID.String
	if s.Preferences, err = unmarshalPreferences(prefs); err != nil {
		return nil, err
	}
	return s, nil
}

// ListByParentID は保護者配下の学習者一覧を返す。
func (r *PostgresStudentRepo) ListByParentID(ctx context.Context, parentID string) ([]*model.Student, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, access_token_id, parent_id, preferences, created_at, last_active
		 FROM students WHERE parent_id = $1 ORDER BY created_at ASC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("学習者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var students []*model.Student
	for rows.Next() {
		s := &model.Student{}
		var tokenID sql.NullString
		var prefs []byte
		if err := rows.Scan(&s.ID, &s.Name, &tokenID, &s.ParentID, &prefs, &s.CreatedAt, &s.LastActive); err != nil {
			return nil, fmt.Errorf("学習者行の読み取りに失敗しました: %w", err)
		}
		s.AccessTokenID = tokenID.String
		if s.Preferences, err = unmarshalPreferences(prefs); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("学習者一覧の走査に失敗しました: %w", err)
	}
	return students, nil
}

// UpdatePreferences は学習者の設定を更新する。
func (r *PostgresStudentRepo) UpdatePreferences(ctx context.Context, id string, prefs *model.StudentPreferences) error {
	data, err := marshalPreferences(prefs)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE students SET preferences = $2 WHERE id = $1`,
		id, data,
	)
	if err != nil {
		return fmt.Errorf("学習者設定の更新に失敗しました: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("学習者が見つかりません: %s", id)
	}
	return nil
}

// marshalPreferences は設定をJSONBカラム向けにシリアライズする。nilはNULLとして格納する。
func marshalPreferences(prefs *model.StudentPreferences) ([]byte, error) {
	if prefs == nil {
		return nil, nil
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return nil, fmt.Errorf("学習者設定のシリアライズに失敗しました: %w", err)
	}
	return data, nil
}

// unmarshalPreferences はJSONBカラムの値を設定にデシリアライズする。NULLはnilを返す。
func unmarshalPreferences(data []byte) (*model.StudentPreferences, error) {
	if len(data) == 0 {
		return nil, nil
	}
	prefs := &model.StudentPreferences{}
	if err := json.Unmarshal(data, prefs); err != nil {
		return nil, fmt.Errorf("学習者設定のデシリアライズに失敗しました: %w", err)
	}
	return prefs, nil
}

// compile-time interface check
var _ StudentRepository = (*PostgresStudentRepo)(nil)
