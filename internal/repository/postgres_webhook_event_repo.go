package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = "23505"

// PostgresWebhookEventRepo はPostgreSQLを使用したWebhookイベント記録リポジトリ。
// event_idの一意制約によって再配送の重複適用を防ぐ。
type PostgresWebhookEventRepo struct {
	db *sql.DB
}

// NewPostgresWebhookEventRepo はPostgresWebhookEventRepoを生成する。
func NewPostgresWebhookEventRepo(db *sql.DB) *PostgresWebhookEventRepo {
	return &PostgresWebhookEventRepo{db: db}
}

// Record はイベントIDを記録する。すでに記録済みの場合はErrDuplicateEventを返す。
func (r *PostgresWebhookEventRepo) Record(ctx context.Context, eventID, eventType string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO webhook_events (id, event_id, event_type, received_at)
		 VALUES ($1, $2, $3, NOW())`,
		uuid.NewString(), eventID, eventType,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateEvent
		}
		return fmt.Errorf("Webhookイベントの記録に失敗しました: %w", err)
	}
	return nil
}

// Delete はイベントIDの記録を削除する。
func (r *PostgresWebhookEventRepo) Delete(ctx context.Context, eventID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM webhook_events WHERE event_id = $1`,
		eventID,
	)
	if err != nil {
		return fmt.Errorf("Webhookイベント記録の削除に失敗しました: %w", err)
	}
	return nil
}

// DeleteOlderThan は受信日時がcutoffより古い記録を削除し、削除件数を返す。
func (r *PostgresWebhookEventRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM webhook_events WHERE received_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("古いWebhookイベントの削除に失敗しました: %w", err)
	}
	return result.RowsAffected()
}

// compile-time interface check
var _ WebhookEventRepository = (*PostgresWebhookEventRepo)(nil)
