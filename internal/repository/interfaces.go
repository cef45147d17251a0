// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/edisonsteele/firstwork/internal/model"
)

// ErrDuplicateEvent はWebhookイベントがすでに記録済みであることを示す。
// 再配送された配信は冪等にスキップする。
var ErrDuplicateEvent = errors.New("webhook event already recorded")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// SessionRepository はWebセッションの永続化インターフェース。
// セッション行の作成は外部IDプロバイダ連携が行い、本システムは検証と掃除のみを行う。
type SessionRepository interface {
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PurchaseRepository は購入データの永続化インターフェース。
type PurchaseRepository interface {
	// Create は購入を作成する。
	Create(ctx context.Context, purchase *model.Purchase) error

	// ListByUserID はユーザーの購入一覧を作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Purchase, error)

	// CancelBySubscriptionID はサブスクリプションIDで一致した購入をcancelledに更新し、
	// 影響行数を返す。一致しない場合は0を返す（エラーではない）。
	CancelBySubscriptionID(ctx context.Context, subscriptionID string, expiresAt time.Time) (int64, error)

	// ExpireCancelled は期限を過ぎたcancelled購入をexpiredに更新し、影響行数を返す。
	ExpireCancelled(ctx context.Context, now time.Time) (int64, error)
}

// ReferralRepository は紹介データの永続化インターフェース。
type ReferralRepository interface {
	// Create は紹介を作成する。
	Create(ctx context.Context, referral *model.Referral) error

	// FindByID は指定IDの紹介を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Referral, error)

	// ListByReferrerID は紹介者の紹介一覧を作成日時降順で返す。
	ListByReferrerID(ctx context.Context, referrerID string) ([]*model.Referral, error)

	// ClaimReward はreward_claimed=falseの場合に限りtrueへ条件付き更新する。
	// 更新できた場合はtrueを返す。並行請求の敗者はfalseを受け取る。
	ClaimReward(ctx context.Context, id string) (bool, error)
}

// ReferralRewardRepository は紹介特典データの永続化インターフェース。
type ReferralRewardRepository interface {
	// Create は紹介特典を作成する。
	Create(ctx context.Context, reward *model.ReferralReward) error

	// FindByReferralID は指定紹介の特典を取得する。見つからない場合はnilを返す。
	FindByReferralID(ctx context.Context, referralID string) (*model.ReferralReward, error)

	// ExpireOverdue は期限を過ぎた特典をexpiredに更新し、影響行数を返す。
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// AccessTokenRepository はアクセストークンの永続化インターフェース。
type AccessTokenRepository interface {
	// Create はアクセストークンを作成する。
	Create(ctx context.Context, token *model.AccessToken) error

	// FindByID は指定IDのトークンを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.AccessToken, error)

	// MarkUsed はactiveなトークンに限りusedへ条件付き更新し、利用先の学習者IDを記録する。
	// 更新できた場合はtrueを返す。
	MarkUsed(ctx context.Context, id, studentID string, usedAt time.Time) (bool, error)

	// ExpireOverdue は期限を過ぎたactiveトークンをexpiredに更新し、影響行数を返す。
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// StudentRepository は学習者データの永続化インターフェース。
type StudentRepository interface {
	// Create は学習者を作成する。
	Create(ctx context.Context, student *model.Student) error

	// FindByID は指定IDの学習者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Student, error)

	// ListByParentID は保護者配下の学習者一覧を返す。
	ListByParentID(ctx context.Context, parentID string) ([]*model.Student, error)

	// UpdatePreferences は学習者の設定を更新する。
	UpdatePreferences(ctx context.Context, id string, prefs *model.StudentPreferences) error
}

// TaskRepository は課題データの永続化インターフェース。
type TaskRepository interface {
	// Create は課題を作成する。
	Create(ctx context.Context, task *model.Task) error

	// FindByID は指定IDの課題を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// ListByStudentID は学習者の課題一覧を作成日時降順で返す。
	ListByStudentID(ctx context.Context, studentID string) ([]*model.Task, error)

	// UpdateStatus は課題の状態を更新する。completedAtは完了時のみ非nil。
	UpdateStatus(ctx context.Context, id string, status model.TaskStatus, completedAt *time.Time) error
}

// RewardRepository はごほうびカタログの永続化インターフェース。
type RewardRepository interface {
	// Create はごほうびを作成する。
	Create(ctx context.Context, reward *model.Reward) error

	// FindByID は指定IDのごほうびを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Reward, error)

	// ListByStudentID は学習者のごほうび一覧を返す。
	ListByStudentID(ctx context.Context, studentID string) ([]*model.Reward, error)

	// UpdateStatus はごほうびの有効状態を更新する。
	UpdateStatus(ctx context.Context, id string, status model.RewardCatalogStatus) error
}

// StudySessionRepository はワーク/ごほうびセッションの永続化インターフェース。
type StudySessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.StudySession) error

	// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.StudySession, error)

	// ListByStudentID は学習者のセッション一覧を開始時刻降順で返す。
	ListByStudentID(ctx context.Context, studentID string) ([]*model.StudySession, error)

	// Complete はセッションをcompletedに更新し、終了時刻と実測時間を記録する。
	Complete(ctx context.Context, id string, endTime time.Time, durationMinutes int) error
}

// ProgressRepository は日次進捗集計の永続化インターフェース。
type ProgressRepository interface {
	// AddTaskCompletion は指定日の進捗行に課題完了1件とポイントを加算する。
	// 行が存在しない場合は新規作成する。
	AddTaskCompletion(ctx context.Context, studentID, parentID string, date time.Time, points int) error

	// AddSessionTime は指定日の進捗行にワークまたはごほうびの時間（分）を加算する。
	// 行が存在しない場合は新規作成する。
	AddSessionTime(ctx context.Context, studentID, parentID string, date time.Time, sessionType model.SessionType, minutes int) error

	// ListByStudentID は学習者の進捗行を日付範囲で取得する。
	ListByStudentID(ctx context.Context, studentID string, from, to time.Time) ([]*model.Progress, error)
}

// WebhookEventRepository は受信済みWebhookイベントの記録インターフェース。
type WebhookEventRepository interface {
	// Record はイベントIDを記録する。すでに記録済みの場合はErrDuplicateEventを返す。
	Record(ctx context.Context, eventID, eventType string) error

	// Delete はイベントIDの記録を削除する。処理に失敗した配信の再送を
	// 重複扱いさせないために使用する。
	Delete(ctx context.Context, eventID string) error

	// DeleteOlderThan は受信日時がcutoffより古い記録を削除し、削除件数を返す。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
