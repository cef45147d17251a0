package model

import "time"

// StudySession は学習者のワーク/ごほうびタイマーの1回分を表す。
type StudySession struct {
	ID        string
	StudentID string
	ParentID  string
	Type      SessionType
	Status    SessionStatus
	Duration  int // 分単位
	StartTime time.Time
	EndTime   *time.Time
	TaskID    *string
	RewardID  *string
	CreatedAt time.Time
}

// SessionType はセッションの種別を表す。
type SessionType string

const (
	// SessionTypeWork はワークセッション。
	SessionTypeWork SessionType = "work"
	// SessionTypeReward はごほうびセッション。
	SessionTypeReward SessionType = "reward"
)

// SessionStatus はセッションの進行状態を表す。
type SessionStatus string

const (
	// SessionStatusInProgress は進行中のセッション。
	SessionStatusInProgress SessionStatus = "in_progress"
	// SessionStatusCompleted は完了したセッション。
	SessionStatusCompleted SessionStatus = "completed"
)
