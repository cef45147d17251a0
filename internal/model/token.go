package model

import "time"

// AccessToken はデバイスレベルのアクセスを許可する期限付きクレデンシャルを表す。
// Webセッショントークンとは無関係。
type AccessToken struct {
	ID         string
	Token      string
	Status     TokenStatus
	CreatedAt  time.Time
	UsedAt     *time.Time
	ExpiresAt  *time.Time
	StudentID  *string
	PurchaseID *string
}

// TokenStatus はアクセストークンの状態を表す。
type TokenStatus string

const (
	// TokenStatusActive は有効なトークン。
	TokenStatusActive TokenStatus = "active"
	// TokenStatusUsed は使用済みトークン。
	TokenStatusUsed TokenStatus = "used"
	// TokenStatusExpired は期限切れトークン。
	TokenStatusExpired TokenStatus = "expired"
)
