package model

import "time"

// Referral は紹介者アカウントと新規購入を結びつける紹介記録を表す。
// 購入完了後に一度だけ特典請求の対象になる。
type Referral struct {
	ID            string
	ReferrerID    string
	ReferredEmail string
	PurchaseID    string
	Status        ReferralStatus
	CreatedAt     time.Time
	CompletedAt   *time.Time
	RewardClaimed bool
	RewardType    RewardType
	RewardValue   *int
}

// ReferralStatus は紹介の状態を表す。
type ReferralStatus string

const (
	// ReferralStatusPending は購入未完了の紹介。
	// 本システム内に生成経路はなく、外部プロセスが投入する運用向けの状態。
	ReferralStatusPending ReferralStatus = "pending"
	// ReferralStatusCompleted は購入完了済みで特典請求可能な紹介。
	ReferralStatusCompleted ReferralStatus = "completed"
	// ReferralStatusExpired は期限切れの紹介。
	ReferralStatusExpired ReferralStatus = "expired"
)

// RewardType は紹介特典の種別を表す。
type RewardType string

const (
	// RewardTypeAccessToken はアクセストークン発行の特典。
	RewardTypeAccessToken RewardType = "access_token"
	// RewardTypeSubscriptionDiscount はサブスクリプション割引の特典。
	RewardTypeSubscriptionDiscount RewardType = "subscription_discount"
)

// ReferralReward は請求によって発行された特典記録を表す。
// 1つの紹介につき最大1件のみ存在する。
type ReferralReward struct {
	ID         string
	ReferralID string
	Type       RewardType
	Value      int
	Status     RewardStatus
	CreatedAt  time.Time
	ClaimedAt  *time.Time
	ExpiresAt  *time.Time
}

// RewardStatus は特典の状態を表す。
type RewardStatus string

const (
	// RewardStatusPending は未請求の特典。
	RewardStatusPending RewardStatus = "pending"
	// RewardStatusClaimed は請求済みの特典。
	RewardStatusClaimed RewardStatus = "claimed"
	// RewardStatusExpired は期限切れの特典。
	RewardStatusExpired RewardStatus = "expired"
)
