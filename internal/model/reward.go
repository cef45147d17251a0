package model

import "time"

// Reward は学習者がポイントと引き換えられるごほうびカタログの1件を表す。
// 紹介特典（ReferralReward）とは別物。
type Reward struct {
	ID             string
	StudentID      string
	ParentID       string
	Name           string
	Description    string
	PointsRequired int
	Duration       int // 分単位
	Type           RewardKind
	Status         RewardCatalogStatus
	CreatedAt      time.Time
	UsedAt         *time.Time
}

// RewardKind はごほうびの種別を表す。
type RewardKind string

const (
	// RewardKindPlaytime は自由時間のごほうび。
	RewardKindPlaytime RewardKind = "playtime"
	// RewardKindActivity はアクティビティのごほうび。
	RewardKindActivity RewardKind = "activity"
	// RewardKindItem は物品のごほうび。
	RewardKindItem RewardKind = "item"
)

// RewardCatalogStatus はごほうびカタログの有効状態を表す。
type RewardCatalogStatus string

const (
	// RewardCatalogStatusActive は選択可能なごほうび。
	RewardCatalogStatusActive RewardCatalogStatus = "active"
	// RewardCatalogStatusInactive は無効化されたごほうび。
	RewardCatalogStatusInactive RewardCatalogStatus = "inactive"
)

// ValidRewardKind はごほうび種別の値が定義済みかを検証する。
func ValidRewardKind(k RewardKind) bool {
	switch k {
	case RewardKindPlaytime, RewardKindActivity, RewardKindItem:
		return true
	}
	return false
}
