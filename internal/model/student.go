package model

import "time"

// Student は保護者アカウント配下の学習者を表す。
type Student struct {
	ID            string
	Name          string
	AccessTokenID string
	ParentID      string
	Preferences   *StudentPreferences
	CreatedAt     time.Time
	LastActive    *time.Time
}

// StudentPreferences は学習者ごとの設定を表す。
// studentsテーブルのJSONBカラムに格納する。
type StudentPreferences struct {
	WorkDuration    int      `json:"work_duration"`   // 分単位
	RewardDuration  int      `json:"reward_duration"` // 分単位
	FavoriteRewards []string `json:"favorite_rewards"`
	ReferralCode    string   `json:"referral_code,omitempty"`
}
