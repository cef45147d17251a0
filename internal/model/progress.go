package model

import "time"

// Progress は学習者の日次集計行を表す。
// 課題完了とセッション完了の2つの書き込み元からUPSERTされる。
type Progress struct {
	ID             string
	StudentID      string
	ParentID       string
	Date           time.Time // 日付単位（UTC、時刻部分は00:00:00）
	TasksCompleted int
	PointsEarned   int
	WorkTime       int // 分単位
	RewardTime     int // 分単位
}
