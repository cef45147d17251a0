// Package model はドメインモデルを定義する。
package model

import "time"

// User は保護者アカウントを表す。
// 認証自体は外部IDプロバイダが行い、本システムはユーザー行の参照のみを行う。
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session は外部IDプロバイダ連携によって発行されたWebセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
