package model

import "time"

// Purchase はチェックアウト完了イベントから作成される購入記録を表す。
// 作成者は決済イベント処理のみで、状態遷移は active→cancelled→expired の一方向。
type Purchase struct {
	ID                   string
	UserID               string
	StripeCustomerID     string
	StripeSubscriptionID string
	Plan                 Plan
	Quantity             int
	Status               PurchaseStatus
	CreatedAt            time.Time
	ExpiresAt            *time.Time
}

// PurchaseStatus は購入の状態を表す。
type PurchaseStatus string

const (
	// PurchaseStatusActive は有効な購入。
	PurchaseStatusActive PurchaseStatus = "active"
	// PurchaseStatusCancelled はサブスクリプション解約済みの購入。
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
	// PurchaseStatusExpired は期限切れの購入。
	PurchaseStatusExpired PurchaseStatus = "expired"
)

// Plan は購入プランの種別を表す。
type Plan string

const (
	// PlanSingle は1デバイスプラン。価格IDが未知の場合のデフォルト。
	PlanSingle Plan = "single"
	// PlanSmall は小規模グループプラン。
	PlanSmall Plan = "small"
	// PlanMedium は中規模グループプラン。
	PlanMedium Plan = "medium"
	// PlanLarge は大規模グループプラン。
	PlanLarge Plan = "large"
	// PlanCustom はカスタムプラン。
	PlanCustom Plan = "custom"
)
