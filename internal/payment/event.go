// Package payment は決済ゲートウェイとの連携を提供する。
// ホスト型チェックアウトセッションの作成と、署名付きWebhookイベントの検証・解析を行う。
package payment

import (
	"encoding/json"
	"fmt"
)

// ゲートウェイが配信するイベント種別。
// ここに列挙されていない種別は受理した上で無視する（前方互換性優先）。
const (
	// EventCheckoutCompleted はチェックアウト完了イベント。
	EventCheckoutCompleted = "checkout.session.completed"
	// EventSubscriptionDeleted はサブスクリプション解約イベント。
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Event はゲートウェイのイベントエンベロープを表す。
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData はイベントの対象オブジェクトを保持する。
type EventData struct {
	Object EventObject `json:"object"`
}

// EventObject はチェックアウトセッションまたはサブスクリプションの
// 本システムが参照するフィールドのみを持つ。
type EventObject struct {
	ID            string            `json:"id"`
	Customer      string            `json:"customer"`
	Subscription  string            `json:"subscription"`
	CustomerEmail string            `json:"customer_email"`
	CancelAt      int64             `json:"cancel_at"` // UNIX秒
	Metadata      map[string]string `json:"metadata"`
}

// ParseEvent はWebhookボディをイベントエンベロープに解析する。
func ParseEvent(payload []byte) (*Event, error) {
	event := &Event{}
	if err := json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("イベントの解析に失敗しました: %w", err)
	}
	return event, nil
}
