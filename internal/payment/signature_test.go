package payment

import (
	"fmt"
	"testing"
	"time"
)

const testSecret = "whsec_test_secret"

// TestVerifySignature_Valid は正しい署名の検証を検証する。
func TestVerifySignature_Valid(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	now := time.Now()

	header := SignatureHeaderValue(payload, testSecret, now.Unix())

	if err := VerifySignature(payload, header, testSecret, 5*time.Minute, now); err != nil {
		t.Errorf("expected valid signature, got error: %v", err)
	}
}

// TestVerifySignature_WrongSecret は異なるシークレットで署名されたペイロードの拒否を検証する。
func TestVerifySignature_WrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()

	header := SignatureHeaderValue(payload, "whsec_other_secret", now.Unix())

	if err := VerifySignature(payload, header, testSecret, 5*time.Minute, now); err != ErrInvalidSignature {
		t.Errorf("expected ErrInvalidSignature, got: %v", err)
	}
}

// TestVerifySignature_TamperedPayload は署名後に改変されたペイロードの拒否を検証する。
func TestVerifySignature_TamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()

	header := SignatureHeaderValue(payload, testSecret, now.Unix())
	tampered := []byte(`{"id":"evt_2"}`)

	if err := VerifySignature(tampered, header, testSecret, 5*time.Minute, now); err != ErrInvalidSignature {
		t.Errorf("expected ErrInvalidSignature, got: %v", err)
	}
}

// TestVerifySignature_ExpiredTimestamp は許容範囲を超えた古いタイムスタンプの拒否を検証する。
func TestVerifySignature_ExpiredTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()

	// 10分前に署名されたペイロード（許容は5分）
	header := SignatureHeaderValue(payload, testSecret, now.Add(-10*time.Minute).Unix())

	if err := VerifySignature(payload, header, testSecret, 5*time.Minute, now); err != ErrInvalidSignature {
		t.Errorf("expected ErrInvalidSignature for stale timestamp, got: %v", err)
	}
}

// TestVerifySignature_FutureTimestamp は未来のタイムスタンプも許容範囲で判定されることを検証する。
func TestVerifySignature_FutureTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()

	// 2分先は許容内（クロックずれ対策）
	header := SignatureHeaderValue(payload, testSecret, now.Add(2*time.Minute).Unix())
	if err := VerifySignature(payload, header, testSecret, 5*time.Minute, now); err != nil {
		t.Errorf("expected future timestamp within tolerance to pass, got: %v", err)
	}

	// 10分先は拒否
	header = SignatureHeaderValue(payload, testSecret, now.Add(10*time.Minute).Unix())
	if err := VerifySignature(payload, header, testSecret, 5*time.Minute, now); err != ErrInvalidSignature {
		t.Errorf("expected ErrInvalidSignature for future timestamp, got: %v", err)
	}
}

// TestVerifySignature_MultipleV1 は鍵ローテーション中の複数v1署名のうち1つが一致すれば成功することを検証する。
func TestVerifySignature_MultipleV1(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()

	oldSig := SignatureHeaderValue(payload, "whsec_old_secret", now.Unix())
	newSig := SignatureHeaderValue(payload, testSecret, now.Unix())
	// "t=...,v1=old,v1=new" 形式のヘッダーを組み立てる
	header := fmt.Sprintf("%s,%s", oldSig, newSig[len(fmt.Sprintf("t=%d,", now.Unix())):])

	if err := VerifySignature(payload, header, testSecret, 5*time.Minute, now); err != nil {
		t.Errorf("expected one matching v1 to pass, got: %v", err)
	}
}

// TestVerifySignature_MalformedHeader は不正なヘッダー形式の拒否を検証する。
func TestVerifySignature_MalformedHeader(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()

	cases := []struct {
		name   string
		header string
	}{
		{"空ヘッダー", ""},
		{"タイムスタンプ欠落", "v1=deadbeef"},
		{"署名欠落", fmt.Sprintf("t=%d", now.Unix())},
		{"タイムスタンプが数値でない", "t=abc,v1=deadbeef"},
		{"ゴミ文字列", "not-a-signature-header"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := VerifySignature(payload, tc.header, testSecret, 5*time.Minute, now); err != ErrInvalidSignature {
				t.Errorf("expected ErrInvalidSignature, got: %v", err)
			}
		})
	}
}

// TestParseEvent はイベントエンベロープの解析を検証する。
func TestParseEvent(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_1",
				"customer": "cus_1",
				"subscription": "sub_1",
				"customer_email": "referred@example.com",
				"metadata": {"userId": "u1", "referrerId": "r1", "priceId": "price_small", "quantity": "3"}
			}
		}
	}`)

	event, err := ParseEvent(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if event.ID != "evt_1" {
		t.Errorf("expected event ID evt_1, got %s", event.ID)
	}
	if event.Type != EventCheckoutCompleted {
		t.Errorf("expected type %s, got %s", EventCheckoutCompleted, event.Type)
	}
	obj := event.Data.Object
	if obj.Customer != "cus_1" || obj.Subscription != "sub_1" {
		t.Errorf("unexpected object fields: %+v", obj)
	}
	if obj.Metadata["userId"] != "u1" || obj.Metadata["referrerId"] != "r1" {
		t.Errorf("unexpected metadata: %v", obj.Metadata)
	}
}

// TestParseEvent_InvalidJSON は不正なJSONの解析エラーを検証する。
func TestParseEvent_InvalidJSON(t *testing.T) {
	if _, err := ParseEvent([]byte("{not json")); err == nil {
		t.Error("expected parse error for invalid JSON")
	}
}
