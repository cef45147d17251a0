package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader はWebhook署名を運ぶHTTPヘッダー名。
const SignatureHeader = "Stripe-Signature"

// ErrInvalidSignature は署名検証の失敗を示す。
// このエラーを受けた場合、ペイロードをドメイン処理に渡してはならない。
var ErrInvalidSignature = errors.New("webhook signature verification failed")

// VerifySignature は署名ヘッダーを検証する。
// ヘッダー形式は "t=<unix秒>,v1=<hex(HMAC-SHA256(secret, t + "." + body))>"。
// タイムスタンプがtoleranceを超えて離れている場合はリプレイとみなして拒否する。
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	t := time.Unix(timestamp, 0)
	diff := now.Sub(t)
	if diff < 0 {
		diff = -diff
	}
	if diff > tolerance {
		return ErrInvalidSignature
	}

	expected := ComputeSignature(payload, secret, timestamp)
	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// ComputeSignature は署名対象文字列 "t.body" のHMAC-SHA256を計算する。
func ComputeSignature(payload []byte, secret string, timestamp int64) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignatureHeaderValue はテストおよびゲートウェイシミュレーション用に
// 検証可能な署名ヘッダー値を生成する。
func SignatureHeaderValue(payload []byte, secret string, timestamp int64) string {
	sig := ComputeSignature(payload, secret, timestamp)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(sig))
}

// parseSignatureHeader は署名ヘッダーをタイムスタンプとv1署名の一覧に分解する。
// ゲートウェイは鍵ローテーション中に複数のv1を送るため、一覧で返す。
func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, ErrInvalidSignature
	}

	var timestamp int64 = -1
	var signatures []string

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			t, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, nil, ErrInvalidSignature
			}
			timestamp = t
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp < 0 || len(signatures) == 0 {
		return 0, nil, ErrInvalidSignature
	}
	return timestamp, signatures, nil
}
