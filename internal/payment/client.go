package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CheckoutSession はゲートウェイが作成したホスト型チェックアウトセッションを表す。
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CheckoutParams はチェックアウトセッション作成のパラメータ。
type CheckoutParams struct {
	PriceID    string
	Quantity   int
	UserID     string
	ReferrerID string // 紹介コード。空の場合はメタデータに含めない
	SuccessURL string
	CancelURL  string
}

// Client は決済ゲートウェイのREST APIクライアント。
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

// NewClient はClientを生成する。httpClientがnilの場合はタイムアウト付きの
// デフォルトクライアントを使用する。
func NewClient(secretKey, baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		secretKey:  secretKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// CreateCheckoutSession はホスト型チェックアウトセッションを作成する。
// 紹介コードはメタデータのreferrerIdとしてセッションに伝搬し、
// 後続のWebhookが紹介行を作成できるようにする。
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", params.PriceID)
	form.Set("line_items[0][quantity]", strconv.Itoa(params.Quantity))
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("metadata[userId]", params.UserID)
	form.Set("metadata[priceId]", params.PriceID)
	form.Set("metadata[quantity]", strconv.Itoa(params.Quantity))
	if params.ReferrerID != "" {
		form.Set("metadata[referrerId]", params.ReferrerID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("チェックアウトリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("チェックアウトセッションの作成に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("ゲートウェイレスポンスの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ゲートウェイがエラーを返しました (status=%d): %s", resp.StatusCode, gatewayErrorMessage(body))
	}

	session := &CheckoutSession{}
	if err := json.Unmarshal(body, session); err != nil {
		return nil, fmt.Errorf("ゲートウェイレスポンスの解析に失敗しました: %w", err)
	}
	return session, nil
}

// gatewayErrorMessage はゲートウェイのエラーレスポンスからメッセージを抽出する。
func gatewayErrorMessage(body []byte) string {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return string(body)
	}
	return errResp.Error.Message
}
