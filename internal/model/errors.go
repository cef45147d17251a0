package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, referral, billing, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeReferralNotFound     = "REFERRAL_NOT_FOUND"
	ErrCodeRewardAlreadyClaimed = "REWARD_ALREADY_CLAIMED"
	ErrCodeReferralNotCompleted = "REFERRAL_NOT_COMPLETED"
	ErrCodeInvalidReferralCode  = "INVALID_REFERRAL_CODE"
	ErrCodeStudentNotFound      = "STUDENT_NOT_FOUND"
	ErrCodeTaskNotFound         = "TASK_NOT_FOUND"
	ErrCodeTaskAlreadyCompleted = "TASK_ALREADY_COMPLETED"
	ErrCodeRewardNotFound       = "REWARD_NOT_FOUND"
	ErrCodeSessionNotFound      = "SESSION_NOT_FOUND"
	ErrCodeSessionCompleted     = "SESSION_COMPLETED"
	ErrCodeCheckoutFailed       = "CHECKOUT_FAILED"
)

// NewUnauthorizedError は認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidRequestError はリクエスト解析エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewReferralNotFoundError は紹介未検出エラーを生成する。
func NewReferralNotFoundError(referralID string) *APIError {
	return &APIError{
		Code:     ErrCodeReferralNotFound,
		Message:  fmt.Sprintf("指定された紹介が見つかりません: %s", referralID),
		Category: "referral",
		Action:   "紹介IDを確認してください。",
	}
}

// NewRewardAlreadyClaimedError は特典請求済みエラーを生成する。
func NewRewardAlreadyClaimedError() *APIError {
	return &APIError{
		Code:     ErrCodeRewardAlreadyClaimed,
		Message:  "この紹介の特典はすでに請求済みです。",
		Category: "referral",
		Action:   "各紹介につき特典は1回のみ請求できます。",
	}
}

// NewReferralNotCompletedError は紹介未完了エラーを生成する。
func NewReferralNotCompletedError() *APIError {
	return &APIError{
		Code:     ErrCodeReferralNotCompleted,
		Message:  "紹介が完了状態ではないため、特典を請求できません。",
		Category: "referral",
		Action:   "紹介された方の購入が完了してから請求してください。",
	}
}

// NewInvalidReferralCodeError は無効な紹介コードエラーを生成する。
func NewInvalidReferralCodeError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidReferralCode,
		Message:  "無効な紹介コードです。",
		Category: "validation",
		Action:   "紹介コードを確認してください。",
	}
}

// NewStudentNotFoundError は学習者未検出エラーを生成する。
func NewStudentNotFoundError(studentID string) *APIError {
	return &APIError{
		Code:     ErrCodeStudentNotFound,
		Message:  fmt.Sprintf("指定された学習者が見つかりません: %s", studentID),
		Category: "validation",
		Action:   "学習者IDを確認してください。",
	}
}

// NewTaskNotFoundError は課題未検出エラーを生成する。
func NewTaskNotFoundError(taskID string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定された課題が見つかりません: %s", taskID),
		Category: "validation",
		Action:   "課題IDを確認してください。",
	}
}

// NewTaskAlreadyCompletedError は課題完了済みエラーを生成する。
func NewTaskAlreadyCompletedError() *APIError {
	return &APIError{
		Code:     ErrCodeTaskAlreadyCompleted,
		Message:  "この課題はすでに完了しています。",
		Category: "validation",
		Action:   "完了済みの課題は再度完了できません。",
	}
}

// NewRewardNotFoundError はごほうび未検出エラーを生成する。
func NewRewardNotFoundError(rewardID string) *APIError {
	return &APIError{
		Code:     ErrCodeRewardNotFound,
		Message:  fmt.Sprintf("指定されたごほうびが見つかりません: %s", rewardID),
		Category: "validation",
		Action:   "ごほうびIDを確認してください。",
	}
}

// NewSessionNotFoundError はセッション未検出エラーを生成する。
func NewSessionNotFoundError(sessionID string) *APIError {
	return &APIError{
		Code:     ErrCodeSessionNotFound,
		Message:  fmt.Sprintf("指定されたセッションが見つかりません: %s", sessionID),
		Category: "validation",
		Action:   "セッションIDを確認してください。",
	}
}

// NewSessionCompletedError はセッション完了済みエラーを生成する。
func NewSessionCompletedError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionCompleted,
		Message:  "このセッションはすでに完了しています。",
		Category: "validation",
		Action:   "進行中のセッションのみ完了できます。",
	}
}

// NewCheckoutFailedError はチェックアウトセッション作成失敗エラーを生成する。
func NewCheckoutFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeCheckoutFailed,
		Message:  "チェックアウトセッションの作成に失敗しました。",
		Category: "billing",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
