// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, billing, article, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnknownPlan       = "UNKNOWN_PLAN"
	ErrCodePricingNotSet     = "PRICING_NOT_CONFIGURED"
	ErrCodeCheckoutFailed    = "CHECKOUT_FAILED"
	ErrCodeOrderNotFound     = "ORDER_NOT_FOUND"
	ErrCodeArticleTooShort   = "ARTICLE_TOO_SHORT"
	ErrCodeArticleNotFound   = "ARTICLE_NOT_FOUND"
	ErrCodeTooManyImages     = "TOO_MANY_IMAGES"
	ErrCodeImageBlocked      = "IMAGE_URL_BLOCKED"
	ErrCodeDuplicateEmail    = "DUPLICATE_EMAIL"
	ErrCodeInvalidCredential = "INVALID_CREDENTIAL"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
)

// NewUnknownPlanError は未知のプラン名が指定された場合のエラーを生成する。
func NewUnknownPlanError(planName string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownPlan,
		Message:  fmt.Sprintf("指定されたプランが見つかりません: %s", planName),
		Category: "billing",
		Action:   "プラン名を確認してください。",
	}
}

// NewPricingNotSetError は価格設定が未構成の場合のエラーを生成する。
func NewPricingNotSetError(planName string) *APIError {
	return &APIError{
		Code:     ErrCodePricingNotSet,
		Message:  fmt.Sprintf("プランの価格IDが設定されていません: %s", planName),
		Category: "system",
		Action:   "運営者に問い合わせてください。",
	}
}

// NewCheckoutFailedError はチェックアウトセッション作成失敗エラーを生成する。
func NewCheckoutFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeCheckoutFailed,
		Message:  fmt.Sprintf("チェックアウトセッションの作成に失敗しました: %s", reason),
		Category: "billing",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewOrderNotFoundError は注文が見つからない場合のエラーを生成する。
func NewOrderNotFoundError(sessionID string) *APIError {
	return &APIError{
		Code:     ErrCodeOrderNotFound,
		Message:  fmt.Sprintf("指定されたセッションIDの注文が見つかりません: %s", sessionID),
		Category: "billing",
		Action:   "セッションIDを確認してください。",
	}
}

// NewArticleTooShortError は記事本文が最低語数に満たない場合のエラーを生成する。
func NewArticleTooShortError(words, minWords int) *APIError {
	return &APIError{
		Code:     ErrCodeArticleTooShort,
		Message:  fmt.Sprintf("記事本文が短すぎます: %d語（最低%d語）", words, minWords),
		Category: "validation",
		Action:   fmt.Sprintf("本文を%d語以上にしてください。", minWords),
	}
}

// NewArticleNotFoundError は記事が見つからない場合のエラーを生成する。
func NewArticleNotFoundError(articleID string) *APIError {
	return &APIError{
		Code:     ErrCodeArticleNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %s", articleID),
		Category: "article",
		Action:   "記事IDを確認してください。",
	}
}

// NewTooManyImagesError は画像数が上限を超えた場合のエラーを生成する。
func NewTooManyImagesError(count int) *APIError {
	return &APIError{
		Code:     ErrCodeTooManyImages,
		Message:  fmt.Sprintf("画像の数が上限を超えています: %d件（最大3件）", count),
		Category: "validation",
		Action:   "画像は3件以内で指定してください。",
	}
}

// NewImageBlockedError は画像URLがセキュリティポリシーでブロックされた場合のエラーを生成する。
func NewImageBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeImageBlocked,
		Message:  "セキュリティポリシーにより、指定された画像URLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイトの画像URLを指定してください。",
	}
}

// NewDuplicateEmailError はメールアドレスが登録済みの場合のエラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "ログインするか、別のメールアドレスを使用してください。",
	}
}

// NewInvalidCredentialError は認証情報が不正な場合のエラーを生成する。
func NewInvalidCredentialError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredential,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
