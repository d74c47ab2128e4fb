package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, apple, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeAppleNotFound  = "APPLE_NOT_FOUND"
	ErrCodeAlreadyFallen  = "ALREADY_FALLEN"
	ErrCodeAppleOnTree    = "APPLE_ON_TREE"
	ErrCodeAppleRotten    = "APPLE_ROTTEN"
	ErrCodeAlreadyEaten   = "APPLE_ALREADY_EATEN"
	ErrCodeInvalidPercent = "INVALID_PERCENT"
	ErrCodeInvalidStatus  = "INVALID_STATUS"
	ErrCodeUserNotFound   = "USER_NOT_FOUND"
)

// NewAppleNotFoundError はりんご未検出エラーを生成する。
// 他ユーザー所有のりんごへのアクセスも存在しないものとして扱う。
func NewAppleNotFoundError(appleID int64) *APIError {
	return &APIError{
		Code:     ErrCodeAppleNotFound,
		Message:  fmt.Sprintf("指定されたりんごが見つかりません: %d", appleID),
		Category: "apple",
		Action:   "りんご一覧を再読み込みしてください。",
	}
}

// NewAlreadyFallenError は落下済みのりんごを落とそうとした場合のエラーを生成する。
func NewAlreadyFallenError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyFallen,
		Message:  "りんごはすでに落ちています。",
		Category: "apple",
		Action:   "木に実っているりんごだけを落とせます。",
	}
}

// NewAppleOnTreeError は木の上のりんごを食べようとした場合のエラーを生成する。
func NewAppleOnTreeError() *APIError {
	return &APIError{
		Code:     ErrCodeAppleOnTree,
		Message:  "木の上のりんごは食べられません。",
		Category: "apple",
		Action:   "先にりんごを落としてください。",
	}
}

// NewAppleRottenError は腐ったりんごを食べようとした場合のエラーを生成する。
func NewAppleRottenError() *APIError {
	return &APIError{
		Code:     ErrCodeAppleRotten,
		Message:  "腐ったりんごは食べられません。",
		Category: "apple",
		Action:   "新しいりんごを生成してください。",
	}
}

// NewAlreadyEatenError は完食済みのりんごを食べようとした場合のエラーを生成する。
func NewAlreadyEatenError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyEaten,
		Message:  "りんごはすでに食べ尽くされています。",
		Category: "apple",
		Action:   "新しいりんごを生成してください。",
	}
}

// NewInvalidPercentError は0以下のパーセント指定に対するエラーを生成する。
func NewInvalidPercentError(percent int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPercent,
		Message:  fmt.Sprintf("無効なパーセント値です: %d", percent),
		Category: "validation",
		Action:   "1以上の整数を指定してください。",
	}
}

// NewInvalidStatusError は定義外の状態コードに対するエラーを生成する。
func NewInvalidStatusError(status int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("無効な状態コードです: %d", status),
		Category: "validation",
		Action:   "状態には 0（木の上）、1（地面の上）、2（腐った）のいずれかを指定してください。",
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
