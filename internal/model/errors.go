package model

import "fmt"

// APIError はAPIレスポンスとして返すエラーを表す。
// Messageはそのままクライアントに返されるため、内部情報を含めないこと。
type APIError struct {
	Code    string // エラーコード
	Message string // クライアント向けメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeAuthFailed   = "AUTH_FAILED"
	ErrCodeInvalidBody  = "INVALID_BODY"
)

// NewNotFoundError はメモ未検出エラーを生成する。
// 他ユーザー所有のメモと存在しないメモは意図的に区別しない。
func NewNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeNotFound,
		Message: "Not found",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: "Unauthorized",
	}
}

// NewAuthFailedError は外部IdPとの認証失敗エラーを生成する。
func NewAuthFailedError() *APIError {
	return &APIError{
		Code:    ErrCodeAuthFailed,
		Message: "Authentication failed",
	}
}

// NewInvalidBodyError はリクエストボディ解析失敗エラーを生成する。
func NewInvalidBodyError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidBody,
		Message: "Invalid request body",
	}
}
