// Package apperr はサービス全体で共通のエラー種別とHTTPステータスへの対応付けを提供する。
//
// ハンドラはエラー種別を意識せずにエラーを返し、レスポンス生成時に
// StatusOf でステータスコードを決定する。種別が付与されていないエラーは
// すべて 500 として扱う。
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind はエラーの種別を表す。
type Kind string

const (
	// KindAuth はトークンの欠落・不正・期限切れ、または検証呼び出しの失敗を表す。
	KindAuth Kind = "auth"
	// KindPermission はロールが操作を許可されていないことを表す。
	KindPermission Kind = "permission"
	// KindValidation はリクエストペイロードの必須項目欠落や形式不正を表す。
	KindValidation Kind = "validation"
	// KindNotFound はレコードが存在しないことを表す。
	KindNotFound Kind = "not_found"
	// KindPersistence は永続化ストアの呼び出し失敗を表す。
	KindPersistence Kind = "persistence"
	// KindUnhandled はその他の予期しない失敗を表す。
	KindUnhandled Kind = "unhandled"
)

// statusByKind は種別ごとのHTTPステータスコード。
var statusByKind = map[Kind]int{
	KindAuth:        http.StatusUnauthorized,
	KindPermission:  http.StatusForbidden,
	KindValidation:  http.StatusBadRequest,
	KindNotFound:    http.StatusNotFound,
	KindPersistence: http.StatusInternalServerError,
	KindUnhandled:   http.StatusInternalServerError,
}

// Error は種別付きのアプリケーションエラー。
type Error struct {
	// Kind はエラーの種別。
	Kind Kind
	// Message はクライアントに返すメッセージ。
	Message string
	// Cause は原因となったエラー。
	Cause error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap は原因となったエラーを返す。
func (e *Error) Unwrap() error {
	return e.Cause
}

// New は原因を持たないエラーを生成する。
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap は原因となるエラーを保持したエラーを生成する。
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Auth は認証エラーを生成する。
func Auth(message string, cause error) *Error { return Wrap(KindAuth, message, cause) }

// Permission は認可エラーを生成する。
func Permission(message string) *Error { return New(KindPermission, message) }

// Validation は入力検証エラーを生成する。
func Validation(message string) *Error { return New(KindValidation, message) }

// NotFound はレコード未検出エラーを生成する。
func NotFound(message string) *Error { return New(KindNotFound, message) }

// Persistence は永続化エラーを生成する。
func Persistence(message string, cause error) *Error { return Wrap(KindPersistence, message, cause) }

// KindOf はエラーチェーンから種別を取り出す。種別が無い場合は KindUnhandled を返す。
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnhandled
}

// Is はエラーチェーンに指定された種別のエラーが含まれるかを判定する。
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusOf はエラーに対応するHTTPステータスコードを返す。
func StatusOf(err error) int {
	if status, ok := statusByKind[KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// MessageOf はクライアントに返すメッセージを取り出す。
// 種別付きエラーの場合は原因を含めない Message を返し、
// それ以外はエラー文字列、空の場合は fallback を返す。
func MessageOf(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}
