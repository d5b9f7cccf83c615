// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: remote, validation, content, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeRemoteUnavailable = "REMOTE_UNAVAILABLE"
	ErrCodeRemoteMalformed   = "REMOTE_MALFORMED"
	ErrCodeBookNotFound      = "BOOK_NOT_FOUND"
	ErrCodeChapterNotFound   = "CHAPTER_NOT_FOUND"
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
	ErrCodePersistenceFailed = "PERSISTENCE_FAILED"
)

// NewRemoteUnavailableError は購読レジストリへの到達失敗エラーを生成する。
// タイムアウト・接続エラー・非2xxステータスが該当する。
func NewRemoteUnavailableError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeRemoteUnavailable,
		Message:  fmt.Sprintf("購読レジストリに到達できませんでした: %s", reason),
		Category: "remote",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewRemoteMalformedError は購読レジストリのレスポンス解析失敗エラーを生成する。
func NewRemoteMalformedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeRemoteMalformed,
		Message:  fmt.Sprintf("購読レジストリのレスポンスを解析できませんでした: %s", reason),
		Category: "remote",
		Action:   "レジストリ側の応答形式を確認してください。",
	}
}

// NewBookNotFoundError は書籍未検出エラーを生成する。
func NewBookNotFoundError(bookID int64) *APIError {
	return &APIError{
		Code:     ErrCodeBookNotFound,
		Message:  fmt.Sprintf("指定された書籍が見つかりません: %d", bookID),
		Category: "content",
		Action:   "書籍IDを確認してください。",
	}
}

// NewChapterNotFoundError は章未検出エラーを生成する。
func NewChapterNotFoundError(bookID, chapterID int64) *APIError {
	return &APIError{
		Code:     ErrCodeChapterNotFound,
		Message:  fmt.Sprintf("指定された章が見つかりません: book=%d chapter=%d", bookID, chapterID),
		Category: "content",
		Action:   "章IDを確認してください。",
	}
}

// NewValidationFailedError はフロー入力の検証失敗エラーを生成する。
func NewValidationFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力内容が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewPersistenceFailedError はストレージ書き込み失敗エラーを生成する。
func NewPersistenceFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodePersistenceFailed,
		Message:  fmt.Sprintf("データの保存に失敗しました: %s", reason),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
