// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/WTWB-none/book-tg-bot/internal/model"
)

// BookRepository は書籍データの永続化インターフェース。
type BookRepository interface {
	// ListSummaries は全書籍を章一覧付きで返す。書籍が存在しない場合は空スライスを返す。
	ListSummaries(ctx context.Context) ([]model.BookSummary, error)

	// FindByID は指定IDの書籍を章一覧付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.BookSummary, error)

	// Create は書籍を作成し、採番されたIDを返す。
	// coverURLがnilの場合は表紙なしとして保存する。
	Create(ctx context.Context, title, description string, coverURL *string) (int64, error)
}

// ChapterRepository は章データの永続化インターフェース。
type ChapterRepository interface {
	// FindByBookAndID は指定書籍・章IDの章を取得する。見つからない場合はnilを返す。
	FindByBookAndID(ctx context.Context, bookID, chapterID int64) (*model.Chapter, error)

	// Create は章を作成し、採番されたIDを返す。
	// contentは入力をそのまま保存する。
	Create(ctx context.Context, bookID int64, title, content string) (int64, error)
}

// SubscriberRepository は許可リスト（手動登録購読者）の永続化インターフェース。
type SubscriberRepository interface {
	// IsAllowed は指定IDが許可リストに存在するかを返す。
	IsAllowed(ctx context.Context, telegramUserID int64) (bool, error)

	// Add は指定IDを許可リストに追加する。既に存在する場合は何もしない（冪等）。
	Add(ctx context.Context, telegramUserID int64) error
}
