// Package model はドメインモデルを定義する。
package model

// Book は配信対象の書籍を表す。
// CoverURLは任意項目で、表紙が不要な場合はnilを保持する。
type Book struct {
	ID          int64
	Title       string
	Description string
	CoverURL    *string
}

// ChapterRef は一覧表示用の章の参照情報（ID・タイトルのみ）を表す。
type ChapterRef struct {
	ID    int64
	Title string
}

// BookSummary は書籍と章一覧をまとめた構造体。
// カタログ表示と書籍詳細の両方で使用する。
type BookSummary struct {
	Book
	Chapters []ChapterRef
}

// Chapter は章の全内容を表す。
// Contentは入力されたテキストをそのまま保持する（マークアップ変換は行わない）。
type Chapter struct {
	ID      int64
	BookID  int64
	Title   string
	Content string
}
