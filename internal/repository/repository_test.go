package repository

import (
	"testing"

	"github.com/WTWB-none/book-tg-bot/internal/model"
)

// 各Postgresリポジトリがインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ BookRepository = (*PostgresBookRepo)(nil)
	var _ ChapterRepository = (*PostgresChapterRepo)(nil)
	var _ SubscriberRepository = (*PostgresSubscriberRepo)(nil)
}

// コンストラクタが正しく初期化されることを検証
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresBookRepo(nil) == nil {
		t.Fatal("expected non-nil book repo")
	}
	if NewPostgresChapterRepo(nil) == nil {
		t.Fatal("expected non-nil chapter repo")
	}
	if NewPostgresSubscriberRepo(nil) == nil {
		t.Fatal("expected non-nil subscriber repo")
	}
}

// BookSummaryモデルのフィールドが正しく構築されることを検証
func TestBookSummary_Fields(t *testing.T) {
	cover := "https://example.com/cover.png"
	summary := model.BookSummary{
		Book: model.Book{
			ID:          1,
			Title:       "Первая книга",
			Description: "описание",
			CoverURL:    &cover,
		},
		Chapters: []model.ChapterRef{
			{ID: 10, Title: "Глава 1"},
		},
	}

	if summary.ID != 1 {
		t.Errorf("summary.ID = %d, want 1", summary.ID)
	}
	if summary.CoverURL == nil || *summary.CoverURL != cover {
		t.Errorf("summary.CoverURL = %v, want %q", summary.CoverURL, cover)
	}
	if len(summary.Chapters) != 1 || summary.Chapters[0].ID != 10 {
		t.Errorf("summary.Chapters = %+v", summary.Chapters)
	}
}

// 表紙URLフィールドがnil許容であることを検証
func TestBook_NilCoverURL(t *testing.T) {
	book := model.Book{ID: 2, Title: "Без обложки"}
	if book.CoverURL != nil {
		t.Error("cover_url should be nil by default")
	}
}
