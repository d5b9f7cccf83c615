package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/WTWB-none/book-tg-bot/internal/model"
)

// ChapterReaderInterface は章ハンドラーが必要とするリポジトリインターフェース。
type ChapterReaderInterface interface {
	// FindByBookAndID は書籍と章の複合キーで章本文を返す。
	// 組が存在しない場合はnilを返す。
	FindByBookAndID(ctx context.Context, bookID, chapterID int64) (*model.Chapter, error)
}

// SanitizerInterface は章本文の配信前サニタイズのインターフェース。
type SanitizerInterface interface {
	Sanitize(rawHTML string) string
}

// ChapterHandler は章本文のHTTPハンドラー。
// 本文はデータベースに入力のまま保存されるため、配信時にサニタイズする。
type ChapterHandler struct {
	chapters  ChapterReaderInterface
	sanitizer SanitizerInterface
}

// NewChapterHandler はChapterHandlerを生成する。
func NewChapterHandler(chapters ChapterReaderInterface, sanitizer SanitizerInterface) *ChapterHandler {
	return &ChapterHandler{
		chapters:  chapters,
		sanitizer: sanitizer,
	}
}

// chapterDetailResponse は章本文のレスポンス。
type chapterDetailResponse struct {
	BookID    int64  `json:"bookId"`
	ChapterID int64  `json:"chapterId"`
	Title     string `json:"title"`
	Content   string `json:"content"` // サニタイズ済みHTML
}

// GetChapter は章本文を取得する。
// GET /api/book/:id/chapter/:chapterId
// 章IDが存在しても別の書籍に属する場合は404を返す。
func (h *ChapterHandler) GetChapter(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewChapterNotFoundError(0, 0))
		return
	}
	chapterID, err := strconv.ParseInt(chi.URLParam(r, "chapterId"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewChapterNotFoundError(bookID, 0))
		return
	}

	chapter, err := h.chapters.FindByBookAndID(r.Context(), bookID, chapterID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if chapter == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewChapterNotFoundError(bookID, chapterID))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chapterDetailResponse{
		BookID:    chapter.BookID,
		ChapterID: chapter.ID,
		Title:     chapter.Title,
		Content:   h.sanitizer.Sanitize(chapter.Content),
	})
}
