package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/WTWB-none/book-tg-bot/internal/model"
)

// BookReaderInterface は書籍ハンドラーが必要とするリポジトリインターフェース。
type BookReaderInterface interface {
	// ListSummaries は全書籍を章メタデータ付きで返す。
	ListSummaries(ctx context.Context) ([]model.BookSummary, error)
	// FindByID は書籍を章メタデータ付きで返す。存在しない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.BookSummary, error)
}

// BookHandler は書籍カタログのHTTPハンドラー。
type BookHandler struct {
	books BookReaderInterface
}

// NewBookHandler はBookHandlerを生成する。
func NewBookHandler(books BookReaderInterface) *BookHandler {
	return &BookHandler{books: books}
}

// --- レスポンス型 ---

// chapterRefResponse は章メタデータのレスポンス。
type chapterRefResponse struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// bookResponse は書籍のレスポンス。
type bookResponse struct {
	ID          int64                `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	CoverURL    *string              `json:"cover_url"`
	Chapters    []chapterRefResponse `json:"chapters"`
}

func toBookResponse(s model.BookSummary) bookResponse {
	chapters := make([]chapterRefResponse, 0, len(s.Chapters))
	for _, c := range s.Chapters {
		chapters = append(chapters, chapterRefResponse{ID: c.ID, Title: c.Title})
	}
	return bookResponse{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		CoverURL:    s.CoverURL,
		Chapters:    chapters,
	}
}

// ListBooks は全書籍のカタログを取得する。
// GET /api/books
// リポジトリエラー時は空リストを返し、カタログ側は空の状態として表示する。
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	summaries, err := h.books.ListSummaries(r.Context())
	if err != nil {
		json.NewEncoder(w).Encode([]bookResponse{})
		return
	}

	resp := make([]bookResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, toBookResponse(s))
	}
	json.NewEncoder(w).Encode(resp)
}

// GetBook は書籍詳細を取得する。
// GET /api/book/:id
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewBookNotFoundError(0))
		return
	}

	summary, err := h.books.FindByID(r.Context(), bookID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if summary == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewBookNotFoundError(bookID))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toBookResponse(*summary))
}
