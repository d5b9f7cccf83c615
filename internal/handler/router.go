package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/WTWB-none/book-tg-bot/internal/metrics"
	"github.com/WTWB-none/book-tg-bot/internal/middleware"
)

// HealthChecker はヘルスチェックで疎通確認する依存のインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	CORSAllowedOrigins []string
	StatusRecorder     middleware.StatusRecorder

	// カタログ
	Books     BookReaderInterface
	Chapters  ChapterReaderInterface
	Sanitizer SanitizerInterface

	// 購読検証
	Verifier VerifierInterface

	// 運用
	HealthChecker HealthChecker
	Gatherer      prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → CORS
//
// /health と /metrics はCORSの対象外とするため、チェーンの内側で同居させない。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusRecorder))
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))

	bookHandler := NewBookHandler(deps.Books)
	chapterHandler := NewChapterHandler(deps.Chapters, deps.Sanitizer)
	verifyHandler := NewVerifyHandler(deps.Verifier)

	// --- 運用ルート ---

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy"})
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- Mini App向けAPIルート ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))

		r.Get("/api/books", bookHandler.ListBooks)

		r.Route("/api/book/{id}", func(r chi.Router) {
			r.Get("/", bookHandler.GetBook)
			r.Get("/chapter/{chapterId}", chapterHandler.GetChapter)
		})

		r.Get("/api/verify/{telegramUserId}", verifyHandler.Verify)
	})

	return r
}
