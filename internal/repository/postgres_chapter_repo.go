package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/WTWB-none/book-tg-bot/internal/model"
)

// PostgresChapterRepo はPostgreSQLを使用した章リポジトリ。
type PostgresChapterRepo struct {
	db *sql.DB
}

// NewPostgresChapterRepo はPostgresChapterRepoを生成する。
func NewPostgresChapterRepo(db *sql.DB) *PostgresChapterRepo {
	return &PostgresChapterRepo{db: db}
}

// FindByBookAndID は指定書籍・章IDの章を取得する。見つからない場合はnilを返す。
func (r *PostgresChapterRepo) FindByBookAndID(ctx context.Context, bookID, chapterID int64) (*model.Chapter, error) {
	ch := &model.Chapter{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, book_id, title, content FROM chapters WHERE book_id = $1 AND id = $2`,
		bookID, chapterID,
	).Scan(&ch.ID, &ch.BookID, &ch.Title, &ch.Content)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find chapter: %w", err)
	}

	return ch, nil
}

// Create は章を作成し、採番されたIDを返す。
func (r *PostgresChapterRepo) Create(ctx context.Context, bookID int64, title, content string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO chapters (book_id, title, content) VALUES ($1, $2, $3) RETURNING id`,
		bookID, title, content,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert chapter: %w", err)
	}
	return id, nil
}

// compile-time interface check
var _ ChapterRepository = (*PostgresChapterRepo)(nil)
