package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/WTWB-none/book-tg-bot/internal/model"
)

// PostgresBookRepo はPostgreSQLを使用した書籍リポジトリ。
type PostgresBookRepo struct {
	db *sql.DB
}

// NewPostgresBookRepo はPostgresBookRepoを生成する。
func NewPostgresBookRepo(db *sql.DB) *PostgresBookRepo {
	return &PostgresBookRepo{db: db}
}

// ListSummaries は全書籍を章一覧付きで返す。
func (r *PostgresBookRepo) ListSummaries(ctx context.Context) ([]model.BookSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, description, cover_url FROM books ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	summaries := []model.BookSummary{}
	for rows.Next() {
		var s model.BookSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.CoverURL); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate books: %w", err)
	}

	for i := range summaries {
		chapters, err := r.listChapterRefs(ctx, summaries[i].ID)
		if err != nil {
			return nil, err
		}
		summaries[i].Chapters = chapters
	}

	return summaries, nil
}

// FindByID は指定IDの書籍を章一覧付きで取得する。見つからない場合はnilを返す。
func (r *PostgresBookRepo) FindByID(ctx context.Context, id int64) (*model.BookSummary, error) {
	s := &model.BookSummary{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, description, cover_url FROM books WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.Title, &s.Description, &s.CoverURL)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find book by ID: %w", err)
	}

	chapters, err := r.listChapterRefs(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Chapters = chapters

	return s, nil
}

// Create は書籍を作成し、採番されたIDを返す。
func (r *PostgresBookRepo) Create(ctx context.Context, title, description string, coverURL *string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO books (title, description, cover_url) VALUES ($1, $2, $3) RETURNING id`,
		title, description, coverURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert book: %w", err)
	}
	return id, nil
}

// listChapterRefs は指定書籍の章参照一覧をID昇順で返す。
func (r *PostgresBookRepo) listChapterRefs(ctx context.Context, bookID int64) ([]model.ChapterRef, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title FROM chapters WHERE book_id = $1 ORDER BY id ASC`,
		bookID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	defer rows.Close()

	refs := []model.ChapterRef{}
	for rows.Next() {
		var ref model.ChapterRef
		if err := rows.Scan(&ref.ID, &ref.Title); err != nil {
			return nil, fmt.Errorf("failed to scan chapter ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chapter refs: %w", err)
	}

	return refs, nil
}

// compile-time interface check
var _ BookRepository = (*PostgresBookRepo)(nil)
