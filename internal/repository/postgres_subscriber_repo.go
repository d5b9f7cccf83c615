package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresSubscriberRepo はPostgreSQLを使用した許可リストリポジトリ。
type PostgresSubscriberRepo struct {
	db *sql.DB
}

// NewPostgresSubscriberRepo はPostgresSubscriberRepoを生成する。
func NewPostgresSubscriberRepo(db *sql.DB) *PostgresSubscriberRepo {
	return &PostgresSubscriberRepo{db: db}
}

// IsAllowed は指定IDが許可リストに存在するかを返す。
func (r *PostgresSubscriberRepo) IsAllowed(ctx context.Context, telegramUserID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM allowed_users WHERE telegram_user_id = $1)`,
		telegramUserID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check allowed user: %w", err)
	}
	return exists, nil
}

// Add は指定IDを許可リストに追加する。既に存在する場合は何もしない。
func (r *PostgresSubscriberRepo) Add(ctx context.Context, telegramUserID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO allowed_users (telegram_user_id) VALUES ($1) ON CONFLICT DO NOTHING`,
		telegramUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert allowed user: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SubscriberRepository = (*PostgresSubscriberRepo)(nil)
