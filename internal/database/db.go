// Package database はPostgreSQL接続の確立と、書籍ライブラリの
// スキーママイグレーション適用を提供する。
package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open はPostgreSQLへの接続プールを生成する。
// BotとHTTP APIが1プロセスで同居する構成を想定し、プールは小さく保つ。
// sql.Openは接続を試行しないため、実際の確認にはdb.Ping()を使用すること。
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
