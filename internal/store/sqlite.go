package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nao1215/enrollment/pkg/migration"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// SQLite はSQLiteに履修登録レコードを保存するStore実装。
type SQLite struct {
	db *sql.DB
}

// NewSQLite はSQLiteデータベースを開き、マイグレーションを適用する。
// path に ":memory:" を渡すとインメモリDBになる。
func NewSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLite, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	// SQLiteは書き込みが直列化されるため接続は1本に絞る
	db.SetMaxOpenConns(1)

	if err := migration.Run(ctx, db, migration.SQLite, migrationsFS, "migrations/sqlite", logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Put はレコードを保存する。同じキーの行は置き換える。
func (s *SQLite) Put(ctx context.Context, rec Record) error {
	courses, err := json.Marshal(rec.Courses)
	if err != nil {
		return fmt.Errorf("科目一覧のシリアライズに失敗: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO enrollments (partition_key, sort_key, courses, total_credits, updated_at)
		 VALUES (?, ?, ?, ?, datetime('now'))`,
		rec.PartitionKey, rec.SortKey, string(courses), rec.TotalCredits,
	)
	if err != nil {
		return fmt.Errorf("レコードの保存に失敗: %w", err)
	}
	return nil
}

// Get はキーに対応するレコードを返す。
func (s *SQLite) Get(ctx context.Context, key Key) (Record, error) {
	var (
		courses string
		rec     = Record{PartitionKey: key.PartitionKey, SortKey: key.SortKey}
	)

	err := s.db.QueryRowContext(ctx,
		"SELECT courses, total_credits FROM enrollments WHERE partition_key = ? AND sort_key = ?",
		key.PartitionKey, key.SortKey,
	).Scan(&courses, &rec.TotalCredits)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("レコードの取得に失敗: %w", err)
	}

	if err := json.Unmarshal([]byte(courses), &rec.Courses); err != nil {
		return Record{}, fmt.Errorf("科目一覧のデシリアライズに失敗: %w", err)
	}
	return rec, nil
}

// Delete はキーに対応するレコードを削除する。
func (s *SQLite) Delete(ctx context.Context, key Key) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM enrollments WHERE partition_key = ? AND sort_key = ?",
		key.PartitionKey, key.SortKey,
	)
	if err != nil {
		return fmt.Errorf("レコードの削除に失敗: %w", err)
	}
	return nil
}

// Close はデータベース接続を閉じる。
func (s *SQLite) Close() error {
	return s.db.Close()
}
