package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/nao1215/enrollment/pkg/migration"
	"go.uber.org/zap"
)

// Postgres はPostgreSQLに履修登録レコードを保存するStore実装。
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres は接続プールを作成し、疎通確認とマイグレーションを行う。
func NewPostgres(ctx context.Context, dsn string, maxConns int32, logger *zap.Logger) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("接続文字列の解析に失敗: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("接続プールの作成に失敗: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	if err := migration.Run(ctx, db, migration.Postgres, migrationsFS, "migrations/postgres", logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Put はレコードを保存する。同じキーの行は置き換える。
func (p *Postgres) Put(ctx context.Context, rec Record) error {
	courses, err := json.Marshal(rec.Courses)
	if err != nil {
		return fmt.Errorf("科目一覧のシリアライズに失敗: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO enrollments (partition_key, sort_key, courses, total_credits, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (partition_key, sort_key) DO UPDATE
		SET courses = EXCLUDED.courses,
		    total_credits = EXCLUDED.total_credits,
		    updated_at = EXCLUDED.updated_at`,
		rec.PartitionKey, rec.SortKey, string(courses), rec.TotalCredits,
	)
	if err != nil {
		return fmt.Errorf("レコードの保存に失敗: %w", err)
	}
	return nil
}

// Get はキーに対応するレコードを返す。
func (p *Postgres) Get(ctx context.Context, key Key) (Record, error) {
	var (
		courses []byte
		rec     = Record{PartitionKey: key.PartitionKey, SortKey: key.SortKey}
	)

	err := p.pool.QueryRow(ctx,
		"SELECT courses, total_credits FROM enrollments WHERE partition_key = $1 AND sort_key = $2",
		key.PartitionKey, key.SortKey,
	).Scan(&courses, &rec.TotalCredits)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("レコードの取得に失敗: %w", err)
	}

	if err := json.Unmarshal(courses, &rec.Courses); err != nil {
		return Record{}, fmt.Errorf("科目一覧のデシリアライズに失敗: %w", err)
	}
	return rec, nil
}

// Delete はキーに対応するレコードを削除する。
func (p *Postgres) Delete(ctx context.Context, key Key) error {
	_, err := p.pool.Exec(ctx,
		"DELETE FROM enrollments WHERE partition_key = $1 AND sort_key = $2",
		key.PartitionKey, key.SortKey,
	)
	if err != nil {
		return fmt.Errorf("レコードの削除に失敗: %w", err)
	}
	return nil
}

// Close は接続プールを閉じる。
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
