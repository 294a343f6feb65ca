package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisPingTimeout は起動時の疎通確認のタイムアウト。
const redisPingTimeout = 5 * time.Second

// redisValue はRedisに保存するJSON値。
type redisValue struct {
	Courses      []Course `json:"Courses"`
	TotalCredits float64  `json:"TotalCredits"`
}

// Redis はRedisに履修登録レコードを保存するStore実装。
// パーティションキーごとに1つのハッシュを持ち、ソートキーをフィールドとしてJSONを保存する。
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis はRedisクライアントを生成し、疎通を確認する。
func NewRedis(ctx context.Context, addr, password string, db int, prefix string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("Redisへの接続に失敗: %w", err)
	}

	return &Redis{client: client, prefix: prefix}, nil
}

// hashKey はパーティションキーに対応するハッシュのキー "<prefix>:<partitionKey>" を返す。
// ソートキーはハッシュのフィールドになるため、区切り文字を含んでも別キーと衝突しない。
func (r *Redis) hashKey(key Key) string {
	if r.prefix == "" {
		return key.PartitionKey
	}
	return r.prefix + ":" + key.PartitionKey
}

// Put はレコードを保存する。
func (r *Redis) Put(ctx context.Context, rec Record) error {
	data, err := json.Marshal(redisValue{Courses: rec.Courses, TotalCredits: rec.TotalCredits})
	if err != nil {
		return fmt.Errorf("レコードのシリアライズに失敗: %w", err)
	}
	if err := r.client.HSet(ctx, r.hashKey(rec.Key()), rec.SortKey, data).Err(); err != nil {
		return fmt.Errorf("レコードの保存に失敗: %w", err)
	}
	return nil
}

// Get はキーに対応するレコードを返す。
func (r *Redis) Get(ctx context.Context, key Key) (Record, error) {
	data, err := r.client.HGet(ctx, r.hashKey(key), key.SortKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("レコードの取得に失敗: %w", err)
	}

	var v redisValue
	if err := json.Unmarshal(data, &v); err != nil {
		return Record{}, fmt.Errorf("レコードのデシリアライズに失敗: %w", err)
	}
	return Record{
		PartitionKey: key.PartitionKey,
		SortKey:      key.SortKey,
		Courses:      v.Courses,
		TotalCredits: v.TotalCredits,
	}, nil
}

// Delete はキーに対応するレコードを削除する。
func (r *Redis) Delete(ctx context.Context, key Key) error {
	if err := r.client.HDel(ctx, r.hashKey(key), key.SortKey).Err(); err != nil {
		return fmt.Errorf("レコードの削除に失敗: %w", err)
	}
	return nil
}

// Close はクライアントを閉じる。
func (r *Redis) Close() error {
	return r.client.Close()
}
