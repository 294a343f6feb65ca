// Package store は履修登録レコードを複合キーで保存するキーバリューストアを提供する。
//
// パーティションキーは "<tenant_id>#<user_id>"、ソートキーは学期である。
// 同じキーへの書き込みは無条件に上書きされる。
package store

import (
	"context"
	"errors"
)

// keySeparator はパーティションキーを構成するテナントIDとユーザーIDの区切り文字。
const keySeparator = "#"

// ErrNotFound はキーに対応するレコードが存在しないことを表す。
var ErrNotFound = errors.New("レコードが見つかりません")

// Course は1件の科目割り当て。
// 属性名は既存のテーブルに保存されている名前に合わせている。
type Course struct {
	CourseID    string `json:"CourseID"`
	ProfessorID string `json:"ProfessorID"`
}

// Key は履修登録レコードの複合キー。
type Key struct {
	PartitionKey string
	SortKey      string
}

// NewKey はテナントID、ユーザーID、学期から複合キーを組み立てる。
func NewKey(tenantID, userID, period string) Key {
	return Key{
		PartitionKey: tenantID + keySeparator + userID,
		SortKey:      period,
	}
}

// Record は保存される履修登録レコード。
type Record struct {
	PartitionKey string
	SortKey      string
	Courses      []Course
	TotalCredits float64
}

// Key はレコードの複合キーを返す。
func (r Record) Key() Key {
	return Key{PartitionKey: r.PartitionKey, SortKey: r.SortKey}
}

// Store は履修登録レコードの永続化を抽象化する。
type Store interface {
	// Put はレコードを保存する。同じキーのレコードは置き換えられる。
	Put(ctx context.Context, rec Record) error
	// Get はキーに対応するレコードを返す。存在しない場合は ErrNotFound を返す。
	Get(ctx context.Context, key Key) (Record, error)
	// Delete はキーに対応するレコードを削除する。存在しなくてもエラーにしない。
	Delete(ctx context.Context, key Key) error
	// Close は接続を解放する。
	Close() error
}
