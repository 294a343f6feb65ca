package auth

import (
	"slices"

	"github.com/nao1215/enrollment/pkg/apperr"
)

// Role はトークン検証関数が返す利用者のロール。
type Role string

const (
	// RoleStudent は学生ロール。
	RoleStudent Role = "student"
	// RoleAdmin は管理者ロール。
	RoleAdmin Role = "admin"
)

// Operation は履修登録に対する操作の種類。
type Operation string

const (
	// OperationCreate は履修登録の作成。
	OperationCreate Operation = "create"
	// OperationRead は履修登録の参照。
	OperationRead Operation = "read"
	// OperationUpdate は履修登録の更新。
	OperationUpdate Operation = "update"
	// OperationDelete は履修登録の削除。
	OperationDelete Operation = "delete"
)

// permission は操作ごとの許可ロールと拒否時のメッセージ。
type permission struct {
	roles   []Role
	message string
}

// permissions は操作ごとの許可ロール一覧。ここに無い操作はすべて拒否する。
var permissions = map[Operation]permission{
	OperationCreate: {roles: []Role{RoleStudent}, message: "学生のみ履修登録できます"},
	OperationRead:   {roles: []Role{RoleStudent, RoleAdmin}, message: "履修登録を参照する権限がありません"},
	OperationUpdate: {roles: []Role{RoleStudent}, message: "学生のみ履修登録を更新できます"},
	OperationDelete: {roles: []Role{RoleAdmin}, message: "管理者のみ履修登録を削除できます"},
}

// Authorize は利用者のロールが操作を許可されているかを判定する。
// 許可されていない場合は apperr.KindPermission のエラーを返す。
func Authorize(id Identity, op Operation) error {
	p, ok := permissions[op]
	if !ok {
		return apperr.Permission("不明な操作です")
	}
	if !slices.Contains(p.roles, id.Role) {
		return apperr.Permission(p.message)
	}
	return nil
}
