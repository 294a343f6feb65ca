// Package enrollment は履修登録サービスを実装する。
//
// 学生の学期ごとの履修登録（科目と担当教員の一覧、合計単位数）を
// テナントとユーザーと学期の複合キーで管理する。
// すべてのAPIはBearerトークンで認証され、ロールごとに許可された操作のみ実行できる。
//
// エンドポイント:
//   - POST   /api/v1/enrollments  履修登録（student）
//   - GET    /api/v1/enrollments  履修登録の参照（student, admin）
//   - PUT    /api/v1/enrollments  履修登録の更新（student）
//   - DELETE /api/v1/enrollments  履修登録の削除（admin）
//   - GET    /health              ヘルスチェック
package enrollment
