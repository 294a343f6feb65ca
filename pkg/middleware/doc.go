// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// Bearerトークンによる認証、リクエストIDの付与、構造化ログ、
// パニックリカバリ、CORS、レート制限、Prometheusメトリクスを含む。
package middleware
