// Package auth はBearerトークンの認証とロールによる認可を提供する。
//
// トークン自体の検証は外部のトークン検証関数に委譲する。検証関数は
// {token} を受け取り {statusCode, body} を返す契約を持ち、成功時のbodyには
// テナントID・ユーザーID・ロールが含まれる。呼び出し方式はHTTP・AWS Lambda・
// ローカル開発用のHS256検証から選択できる。
//
// 認可は操作ごとの許可ロール一覧を Authorize 関数ひとつで判定する。
package auth
