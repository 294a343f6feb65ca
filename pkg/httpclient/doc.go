// Package httpclient は外部サービスとJSONでやり取りするHTTPクライアントを提供する。
//
// トークン検証関数をHTTPエンドポイントとして呼び出す際に使用する。
// 2xx以外の応答は StatusError として返すため、呼び出し側で
// ステータスとボディを見て処理を分岐できる。
package httpclient
