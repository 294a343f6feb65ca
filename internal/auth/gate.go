package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nao1215/enrollment/pkg/apperr"
)

// defaultInvalidTokenMessage は検証関数がエラー内容を返さなかった場合のメッセージ。
const defaultInvalidTokenMessage = "トークンが無効または期限切れです"

// bearerPrefix はAuthorizationヘッダーのトークン種別プレフィックス。
const bearerPrefix = "Bearer "

// Identity はトークン検証関数が返す利用者情報。永続化はしない。
type Identity struct {
	// TenantID は利用者が所属するテナントのID。
	TenantID string `json:"tenantId"`
	// UserID は利用者の一意識別子。
	UserID string `json:"userId"`
	// Role は利用者のロール。
	Role Role `json:"role"`
}

// Response はトークン検証関数の応答。
// Bodyは成功時にIdentity、失敗時に {"error": "..."} を表すJSON。
// JSON文字列として二重にエンコードされている場合もある。
type Response struct {
	// StatusCode は検証結果のステータスコード。200のみ成功とみなす。
	StatusCode int `json:"statusCode"`
	// Body は検証結果の本体。
	Body json.RawMessage `json:"body"`
}

// tokenRequest はトークン検証関数への入力。
type tokenRequest struct {
	Token string `json:"token"`
}

// Validator はトークン検証関数の呼び出しを抽象化する。
// 検証関数を呼び出せなかった場合のみerrorを返し、
// トークンが無効な場合は200以外のStatusCodeを持つResponseを返す。
type Validator interface {
	Validate(ctx context.Context, token string) (*Response, error)
}

// Gate はAuthorizationヘッダーからBearerトークンを取り出して検証する。
// プロセス起動時に一度だけ生成し、全リクエストで共有する。
type Gate struct {
	validator Validator
}

// NewGate は新しいGateを生成する。
func NewGate(v Validator) *Gate {
	return &Gate{validator: v}
}

// Authenticate はAuthorizationヘッダーの値を検証し、利用者情報を返す。
// 失敗した場合は apperr.KindAuth のエラーを返す。
func (g *Gate) Authenticate(ctx context.Context, header string) (Identity, error) {
	if header == "" {
		return Identity{}, apperr.Auth("Authorizationヘッダーが必要です", nil)
	}

	token, found := strings.CutPrefix(header, bearerPrefix)
	if !found || token == "" {
		return Identity{}, apperr.Auth("Bearer トークン形式が不正です", nil)
	}

	resp, err := g.validator.Validate(ctx, token)
	if err != nil {
		return Identity{}, apperr.Auth("トークンの検証に失敗しました", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Identity{}, apperr.Auth(errorMessage(resp.Body), nil)
	}

	var id Identity
	if err := decodeBody(resp.Body, &id); err != nil {
		return Identity{}, apperr.Auth("トークン検証結果の解析に失敗しました", err)
	}
	return id, nil
}

// decodeBody は検証関数のbodyをデコードする。
// bodyがJSON文字列の場合は中身をもう一度JSONとしてデコードする。
func decodeBody(body json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return errors.New("bodyが空です")
	}

	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return err
		}
		trimmed = []byte(inner)
	}
	return json.Unmarshal(trimmed, v)
}

// errorMessage は失敗応答のbodyからエラーメッセージを取り出す。
func errorMessage(body json.RawMessage) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := decodeBody(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}

	// bodyがJSONではない素の文字列の場合はそのまま使う
	var text string
	if err := json.Unmarshal(body, &text); err == nil && text != "" && !json.Valid([]byte(text)) {
		return text
	}
	return defaultInvalidTokenMessage
}
