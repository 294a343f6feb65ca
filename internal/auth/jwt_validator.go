package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenIssuer は開発用トークンの発行者。
const tokenIssuer = "enrollment-dev"

// Claims は開発用トークンのクレーム。
type Claims struct {
	jwt.RegisteredClaims
	// TenantID は利用者が所属するテナントのID。
	TenantID string `json:"tenant_id"`
	// UserID は利用者の一意識別子。
	UserID string `json:"user_id"`
	// Role は利用者のロール。
	Role Role `json:"role"`
}

// IssueToken は利用者情報からHS256署名のトークンを生成する。
// JWTValidator と組み合わせてローカル開発やテストで使用する。
func IssueToken(secret string, id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   id.UserID,
		},
		TenantID: id.TenantID,
		UserID:   id.UserID,
		Role:     id.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// JWTValidator はHS256トークンをプロセス内で検証する。
// 外部のトークン検証関数が用意できない開発環境向けで、
// 応答はリモートの検証関数と同じ {statusCode, body} 形式で返す。
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator は新しいJWTValidatorを生成する。
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

// Validate はトークンの署名と有効期限を検証する。
func (v *JWTValidator) Validate(_ context.Context, token string) (*Response, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		body, _ := json.Marshal(map[string]string{"error": defaultInvalidTokenMessage})
		return &Response{StatusCode: http.StatusUnauthorized, Body: body}, nil
	}

	body, err := json.Marshal(Identity{
		TenantID: claims.TenantID,
		UserID:   claims.UserID,
		Role:     claims.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("利用者情報のシリアライズに失敗: %w", err)
	}
	return &Response{StatusCode: http.StatusOK, Body: body}, nil
}
