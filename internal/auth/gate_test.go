package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/nao1215/enrollment/pkg/apperr"
)

// stubValidator は固定の応答を返すテスト用Validator。
type stubValidator struct {
	resp   *Response
	err    error
	tokens []string
}

// Validate は受け取ったトークンを記録し、固定の応答を返す。
func (s *stubValidator) Validate(_ context.Context, token string) (*Response, error) {
	s.tokens = append(s.tokens, token)
	return s.resp, s.err
}

// okResponse は成功応答を生成するヘルパー関数。
func okResponse(t *testing.T, id Identity) *Response {
	t.Helper()
	body, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("利用者情報のシリアライズに失敗: %v", err)
	}
	return &Response{StatusCode: http.StatusOK, Body: body}
}

// TestGateAuthenticate はAuthenticateの正常系と異常系を検証する。
func TestGateAuthenticate(t *testing.T) {
	t.Parallel()

	student := Identity{TenantID: "T1", UserID: "U1", Role: RoleStudent}

	t.Run("Bearerトークンを検証関数に渡して利用者情報を返すこと", func(t *testing.T) {
		t.Parallel()

		v := &stubValidator{resp: okResponse(t, student)}
		id, err := NewGate(v).Authenticate(context.Background(), "Bearer token-abc")
		if err != nil {
			t.Fatalf("Authenticate()でエラーが発生: %v", err)
		}
		if id != student {
			t.Errorf("Identity = %+v, want %+v", id, student)
		}
		if len(v.tokens) != 1 || v.tokens[0] != "token-abc" {
			t.Errorf("検証関数に渡したトークン = %v, want [token-abc]", v.tokens)
		}
	})

	t.Run("bodyがJSON文字列でも利用者情報をデコードできること", func(t *testing.T) {
		t.Parallel()

		inner, _ := json.Marshal(student)
		outer, _ := json.Marshal(string(inner))
		v := &stubValidator{resp: &Response{StatusCode: http.StatusOK, Body: outer}}

		id, err := NewGate(v).Authenticate(context.Background(), "Bearer t")
		if err != nil {
			t.Fatalf("Authenticate()でエラーが発生: %v", err)
		}
		if id != student {
			t.Errorf("Identity = %+v, want %+v", id, student)
		}
	})

	t.Run("ヘッダーが無い場合は検証関数を呼ばずに認証エラー", func(t *testing.T) {
		t.Parallel()

		v := &stubValidator{resp: okResponse(t, student)}
		_, err := NewGate(v).Authenticate(context.Background(), "")
		if !apperr.Is(err, apperr.KindAuth) {
			t.Fatalf("認証エラーが返るべき: %v", err)
		}
		if len(v.tokens) != 0 {
			t.Error("検証関数が呼ばれるべきではない")
		}
	})

	t.Run("Bearer以外の形式は認証エラー", func(t *testing.T) {
		t.Parallel()

		v := &stubValidator{resp: okResponse(t, student)}
		for _, header := range []string{"Basic dXNlcjpwYXNz", "Bearer ", "token-only"} {
			if _, err := NewGate(v).Authenticate(context.Background(), header); !apperr.Is(err, apperr.KindAuth) {
				t.Errorf("header=%q: 認証エラーが返るべき: %v", header, err)
			}
		}
		if len(v.tokens) != 0 {
			t.Error("検証関数が呼ばれるべきではない")
		}
	})

	t.Run("200以外の応答はbodyのエラーメッセージを持つ認証エラー", func(t *testing.T) {
		t.Parallel()

		v := &stubValidator{resp: &Response{StatusCode: http.StatusForbidden, Body: json.RawMessage(`{"error":"トークンが期限切れです"}`)}}
		_, err := NewGate(v).Authenticate(context.Background(), "Bearer t")
		if !apperr.Is(err, apperr.KindAuth) {
			t.Fatalf("認証エラーが返るべき: %v", err)
		}
		if got := apperr.MessageOf(err, ""); got != "トークンが期限切れです" {
			t.Errorf("メッセージ = %q, want %q", got, "トークンが期限切れです")
		}
	})

	t.Run("エラー内容が無い失敗応答は既定のメッセージ", func(t *testing.T) {
		t.Parallel()

		v := &stubValidator{resp: &Response{StatusCode: http.StatusUnauthorized}}
		_, err := NewGate(v).Authenticate(context.Background(), "Bearer t")
		if got := apperr.MessageOf(err, ""); got != defaultInvalidTokenMessage {
			t.Errorf("メッセージ = %q, want %q", got, defaultInvalidTokenMessage)
		}
	})

	t.Run("素の文字列bodyはそのままメッセージになること", func(t *testing.T) {
		t.Parallel()

		v := &stubValidator{resp: &Response{StatusCode: http.StatusUnauthorized, Body: json.RawMessage(`"revoked"`)}}
		_, err := NewGate(v).Authenticate(context.Background(), "Bearer t")
		if got := apperr.MessageOf(err, ""); got != "revoked" {
			t.Errorf("メッセージ = %q, want %q", got, "revoked")
		}
	})

	t.Run("検証関数の呼び出し失敗は原因を保持した認証エラー", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("connection refused")
		v := &stubValidator{err: cause}
		_, err := NewGate(v).Authenticate(context.Background(), "Bearer t")
		if !apperr.Is(err, apperr.KindAuth) {
			t.Fatalf("認証エラーが返るべき: %v", err)
		}
		if !errors.Is(err, cause) {
			t.Error("原因のエラーを辿れるべき")
		}
	})

	t.Run("成功応答のbodyが解析できない場合は認証エラー", func(t *testing.T) {
		t.Parallel()

		v := &stubValidator{resp: &Response{StatusCode: http.StatusOK, Body: json.RawMessage(`"not-json"`)}}
		_, err := NewGate(v).Authenticate(context.Background(), "Bearer t")
		if !apperr.Is(err, apperr.KindAuth) {
			t.Fatalf("認証エラーが返るべき: %v", err)
		}
		if !strings.Contains(err.Error(), "解析に失敗") {
			t.Errorf("エラー = %q", err.Error())
		}
	})
}
