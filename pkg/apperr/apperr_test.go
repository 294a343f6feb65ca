package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

// TestStatusOf は種別ごとのHTTPステータス対応を検証する。
func TestStatusOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "認証エラーは401", err: Auth("トークンが無効です", nil), want: http.StatusUnauthorized},
		{name: "認可エラーは403", err: Permission("権限がありません"), want: http.StatusForbidden},
		{name: "検証エラーは400", err: Validation("必須項目がありません"), want: http.StatusBadRequest},
		{name: "未検出は404", err: NotFound("見つかりません"), want: http.StatusNotFound},
		{name: "永続化エラーは500", err: Persistence("保存に失敗", errors.New("boom")), want: http.StatusInternalServerError},
		{name: "種別なしのエラーは500", err: errors.New("unknown"), want: http.StatusInternalServerError},
		{name: "ラップされた種別付きエラーも判定できる", err: fmt.Errorf("外側: %w", NotFound("内側")), want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StatusOf(tt.err); got != tt.want {
				t.Errorf("StatusOf() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestError はエラー文字列とUnwrapを検証する。
func TestError(t *testing.T) {
	t.Parallel()

	t.Run("原因がある場合はメッセージと原因を連結すること", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("connection refused")
		err := Auth("トークンの検証に失敗", cause)

		if got := err.Error(); got != "トークンの検証に失敗: connection refused" {
			t.Errorf("Error() = %q", got)
		}
		if !errors.Is(err, cause) {
			t.Error("errors.Isで原因を辿れるべき")
		}
	})

	t.Run("MessageOfは原因を含めないこと", func(t *testing.T) {
		t.Parallel()

		err := Persistence("保存に失敗しました", errors.New("disk full"))
		if got := MessageOf(err, "fallback"); got != "保存に失敗しました" {
			t.Errorf("MessageOf() = %q, want %q", got, "保存に失敗しました")
		}
	})

	t.Run("MessageOfは空のエラーでfallbackを返すこと", func(t *testing.T) {
		t.Parallel()

		if got := MessageOf(errors.New(""), "内部エラー"); got != "内部エラー" {
			t.Errorf("MessageOf() = %q, want %q", got, "内部エラー")
		}
	})

	t.Run("Isは種別を判定できること", func(t *testing.T) {
		t.Parallel()

		if !Is(Validation("x"), KindValidation) {
			t.Error("Validationエラーを判定できるべき")
		}
		if Is(nil, KindUnhandled) {
			t.Error("nilはどの種別にも該当しないべき")
		}
	})
}
