package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/nao1215/enrollment/pkg/httpclient"
)

// HTTPValidator はHTTPエンドポイントとして公開されたトークン検証関数を呼び出す。
//
// エンドポイントは {statusCode, body} 形式の応答を返すことを想定するが、
// HTTPステータスで結果を表現するエンドポイント（成功時に利用者情報を直接返し、
// 失敗時に4xxと {"error": "..."} を返す）にも対応する。
type HTTPValidator struct {
	client *httpclient.Client
}

// NewHTTPValidator は指定URLを呼び出すHTTPValidatorを生成する。
func NewHTTPValidator(url string) *HTTPValidator {
	return &HTTPValidator{client: httpclient.New(url)}
}

// Validate はトークンを検証関数に送信し、応答を返す。
func (v *HTTPValidator) Validate(ctx context.Context, token string) (*Response, error) {
	var raw json.RawMessage
	err := v.client.PostJSON(ctx, "", tokenRequest{Token: token}, &raw)

	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("トークン検証関数がエラーを返しました: %w", err)
		}
		return &Response{StatusCode: statusErr.StatusCode, Body: statusErr.Body}, nil
	}
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("トークン検証応答のデコードに失敗: %w", err)
	}
	if resp.StatusCode == 0 {
		// 封筒形式ではない応答は本体そのものを利用者情報とみなす
		return &Response{StatusCode: http.StatusOK, Body: raw}, nil
	}
	return &resp, nil
}
