package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
)

// LambdaInvoker はLambda関数の同期呼び出しを行うクライアント。
// *lambda.Client が満たす。
type LambdaInvoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaValidator はAWS Lambdaとしてデプロイされたトークン検証関数を呼び出す。
type LambdaValidator struct {
	client       LambdaInvoker
	functionName string
}

// NewLambdaValidator は新しいLambdaValidatorを生成する。
func NewLambdaValidator(client LambdaInvoker, functionName string) *LambdaValidator {
	return &LambdaValidator{client: client, functionName: functionName}
}

// Validate は {token} をペイロードとしてLambda関数を呼び出し、応答を返す。
func (v *LambdaValidator) Validate(ctx context.Context, token string) (*Response, error) {
	payload, err := json.Marshal(tokenRequest{Token: token})
	if err != nil {
		return nil, fmt.Errorf("ペイロードのシリアライズに失敗: %w", err)
	}

	out, err := v.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(v.functionName),
		Payload:      payload,
	})
	if err != nil {
		return nil, fmt.Errorf("Lambda関数 %s の呼び出しに失敗: %w", v.functionName, err)
	}
	if out.FunctionError != nil {
		return nil, fmt.Errorf("Lambda関数 %s が異常終了しました: %s: %s",
			v.functionName, aws.ToString(out.FunctionError), string(out.Payload))
	}

	var resp Response
	if err := json.Unmarshal(out.Payload, &resp); err != nil {
		return nil, fmt.Errorf("Lambda応答のデコードに失敗: %w", err)
	}
	return &resp, nil
}
