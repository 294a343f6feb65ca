package auth

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/nao1215/enrollment/internal/config"
)

// NewValidator は設定の認証モードに応じたValidatorを生成する。
func NewValidator(ctx context.Context, cfg config.AuthConfig) (Validator, error) {
	switch cfg.Mode {
	case config.AuthModeHTTP:
		return NewHTTPValidator(cfg.URL), nil
	case config.AuthModeLambda:
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("AWS設定の読み込みに失敗: %w", err)
		}
		return NewLambdaValidator(lambda.NewFromConfig(awsCfg), cfg.FunctionName), nil
	case config.AuthModeJWT:
		return NewJWTValidator(cfg.JWTSecret), nil
	default:
		return nil, fmt.Errorf("不明な認証モード: %q", cfg.Mode)
	}
}
