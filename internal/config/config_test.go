package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 環境変数を書き換えるテストがあるためt.Parallelは使用しない。

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, AuthModeHTTP, cfg.Auth.Mode)
	assert.Equal(t, "ValidarTokenAcceso", cfg.Auth.FunctionName)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "t_matriculas", cfg.Store.DynamoDB.Table)
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ENROLLMENT_SERVER_PORT", "9000")
	t.Setenv("ENROLLMENT_STORE_DRIVER", "redis")
	t.Setenv("ENROLLMENT_STORE_REDIS_ADDR", "redis:6379")
	t.Setenv("ENROLLMENT_AUTH_MODE", "jwt")
	t.Setenv("ENROLLMENT_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("ENROLLMENT_SERVER_READ_TIMEOUT", "5s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, AuthModeJWT, cfg.Auth.Mode)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
}

func TestLoad_JWTModeRequiresSecret(t *testing.T) {
	// 署名鍵は既定値を持たないため、指定しなければ起動できない
	t.Setenv("ENROLLMENT_AUTH_MODE", "jwt")

	_, err := Load("")
	assert.ErrorContains(t, err, "auth.jwt_secret")
}

func TestLoad_PortEnvironment(t *testing.T) {
	t.Setenv("PORT", "8083")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8083, cfg.Server.Port)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 7070
store:
  driver: dynamodb
  dynamodb:
    table: t_enrollments
    region: us-east-1
auth:
  mode: lambda
  function_name: token-check
cors:
  allowed_origins:
    - https://example.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, DriverDynamoDB, cfg.Store.Driver)
	assert.Equal(t, "t_enrollments", cfg.Store.DynamoDB.Table)
	assert.Equal(t, "us-east-1", cfg.Store.DynamoDB.Region)
	assert.Equal(t, AuthModeLambda, cfg.Auth.Mode)
	assert.Equal(t, "token-check", cfg.Auth.FunctionName)
	assert.Equal(t, []string{"https://example.com"}, cfg.CORS.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: 8080},
			Auth:    AuthConfig{Mode: AuthModeHTTP, URL: "http://auth"},
			Store:   StoreConfig{Driver: DriverSQLite, SQLite: SQLiteConfig{Path: ":memory:"}},
			Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "正しい設定", mutate: func(*Config) {}, wantErr: false},
		{name: "ポートが範囲外", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "不明な認証モード", mutate: func(c *Config) { c.Auth.Mode = "oauth" }, wantErr: true},
		{name: "httpモードでURLなし", mutate: func(c *Config) { c.Auth.URL = "" }, wantErr: true},
		{name: "lambdaモードで関数名なし", mutate: func(c *Config) { c.Auth.Mode = AuthModeLambda }, wantErr: true},
		{name: "jwtモードで鍵なし", mutate: func(c *Config) { c.Auth.Mode = AuthModeJWT }, wantErr: true},
		{name: "不明なドライバ", mutate: func(c *Config) { c.Store.Driver = "mysql" }, wantErr: true},
		{name: "postgresでDSNなし", mutate: func(c *Config) { c.Store.Driver = DriverPostgres }, wantErr: true},
		{name: "dynamodbでテーブルなし", mutate: func(c *Config) { c.Store.Driver = DriverDynamoDB }, wantErr: true},
		{
			name: "レート制限が有効で値が0",
			mutate: func(c *Config) {
				c.RateLimit = RateLimitConfig{Enabled: true}
			},
			wantErr: true,
		},
		{name: "メトリクスのパスが不正", mutate: func(c *Config) { c.Metrics.Path = "metrics" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
