// Package config は履修登録サービスの設定管理を提供する。
//
// 設定はデフォルト値、YAMLファイル、環境変数（ENROLLMENT_ プレフィックス）の順に
// 上書きされる。ポート番号はコンテナ実行環境に合わせて PORT 環境変数も参照する。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 認証モード。
const (
	// AuthModeHTTP はHTTPエンドポイントのトークン検証関数を呼び出す。
	AuthModeHTTP = "http"
	// AuthModeLambda はAWS Lambdaのトークン検証関数を呼び出す。
	AuthModeLambda = "lambda"
	// AuthModeJWT はHS256トークンをプロセス内で検証する。開発用。
	AuthModeJWT = "jwt"
)

// ストアドライバ。
const (
	// DriverSQLite はSQLiteを使用する。
	DriverSQLite = "sqlite"
	// DriverPostgres はPostgreSQLを使用する。
	DriverPostgres = "postgres"
	// DriverRedis はRedisを使用する。
	DriverRedis = "redis"
	// DriverDynamoDB はDynamoDBを使用する。
	DriverDynamoDB = "dynamodb"
)

// envPrefix は環境変数のプレフィックス。
const envPrefix = "ENROLLMENT"

// Config はサービス全体の設定。
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Store     StoreConfig     `mapstructure:"store"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig はHTTPサーバーの設定。
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AuthConfig はトークン検証の設定。
type AuthConfig struct {
	// Mode は検証方式（http / lambda / jwt）。
	Mode string `mapstructure:"mode"`
	// URL はHTTPモードで呼び出す検証エンドポイント。
	URL string `mapstructure:"url"`
	// FunctionName はLambdaモードで呼び出す関数名。
	FunctionName string `mapstructure:"function_name"`
	// Region はLambdaモードのAWSリージョン。空の場合はSDKの既定値に従う。
	Region string `mapstructure:"region"`
	// JWTSecret はJWTモードの署名検証鍵。
	JWTSecret string `mapstructure:"jwt_secret"`
}

// StoreConfig は永続化ストアの設定。
type StoreConfig struct {
	Driver   string         `mapstructure:"driver"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	DynamoDB DynamoDBConfig `mapstructure:"dynamodb"`
}

// SQLiteConfig はSQLiteの設定。
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig はPostgreSQLの設定。
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// RedisConfig はRedisの設定。
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// DynamoDBConfig はDynamoDBの設定。
type DynamoDBConfig struct {
	Table    string `mapstructure:"table"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

// CORSConfig はCORSの設定。
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig はレート制限の設定。
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// MetricsConfig はPrometheusメトリクスの設定。
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig はログ出力の設定。
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load は設定ファイルと環境変数から設定を読み込む。
// configPathが空の場合はカレントディレクトリと /etc/enrollment/ の config.yaml を探し、
// 見つからなければデフォルト値と環境変数のみを使用する。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/enrollment/")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", envPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("環境変数のバインドに失敗: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("設定のデコードに失敗: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定が不正です: %w", err)
	}
	return &cfg, nil
}

// setDefaults はデフォルト値を設定する。
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("auth.mode", AuthModeHTTP)
	v.SetDefault("auth.url", "http://localhost:8090/validate")
	v.SetDefault("auth.function_name", "ValidarTokenAcceso")
	v.SetDefault("auth.region", "")
	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.sqlite.path", "/data/enrollment.db")
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("store.postgres.max_conns", 10)
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.key_prefix", "enrollment")
	v.SetDefault("store.dynamodb.table", "t_matriculas")
	v.SetDefault("store.dynamodb.region", "")
	v.SetDefault("store.dynamodb.endpoint", "")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests_per_second", 100.0)
	v.SetDefault("rate_limit.burst", 50)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate は設定値の整合性を検証する。
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("サーバーポートが不正です: %d", c.Server.Port)
	}

	switch c.Auth.Mode {
	case AuthModeHTTP:
		if c.Auth.URL == "" {
			return errors.New("httpモードではauth.urlが必要です")
		}
	case AuthModeLambda:
		if c.Auth.FunctionName == "" {
			return errors.New("lambdaモードではauth.function_nameが必要です")
		}
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			return errors.New("jwtモードではauth.jwt_secretが必要です")
		}
	default:
		return fmt.Errorf("不明な認証モード: %q", c.Auth.Mode)
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLite.Path == "" {
			return errors.New("store.sqlite.pathが必要です")
		}
	case DriverPostgres:
		if c.Store.Postgres.DSN == "" {
			return errors.New("store.postgres.dsnが必要です")
		}
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			return errors.New("store.redis.addrが必要です")
		}
	case DriverDynamoDB:
		if c.Store.DynamoDB.Table == "" {
			return errors.New("store.dynamodb.tableが必要です")
		}
	default:
		return fmt.Errorf("不明なストアドライバ: %q", c.Store.Driver)
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond <= 0 {
			return errors.New("rate_limit.requests_per_secondは正の値である必要があります")
		}
		if c.RateLimit.Burst <= 0 {
			return errors.New("rate_limit.burstは正の値である必要があります")
		}
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.pathは/で始まる必要があります: %q", c.Metrics.Path)
	}
	return nil
}

// Addr はサーバーのリッスンアドレスを返す。
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
