package store

import (
	"context"
	"fmt"

	"github.com/nao1215/enrollment/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Open は設定のドライバーに応じたStoreを生成する。
// reg が nil でなければ操作メトリクスを記録するデコレーターで包む。
func Open(ctx context.Context, cfg config.StoreConfig, reg prometheus.Registerer, logger *zap.Logger) (Store, error) {
	var (
		s   Store
		err error
	)

	switch cfg.Driver {
	case config.DriverSQLite:
		s, err = NewSQLite(ctx, cfg.SQLite.Path, logger)
	case config.DriverPostgres:
		s, err = NewPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, logger)
	case config.DriverRedis:
		s, err = NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.KeyPrefix)
	case config.DriverDynamoDB:
		s, err = NewDynamoDBFromConfig(ctx, cfg.DynamoDB.Table, cfg.DynamoDB.Region, cfg.DynamoDB.Endpoint)
	default:
		return nil, fmt.Errorf("不明なストアドライバー: %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("ストアを初期化しました", zap.String("driver", cfg.Driver))

	if reg == nil {
		return s, nil
	}
	return Instrument(s, cfg.Driver, NewMetrics(reg)), nil
}
