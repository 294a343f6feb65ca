// 履修登録サービスのエントリポイント。
// 設定の読み込み、トークン検証関数とストアの初期化を行い、HTTPサーバーを起動する。
// SIGINT/SIGTERMを受けると処理中のリクエストを待ってから停止する。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/enrollment/internal/auth"
	"github.com/nao1215/enrollment/internal/config"
	"github.com/nao1215/enrollment/internal/enrollment"
	"github.com/nao1215/enrollment/internal/store"
	"github.com/nao1215/enrollment/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd はサービス起動コマンドを生成する。
func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "enrollment",
		Short:        "履修登録サービスを起動する",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("ENROLLMENT_CONFIG"), "設定ファイルのパス")
	return cmd
}

// run は依存を組み立ててサーバーを起動し、シグナルを受けるまで待つ。
func run(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("ロガーの初期化に失敗: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("設定を読み込みました",
		zap.Int("port", cfg.Server.Port),
		zap.String("auth_mode", cfg.Auth.Mode),
		zap.String("store_driver", cfg.Store.Driver),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	validator, err := auth.NewValidator(ctx, cfg.Auth)
	if err != nil {
		return fmt.Errorf("トークン検証関数の初期化に失敗: %w", err)
	}

	var storeReg prometheus.Registerer
	if cfg.Metrics.Enabled {
		storeReg = reg
	}
	st, err := store.Open(ctx, cfg.Store, storeReg, logger)
	if err != nil {
		return fmt.Errorf("ストアの初期化に失敗: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("ストアのクローズに失敗しました", zap.Error(err))
		}
	}()

	server := enrollment.NewServer(cfg, enrollment.Deps{
		Gate:     auth.NewGate(validator),
		Store:    st,
		Logger:   logger,
		Registry: reg,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	logger.Info("シャットダウンを開始します", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("シャットダウンに失敗: %w", err)
	}
	logger.Info("シャットダウンが完了しました")
	return nil
}
