package enrollment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nao1215/enrollment/internal/auth"
	"github.com/nao1215/enrollment/internal/config"
	"github.com/nao1215/enrollment/internal/store"
	"github.com/nao1215/enrollment/pkg/apperr"
	"github.com/nao1215/enrollment/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps はサーバーが利用する外部依存。mainで1度だけ生成して渡す。
type Deps struct {
	// Gate はBearerトークンを検証する認証ゲート。
	Gate *auth.Gate
	// Store は履修登録レコードの保存先。
	Store store.Store
	// Logger は構造化ロガー。
	Logger *zap.Logger
	// Registry はメトリクスの登録先。nilならメトリクスを公開しない。
	Registry *prometheus.Registry
}

// Server は履修登録サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// httpServer はリッスン中のHTTPサーバー。
	httpServer *http.Server
	// store は履修登録レコードの保存先。
	store store.Store
	// validate はリクエストのバリデーター。
	validate *validator.Validate
	// logger は構造化ロガー。
	logger *zap.Logger
}

// NewServer は新しい履修登録サーバーを生成する。
func NewServer(cfg *config.Config, deps Deps) *Server {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Recovery(deps.Logger),
		middleware.Logger(deps.Logger),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)
	if cfg.Metrics.Enabled && deps.Registry != nil {
		router.Use(middleware.Metrics(middleware.NewHTTPMetrics(deps.Registry)))
	}
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	}

	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		store:    deps.Store,
		validate: newValidator(),
		logger:   deps.Logger,
	}
	s.setupRoutes(deps.Gate)

	if cfg.Metrics.Enabled && deps.Registry != nil {
		s.router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	return s
}

// Handler はサーバーのHTTPハンドラーを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動する。Shutdownによる停止ではnilを返す。
func (s *Server) Run() error {
	s.logger.Info("HTTPサーバーを起動します", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
	}
	return nil
}

// Shutdown は処理中のリクエストの完了を待ってサーバーを停止する。
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes(gate *auth.Gate) {
	api := s.router.Group("/api/v1")
	api.Use(middleware.Authenticate(gate, s.logger))
	{
		enrollments := api.Group("/enrollments")
		{
			// 履修登録
			enrollments.POST("", s.handleCreate())
			// 履修登録の参照
			enrollments.GET("", s.handleRead())
			// 履修登録の更新
			enrollments.PUT("", s.handleUpdate())
			// 履修登録の削除
			enrollments.DELETE("", s.handleDelete())
		}
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "enrollment"})
	})
}

// enrollmentResponse は履修登録参照のJSONレスポンス構造。
type enrollmentResponse struct {
	TenantID     string         `json:"tenant_id"`
	UserID       string         `json:"user_id"`
	Period       string         `json:"period"`
	Courses      []store.Course `json:"courses"`
	TotalCredits float64        `json:"total_credits"`
}

// authorize はコンテキストの利用者が op を実行できるか確認する。
func authorize(c *gin.Context, op auth.Operation) error {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		return apperr.Auth("利用者情報が取得できません", nil)
	}
	return auth.Authorize(id, op)
}

// handleCreate は履修登録を処理するハンドラを返す。
// 同じキーのレコードが既にあれば置き換える。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authorize(c, auth.OperationCreate); err != nil {
			s.respondError(c, err)
			return
		}

		req, err := s.bindWrite(c)
		if err != nil {
			s.respondError(c, err)
			return
		}

		if err := s.store.Put(c.Request.Context(), req.record()); err != nil {
			s.respondError(c, apperr.Persistence("履修登録の保存に失敗しました", err))
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": "履修登録が完了しました"})
	}
}

// handleRead は履修登録の参照を処理するハンドラを返す。
func (s *Server) handleRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authorize(c, auth.OperationRead); err != nil {
			s.respondError(c, err)
			return
		}

		req, err := s.bindKey(c)
		if err != nil {
			s.respondError(c, err)
			return
		}

		rec, err := s.store.Get(c.Request.Context(), req.key())
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(c, apperr.NotFound("履修登録が見つかりません"))
			return
		}
		if err != nil {
			s.respondError(c, apperr.Persistence("履修登録の取得に失敗しました", err))
			return
		}

		c.JSON(http.StatusOK, enrollmentResponse{
			TenantID:     req.TenantID,
			UserID:       req.UserID,
			Period:       rec.SortKey,
			Courses:      rec.Courses,
			TotalCredits: rec.TotalCredits,
		})
	}
}

// handleUpdate は履修登録の更新を処理するハンドラを返す。
// 登録と同じく無条件に置き換える。
func (s *Server) handleUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authorize(c, auth.OperationUpdate); err != nil {
			s.respondError(c, err)
			return
		}

		req, err := s.bindWrite(c)
		if err != nil {
			s.respondError(c, err)
			return
		}

		if err := s.store.Put(c.Request.Context(), req.record()); err != nil {
			s.respondError(c, apperr.Persistence("履修登録の更新に失敗しました", err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "履修登録を更新しました"})
	}
}

// handleDelete は履修登録の削除を処理するハンドラを返す。
// 存在しないキーの削除も成功として扱う。
func (s *Server) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authorize(c, auth.OperationDelete); err != nil {
			s.respondError(c, err)
			return
		}

		req, err := s.bindKey(c)
		if err != nil {
			s.respondError(c, err)
			return
		}

		if err := s.store.Delete(c.Request.Context(), req.key()); err != nil {
			s.respondError(c, apperr.Persistence("履修登録の削除に失敗しました", err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "履修登録を削除しました"})
	}
}

// respondError はエラー種別に応じたステータスで {"error": "..."} を返す。
// 500系は原因を含めてログに出力する。
func (s *Server) respondError(c *gin.Context, err error) {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("リクエストの処理に失敗しました",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": apperr.MessageOf(err, "内部サーバーエラーが発生しました")})
}
