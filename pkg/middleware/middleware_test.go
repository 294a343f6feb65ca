package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nao1215/enrollment/pkg/httpclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestRequestID はRequestIDミドルウェアを検証する。
func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("IDが無い場合はUUIDを生成しヘッダーとcontextに設定すること", func(t *testing.T) {
		t.Parallel()

		var fromContext, fromGin string
		router := gin.New()
		router.Use(RequestID())
		router.GET("/health", func(c *gin.Context) {
			fromGin = GetRequestID(c)
			fromContext = httpclient.RequestIDFrom(c.Request.Context())
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		got := w.Header().Get(HeaderRequestID)
		if _, err := uuid.Parse(got); err != nil {
			t.Fatalf("X-Request-ID = %q はUUIDであるべき: %v", got, err)
		}
		if fromGin != got {
			t.Errorf("GetRequestID() = %q, want %q", fromGin, got)
		}
		if fromContext != got {
			t.Errorf("contextのリクエストID = %q, want %q", fromContext, got)
		}
	})

	t.Run("クライアントが送ったIDを引き継ぐこと", func(t *testing.T) {
		t.Parallel()

		router := gin.New()
		router.Use(RequestID())
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(HeaderRequestID, "client-id-1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get(HeaderRequestID); got != "client-id-1" {
			t.Errorf("X-Request-ID = %q, want %q", got, "client-id-1")
		}
	})

	t.Run("RequestID未適用ならGetRequestIDは空文字列", func(t *testing.T) {
		t.Parallel()

		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		if got := GetRequestID(c); got != "" {
			t.Errorf("GetRequestID() = %q, want empty string", got)
		}
	})
}

// TestLogger はLoggerミドルウェアを検証する。
func TestLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		wantLevel zapcore.Level
	}{
		{name: "2xxはInfo", status: http.StatusOK, wantLevel: zapcore.InfoLevel},
		{name: "4xxはWarn", status: http.StatusNotFound, wantLevel: zapcore.WarnLevel},
		{name: "5xxはError", status: http.StatusInternalServerError, wantLevel: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.DebugLevel)
			router := gin.New()
			router.Use(RequestID(), Logger(zap.New(core)))
			router.GET("/api/v1/enrollments", func(c *gin.Context) { c.Status(tt.status) })

			req := httptest.NewRequest(http.MethodGet, "/api/v1/enrollments", nil)
			req.Header.Set(HeaderRequestID, "req-log")
			router.ServeHTTP(httptest.NewRecorder(), req)

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("ログ件数 = %d, want 1", len(entries))
			}
			if entries[0].Level != tt.wantLevel {
				t.Errorf("ログレベル = %v, want %v", entries[0].Level, tt.wantLevel)
			}
			fields := entries[0].ContextMap()
			if fields["status"] != int64(tt.status) {
				t.Errorf("status = %v, want %d", fields["status"], tt.status)
			}
			if fields["request_id"] != "req-log" {
				t.Errorf("request_id = %v, want %q", fields["request_id"], "req-log")
			}
		})
	}
}

// TestRateLimit はRateLimitミドルウェアを検証する。
func TestRateLimit(t *testing.T) {
	t.Parallel()

	router := gin.New()
	// 補充がほぼ発生しないレートでバースト2に制限する
	router.Use(RateLimit(0.001, 2))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes = append(codes, w.Code)
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("%d回目のステータスコード = %d, want %d", i+1, codes[i], want[i])
		}
	}
}

// TestMetrics はMetricsミドルウェアを検証する。
func TestMetrics(t *testing.T) {
	t.Parallel()

	m := NewHTTPMetrics(prometheus.NewRegistry())
	router := gin.New()
	router.Use(Metrics(m))
	router.GET("/api/v1/enrollments", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/enrollments?tenant_id=T1", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/enrollments", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/enrollments", "200")); got != 2 {
		t.Errorf("enrollmentsのリクエスト数 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")); got != 1 {
		t.Errorf("未定義パスのリクエスト数 = %v, want 1", got)
	}
}
