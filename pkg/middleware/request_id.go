package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nao1215/enrollment/pkg/httpclient"
)

const (
	// HeaderRequestID はリクエストIDを運ぶHTTPヘッダーキー。
	HeaderRequestID = "X-Request-ID"
	// contextKeyRequestID はリクエストIDをGinコンテキストに保存するキー。
	contextKeyRequestID = "request_id"
)

// RequestID はリクエストごとにIDを割り当てるGinミドルウェアを返す。
// クライアントが X-Request-ID を送ってきた場合はそれを引き継ぐ。
// IDはレスポンスヘッダーとリクエストのcontextにも設定され、
// httpclient経由の外部呼び出しに伝播する。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(contextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(httpclient.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// GetRequestID はGinコンテキストからリクエストIDを取得する。
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(contextKeyRequestID); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
