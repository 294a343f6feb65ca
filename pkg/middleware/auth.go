package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/nao1215/enrollment/internal/auth"
	"github.com/nao1215/enrollment/pkg/apperr"
	"go.uber.org/zap"
)

// contextKeyIdentity は認証済み利用者情報をGinコンテキストに保存するキー。
const contextKeyIdentity = "identity"

// Authenticate はAuthorizationヘッダーのBearerトークンを gate で検証するGinミドルウェアを返す。
// 検証に成功した場合、コンテキストに利用者情報を設定する。
// 失敗した場合はエラー種別に応じたステータスで {"error": "..."} を返して中断する。
func Authenticate(gate *auth.Gate, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := gate.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			logger.Warn("認証に失敗しました",
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(apperr.StatusOf(err), gin.H{
				"error": apperr.MessageOf(err, "認証に失敗しました"),
			})
			return
		}

		c.Set(contextKeyIdentity, id)
		c.Next()
	}
}

// GetIdentity はGinコンテキストから認証済み利用者情報を取得する。
// Authenticateミドルウェアが事前に適用されている必要がある。
func GetIdentity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(contextKeyIdentity)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}
