package middleware

import (
	"crypto/subtle"

	"sos-http-service/config"
	"sos-http-service/internal/error/code"
	"sos-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

var apiKey string

// InitAuthMiddleware 初始化认证中间件
func InitAuthMiddleware(cfg *config.Config) {
	apiKey = cfg.APIKey
}

// RequireAPIKey 校验X-API-Key请求头
// 未配置SOS_API_KEY时为开放访问：灾害场景下网关拿不到密钥也不能丢包
func RequireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		provided := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			response.Fail(c, code.ErrAPIKeyInvalid, nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
