package middleware

import (
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/moviesearch/internal/utils"
)

// Logger 请求日志中间件，静态资源和健康检查不记录
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if path == "/health" || strings.HasPrefix(path, "/static/") {
			return
		}

		kind := "page"
		if c.GetHeader("HX-Request") == "true" {
			kind = "htmx"
		}

		// IP 只记录哈希
		log.Printf("[HTTP] %s %s %s ip=%s status=%d latency=%v",
			kind,
			c.Request.Method,
			path,
			utils.HashIP(c.ClientIP()),
			c.Writer.Status(),
			time.Since(start),
		)
	}
}
