package metric

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware records request metrics for every matched route.
func Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		endpoint := ctx.FullPath()
		if endpoint == "" {
			// Unmatched routes are aggregated to keep label cardinality bounded.
			endpoint = "unmatched"
		}

		RecordHTTPMetrics(ctx.Request.Method, endpoint, ctx.Writer.Status(), time.Since(start))
	}
}
