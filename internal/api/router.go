package api

import (
	"github.com/getsentry/sentry-go"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/boehs/truthsocial/internal/api/handler"
)

// NewRouter 组装路由与中间件
func NewRouter(mode string, h *handler.Handler) *gin.Engine {
	gin.SetMode(mode)
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(recoverWithSentry())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(otelgin.Middleware("truthsocial"))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/statuses", h.Publish)
		v1.POST("/statuses/favourite", h.Favourite)
		v1.GET("/notifications/:account_id", h.ListNotifications)

		rel := v1.Group("/relations")
		{
			rel.POST("/follow", h.Follow)
			rel.POST("/unfollow", h.Unfollow)
			rel.POST("/block", h.Block)
			rel.POST("/mute", h.Mute)
			rel.GET("/:user_id/following", h.ListFollowing)
			rel.GET("/:user_id/fans", h.ListFans)
		}
	}
	return r
}

// recoverWithSentry panic 恢复并上报
func recoverWithSentry() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		sentry.CurrentHub().Recover(err)
		c.AbortWithStatus(500)
	})
}
