package router

import (
	"Orion_Tube/internal/handler"
	"Orion_Tube/internal/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	JWTSecret           []byte
	UploadRatePerMinute int
	UploadRateBurst     int
}

func SetupRouter(videoHandler handler.VideoHandler, uploadHandler handler.UploadHandler, voteHandler handler.VoteHandler, opts Options) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.RequestID())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pang",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/feed", videoHandler.GetFeed)
		apiV1.GET("/videos/:video_id", middleware.OptionalAuth(opts.JWTSecret), videoHandler.GetVideoDetail)
		apiV1.GET("/channels/:username", videoHandler.GetChannelVideos)

		authorized := apiV1.Group("/")
		authorized.Use(middleware.AuthMiddleware(opts.JWTSecret))
		{
			authorized.POST("/videos/upload", middleware.RateLimit(opts.UploadRatePerMinute, opts.UploadRateBurst), uploadHandler.UploadVideo)

			authorized.POST("/videos/:video_id/vote", voteHandler.VoteVideo)

			authorized.POST("/videos/:video_id/delete", videoHandler.DeleteVideo)
			authorized.DELETE("/videos/:video_id", videoHandler.DeleteVideo)
		}
	}

	return r
}
