package handler

import (
	"Orion_Tube/internal/dto"
	"Orion_Tube/internal/middleware"
	"Orion_Tube/internal/service"
	"Orion_Tube/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

type VideoHandler interface {
	GetFeed(c *gin.Context)
	GetVideoDetail(c *gin.Context)
	GetChannelVideos(c *gin.Context)
	DeleteVideo(c *gin.Context)
}

type videoHandler struct {
	VideoService service.VideoService
}

func NewVideoHandler(videoService service.VideoService) VideoHandler {
	return &videoHandler{VideoService: videoService}
}

// 首页视频流：全部视频，新的在前
func (h *videoHandler) GetFeed(c *gin.Context) {
	logCtx := logger.Log.WithField("ip", c.ClientIP())

	videos, err := h.VideoService.ListVideos(c.Request.Context())
	if err != nil {
		sendServiceError(c, logCtx, err, "获取视频流失败")
		return
	}

	response := dto.ToVideoListResponse(videos)
	logCtx.WithField("count", len(response)).Info("成功获取Feed流")
	c.JSON(http.StatusOK, gin.H{
		"message": "成功获取视频流",
		"data":    response,
	})
}

// 视频详情：1、解析video_id 2、可选登录，拿到观看者ID 3、service层计数+查投票
func (h *videoHandler) GetVideoDetail(c *gin.Context) {
	videoID, ok := parseVideoID(c)
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("video_id", videoID)

	var viewerID *uint64
	if userID, ok := middleware.CurrentUserID(c); ok {
		viewerID = &userID
		logCtx = logCtx.WithField("user_id", userID)
	}

	detail, err := h.VideoService.GetVideoDetail(c.Request.Context(), videoID, viewerID)
	if err != nil {
		sendServiceError(c, logCtx, err, "查找视频失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dto.ToVideoDetailResponse(detail.Video, detail.UserVote)})
}

// 频道页：用户名不存在时返回空列表
func (h *videoHandler) GetChannelVideos(c *gin.Context) {
	username := c.Param("username")
	logCtx := logger.Log.WithField("channel", username)

	videos, err := h.VideoService.ListChannelVideos(c.Request.Context(), username)
	if err != nil {
		sendServiceError(c, logCtx, err, "获取频道视频失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"channel_name": username,
		"data":         dto.ToVideoListResponse(videos),
	})
}

// 删除视频：只有上传者能删，别人的视频和不存在的视频一样返回404
func (h *videoHandler) DeleteVideo(c *gin.Context) {
	videoID, ok := parseVideoID(c)
	if !ok {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("user_id", userID).WithField("video_id", videoID)

	if err := h.VideoService.DeleteVideo(c.Request.Context(), userID, videoID); err != nil {
		sendServiceError(c, logCtx, err, "删除视频失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "video deleted"})
}
