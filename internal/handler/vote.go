package handler

import (
	"Orion_Tube/internal/dto"
	"Orion_Tube/internal/service"
	"Orion_Tube/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

type VoteHandler interface {
	VoteVideo(c *gin.Context)
}

type voteHandler struct {
	VoteService service.VoteService
}

func NewVoteHandler(voteService service.VoteService) VoteHandler {
	return &voteHandler{VoteService: voteService}
}

// 视频投票：1、从URL取video_id 2、从认证后的context取userID 3、表单字段vote为like/dislike 4、返回最新计数和当前投票
func (h *voteHandler) VoteVideo(c *gin.Context) {
	videoID, ok := parseVideoID(c)
	if !ok {
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	direction := c.PostForm("vote")
	logCtx := logger.Log.WithField("user_id", userID).WithField("video_id", videoID)

	result, err := h.VoteService.Vote(c.Request.Context(), userID, videoID, direction)
	if err != nil {
		sendServiceError(c, logCtx, err, "投票失败")
		return
	}
	c.JSON(http.StatusOK, dto.VoteResponse{
		Likes:    result.Likes,
		Dislikes: result.Dislikes,
		UserVote: dto.VoteString(result.UserVote),
	})
}
