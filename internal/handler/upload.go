package handler

import (
	"Orion_Tube/internal/apperr"
	"Orion_Tube/internal/middleware"
	"Orion_Tube/internal/service"
	"Orion_Tube/pkg/logger"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// 请求体上限：视频上限100MiB，再留16MiB给其他表单字段（缩略图的data URL）
const maxUploadBody = service.MaxVideoSize + 16<<20

type UploadHandler interface {
	UploadVideo(c *gin.Context)
}

type uploadHandler struct {
	UploadService service.UploadService
	maxBody       int64
}

func NewUploadHandler(uploadService service.UploadService) UploadHandler {
	return &uploadHandler{UploadService: uploadService, maxBody: maxUploadBody}
}

// 上传视频：1、限制请求体大小并解析multipart表单 2、取出title/description/thumbnail_data和video_file
// 3、service层校验并上传 4、返回video_id
func (h *uploadHandler) UploadVideo(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	logCtx := logger.Log.WithField("user_id", userID).WithField("username", c.GetString(middleware.ContextUsername))
	logCtx.Info("开始处理视频上传请求")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendServiceError(c, logCtx, apperr.Validation("handler.UploadVideo",
				apperr.FieldError{Field: service.FieldVideoFile, Message: "Video must be under 100mb"}), "上传参数校验失败")
			return
		}
		logCtx.WithError(err).Warn("上传表单解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}
	if c.Request.MultipartForm != nil {
		defer c.Request.MultipartForm.RemoveAll()
	}

	in := service.UploadInput{
		UserID:        userID,
		Title:         c.Request.FormValue("title"),
		Description:   c.Request.FormValue("description"),
		ThumbnailData: c.Request.FormValue("thumbnail_data"),
	}

	file, header, err := c.Request.FormFile("video_file")
	switch {
	case err == nil:
		defer file.Close()
		in.File = file
		in.FileName = header.Filename
		in.FileSize = header.Size
		in.ContentType = header.Header.Get("Content-Type")
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// 没有文件交给service层报"This field is required."
	default:
		logCtx.WithError(err).Warn("读取上传文件失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数")
		return
	}

	video, err := h.UploadService.Upload(c.Request.Context(), in)
	if err != nil {
		sendServiceError(c, logCtx, err, "视频上传失败")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"video_id": video.ID,
		"message":  "Video uploaded successfully",
	})
}
