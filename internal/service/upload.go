package service

import (
	"Orion_Tube/internal/apperr"
	"Orion_Tube/internal/media"
	"Orion_Tube/internal/model"
	"Orion_Tube/internal/repository"
	"Orion_Tube/pkg/logger"
	"Orion_Tube/pkg/metrics"
	"Orion_Tube/pkg/rabbitmq"
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// MaxVideoSize 100 MiB，等于这个值仍然允许
const MaxVideoSize int64 = 100 * 1024 * 1024

const (
	FieldTitle     = "title"
	FieldVideoFile = "video_file"

	msgRequired      = "This field is required."
	msgVideoTooLarge = "Video must be under 100mb"
	msgVideoType     = "This video type not allowed"
	msgEmptyFile     = "The submitted file is empty."
)

var allowedVideoTypes = map[string]bool{
	"video/mp4":       true,
	"video/webm":      true,
	"video/quicktime": true,
	"video/x-msvideo": true,
}

// UploadInput 一次上传表单提交；File为nil表示没有选择文件
type UploadInput struct {
	UserID        uint64
	Title         string
	Description   string
	File          io.Reader
	FileName      string
	FileSize      int64
	ContentType   string
	ThumbnailData string
}

type UploadService interface {
	Upload(ctx context.Context, in UploadInput) (*model.Video, error)
}

type uploadService struct {
	videoRepo repository.VideoRepository
	store     media.Store
	publisher MediaEventPublisher
}

func NewUploadService(videoRepo repository.VideoRepository, store media.Store, publisher MediaEventPublisher) UploadService {
	return &uploadService{
		videoRepo: videoRepo,
		store:     store,
		publisher: publisher,
	}
}

// 上传视频：1、校验全部字段，有问题直接返回，不碰媒体托管 2、上传视频文件，失败则整体失败
// 3、有data:image缩略图就上传，失败只记录 4、写入videos表，失败则回收已上传的文件 5、让首页缓存失效
func (s *uploadService) Upload(ctx context.Context, in UploadInput) (*model.Video, error) {
	const op = "service.Upload"

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if fields := validateUpload(in); len(fields) > 0 {
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return nil, apperr.Validation(op, fields...)
	}

	logCtx := logger.Log.WithField("user_id", in.UserID).WithField("file_name", in.FileName)

	uploaded, err := s.store.Upload(ctx, in.File, in.FileSize, in.FileName, normalizeContentType(in.ContentType))
	if err != nil {
		logCtx.WithError(err).Error("视频上传到媒体托管失败")
		metrics.UploadsTotal.WithLabelValues("remote_error").Inc()
		return nil, apperr.Remote(op, err.Error(), err)
	}

	video := &model.Video{
		UserID:      in.UserID,
		Title:       in.Title,
		Description: in.Description,
		FileID:      uploaded.FileID,
		VideoURL:    uploaded.URL,
	}

	if in.ThumbnailData != "" && media.IsImageDataURL(in.ThumbnailData) {
		thumbName := thumbnailName(in.FileName)
		thumb, err := s.store.UploadImage(ctx, in.ThumbnailData, thumbName)
		if err != nil {
			reportMediaFailure(ctx, s.publisher, rabbitmq.MediaFailureMessage{
				Op:       MediaOpUploadThumbnail,
				FileName: thumbName,
				UserID:   in.UserID,
				Error:    err.Error(),
			})
		} else {
			video.ThumbnailFileID = thumb.FileID
			video.ThumbnailURL = thumb.URL
		}
	}

	if err := s.videoRepo.Create(ctx, video); err != nil {
		logCtx.WithError(err).Error("视频记录写入失败，回收已上传的文件")
		s.rollbackUpload(ctx, in.UserID, video.FileID, video.ThumbnailFileID)
		metrics.UploadsTotal.WithLabelValues("internal_error").Inc()
		return nil, apperr.Internal(op, "save video", err)
	}

	if err := s.videoRepo.InvalidateFeedCache(ctx); err != nil {
		logCtx.WithError(err).Warn("首页缓存失效失败")
	}
	metrics.UploadsTotal.WithLabelValues("success").Inc()
	logCtx.WithField("video_id", video.ID).Info("视频上传成功")
	return video, nil
}

func (s *uploadService) rollbackUpload(ctx context.Context, userID uint64, fileIDs ...string) {
	for _, fileID := range fileIDs {
		if fileID == "" {
			continue
		}
		if err := s.store.Delete(ctx, fileID); err != nil {
			reportMediaFailure(ctx, s.publisher, rabbitmq.MediaFailureMessage{
				Op:     MediaOpRollbackUpload,
				FileID: fileID,
				UserID: userID,
				Error:  err.Error(),
			})
		}
	}
}

// validateUpload 收集所有字段的问题，而不是遇到第一个就返回
func validateUpload(in UploadInput) []apperr.FieldError {
	var fields []apperr.FieldError

	if in.Title == "" {
		fields = append(fields, apperr.FieldError{Field: FieldTitle, Message: msgRequired})
	} else if n := utf8.RuneCountInString(in.Title); n > model.TitleMaxLength {
		fields = append(fields, apperr.FieldError{
			Field:   FieldTitle,
			Message: fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", model.TitleMaxLength, n),
		})
	}

	if in.File == nil {
		fields = append(fields, apperr.FieldError{Field: FieldVideoFile, Message: msgRequired})
		return fields
	}
	if in.FileSize == 0 {
		fields = append(fields, apperr.FieldError{Field: FieldVideoFile, Message: msgEmptyFile})
		return fields
	}
	if in.FileSize > MaxVideoSize {
		fields = append(fields, apperr.FieldError{Field: FieldVideoFile, Message: msgVideoTooLarge})
	}
	if !allowedVideoTypes[normalizeContentType(in.ContentType)] {
		fields = append(fields, apperr.FieldError{Field: FieldVideoFile, Message: msgVideoType})
	}
	return fields
}

// "video/mp4; codecs=avc1" -> "video/mp4"
func normalizeContentType(ct string) string {
	mediaType, _, _ := strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// clip.final.mp4 -> clip.final_thumb.jpg；没有扩展名时整个文件名作为前缀
func thumbnailName(fileName string) string {
	base := fileName
	if i := strings.LastIndex(fileName, "."); i >= 0 {
		base = fileName[:i]
	}
	return base + "_thumb.jpg"
}
