package service

import (
	"Orion_Tube/internal/apperr"
	"Orion_Tube/internal/model"
	"Orion_Tube/internal/repository"
	"Orion_Tube/pkg/logger"
	"Orion_Tube/pkg/metrics"
	"Orion_Tube/pkg/rabbitmq"
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MediaOpDeleteVideo     = "delete_video"
	MediaOpDeleteThumbnail = "delete_thumbnail"
	MediaOpUploadThumbnail = "upload_thumbnail"
	MediaOpRollbackUpload  = "rollback_upload"
)

// MediaEventPublisher 被吞掉的媒体托管失败通过它发出去，RabbitMQ实现见pkg/rabbitmq
type MediaEventPublisher interface {
	PublishMediaFailure(ctx context.Context, msg rabbitmq.MediaFailureMessage) error
}

// reportMediaFailure 媒体托管失败不影响请求结果，但必须留下痕迹：Warn日志 + 指标 + 事件
func reportMediaFailure(ctx context.Context, publisher MediaEventPublisher, msg rabbitmq.MediaFailureMessage) {
	if msg.EventID == "" {
		msg.EventID = uuid.NewString()
	}
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = time.Now()
	}

	logCtx := logger.Log.WithField("op", msg.Op).
		WithField("file_id", msg.FileID).
		WithField("video_id", msg.VideoID).
		WithField("event_id", msg.EventID)
	logCtx.WithField("error", msg.Error).Warn("媒体托管调用失败，已忽略")
	metrics.MediaFailuresTotal.WithLabelValues(msg.Op).Inc()

	if publisher == nil {
		return
	}
	// 请求的ctx可能已经被取消，发布事件单独给一个短超时
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := publisher.PublishMediaFailure(pubCtx, msg); err != nil {
		logCtx.WithError(err).Error("媒体失败事件发布失败")
	}
}

// MediaFailureService consumer侧：把队列里的媒体失败事件落库
type MediaFailureService interface {
	Record(ctx context.Context, msg rabbitmq.MediaFailureMessage) error
}

type mediaFailureService struct {
	repo repository.MediaFailureRepository
}

func NewMediaFailureService(repo repository.MediaFailureRepository) MediaFailureService {
	return &mediaFailureService{repo: repo}
}

// Record 重复的event_id视为已处理，返回nil；缺少event_id或op的消息返回校验错误，不应重试
func (s *mediaFailureService) Record(ctx context.Context, msg rabbitmq.MediaFailureMessage) error {
	const op = "service.MediaFailure.Record"
	if msg.EventID == "" || msg.Op == "" {
		return apperr.InvalidInput(op, "event_id and op are required")
	}
	occurredAt := msg.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	failure := &model.MediaFailure{
		EventID:    msg.EventID,
		Op:         msg.Op,
		FileID:     msg.FileID,
		FileName:   msg.FileName,
		VideoID:    msg.VideoID,
		UserID:     msg.UserID,
		Error:      msg.Error,
		OccurredAt: occurredAt,
	}
	err := s.repo.Create(ctx, failure)
	if err == nil {
		return nil
	}
	if isDuplicateKey(err) {
		logger.Log.WithField("event_id", msg.EventID).Warn("媒体失败事件重复消费，按成功处理")
		return nil
	}
	return apperr.Internal(op, "persist media failure", err)
}

// 1062 就是MySQL的 "Duplicate entry"；其他方言靠gorm的TranslateError
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
