package service

import (
	"Orion_Tube/internal/apperr"
	"Orion_Tube/internal/data"
	"Orion_Tube/internal/media"
	"Orion_Tube/internal/model"
	"Orion_Tube/internal/repository"
	"Orion_Tube/pkg/logger"
	"Orion_Tube/pkg/metrics"
	"Orion_Tube/pkg/rabbitmq"
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// 首页共享查库的上限，和单个请求的ctx无关
const feedQueryTimeout = 10 * time.Second

// VideoDetail 详情页：视频（views已经+1）以及当前观看者的投票
type VideoDetail struct {
	Video    *model.Video
	UserVote *model.VoteValue
}

type VideoService interface {
	ListVideos(ctx context.Context) ([]model.Video, error)
	// viewerID为nil表示匿名访问
	GetVideoDetail(ctx context.Context, videoID uint64, viewerID *uint64) (*VideoDetail, error)
	ListChannelVideos(ctx context.Context, username string) ([]model.Video, error)
	DeleteVideo(ctx context.Context, userID, videoID uint64) error
}

type videoService struct {
	sf singleflight.Group

	videoRepo repository.VideoRepository
	voteRepo  repository.VoteRepository
	uow       data.UnitOfWork
	store     media.Store
	publisher MediaEventPublisher
	feedTTL   time.Duration
}

func NewVideoService(videoRepo repository.VideoRepository, voteRepo repository.VoteRepository, uow data.UnitOfWork,
	store media.Store, publisher MediaEventPublisher, feedTTL time.Duration) VideoService {
	return &videoService{
		videoRepo: videoRepo,
		voteRepo:  voteRepo,
		uow:       uow,
		store:     store,
		publisher: publisher,
		feedTTL:   feedTTL,
	}
}

// 首页视频流：1、查Redis缓存，同时拿到缓存代数 2、未命中通过SingleFlight查库，同一时刻同一代数只有一个请求打到数据库
// 3、按查库前的代数写回缓存，期间有写入的话这份快照不会再被读到
// 共享的查库不跟随任何一个调用方的ctx，调用方取消只影响自己
// Redis出错不影响结果，直接查库
func (s *videoService) ListVideos(ctx context.Context) ([]model.Video, error) {
	const op = "service.ListVideos"

	videos, gen, err := s.videoRepo.GetFeedCache(ctx)
	if err != nil {
		logger.Log.WithError(err).Warn("读取首页缓存失败，回源数据库")
	} else if videos != nil {
		metrics.FeedCacheTotal.WithLabelValues("hit").Inc()
		return videos, nil
	}
	metrics.FeedCacheTotal.WithLabelValues("miss").Inc()

	ch := s.sf.DoChan(fmt.Sprintf("video_feed:%d", gen), func() (interface{}, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), feedQueryTimeout)
		defer cancel()

		dbVideos, dbErr := s.videoRepo.FindAll(sharedCtx)
		if dbErr != nil {
			return nil, dbErr
		}
		if err := s.videoRepo.SetFeedCache(sharedCtx, gen, dbVideos, s.feedTTL); err != nil {
			logger.Log.WithError(err).Warn("写入首页缓存失败")
		}
		return dbVideos, nil
	})

	select {
	case <-ctx.Done():
		return nil, apperr.Internal(op, "list videos", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, apperr.Internal(op, "list videos", res.Err)
		}
		return res.Val.([]model.Video), nil
	}
}

// 视频详情：1、查视频，不存在返回NotFound 2、views原子+1，只更新这一列 3、登录用户再查自己的投票
func (s *videoService) GetVideoDetail(ctx context.Context, videoID uint64, viewerID *uint64) (*VideoDetail, error) {
	const op = "service.GetVideoDetail"

	video, err := s.videoRepo.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(op, "video not found", err)
		}
		return nil, apperr.Internal(op, "find video", err)
	}

	if err := s.videoRepo.IncrementViews(ctx, videoID); err != nil {
		// 查到之后、加浏览量之前被删掉了
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(op, "video not found", err)
		}
		return nil, apperr.Internal(op, "increment views", err)
	}
	video.Views++
	metrics.VideoViewsTotal.Inc()

	detail := &VideoDetail{Video: video}
	if viewerID != nil {
		vote, err := s.voteRepo.FindByUserAndVideo(ctx, *viewerID, videoID)
		if err != nil {
			return nil, apperr.Internal(op, "find viewer vote", err)
		}
		if vote != nil {
			value := vote.Value
			detail.UserVote = &value
		}
	}
	return detail, nil
}

// 频道页，用户名不存在时返回空列表而不是NotFound
func (s *videoService) ListChannelVideos(ctx context.Context, username string) ([]model.Video, error) {
	videos, err := s.videoRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, apperr.Internal("service.ListChannelVideos", "list channel videos", err)
	}
	if videos == nil {
		videos = []model.Video{}
	}
	return videos, nil
}

// 删除视频：1、按ID+所属者查找，不存在和不是自己的统一返回NotFound 2、删除媒体托管上的文件，失败只记录
// 3、事务内先删该视频的全部投票，再删视频 4、让首页缓存失效
func (s *videoService) DeleteVideo(ctx context.Context, userID, videoID uint64) error {
	const op = "service.DeleteVideo"
	logCtx := logger.Log.WithField("user_id", userID).WithField("video_id", videoID)

	video, err := s.videoRepo.FindByIDAndOwner(ctx, videoID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(op, "video not found", err)
		}
		return apperr.Internal(op, "find video", err)
	}

	s.deleteRemote(ctx, video, MediaOpDeleteVideo, video.FileID)
	if video.ThumbnailFileID != "" {
		s.deleteRemote(ctx, video, MediaOpDeleteThumbnail, video.ThumbnailFileID)
	}

	err = s.uow.Execute(ctx, func(repos *data.TransactionalRepositories) error {
		if err := repos.VoteRepo.DeleteByVideo(ctx, videoID); err != nil {
			return err
		}
		return repos.VideoRepo.Delete(ctx, videoID)
	})
	if err != nil {
		logCtx.WithError(err).Error("删除视频记录失败")
		return apperr.Internal(op, "delete video", err)
	}

	if err := s.videoRepo.InvalidateFeedCache(ctx); err != nil {
		logCtx.WithError(err).Warn("首页缓存失效失败")
	}
	logCtx.Info("视频删除成功")
	return nil
}

func (s *videoService) deleteRemote(ctx context.Context, video *model.Video, mediaOp, fileID string) {
	if err := s.store.Delete(ctx, fileID); err != nil {
		reportMediaFailure(ctx, s.publisher, rabbitmq.MediaFailureMessage{
			Op:      mediaOp,
			FileID:  fileID,
			VideoID: video.ID,
			UserID:  video.UserID,
			Error:   err.Error(),
		})
	}
}
