package service

import (
	"Orion_Tube/internal/apperr"
	"Orion_Tube/internal/data"
	"Orion_Tube/internal/model"
	"Orion_Tube/internal/repository"
	"Orion_Tube/pkg/logger"
	"Orion_Tube/pkg/metrics"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

const (
	TransitionCreated  = "created"
	TransitionRemoved  = "removed"
	TransitionSwitched = "switched"
)

// VoteResult 投票之后视频的计数，以及调用者当前的投票状态（nil表示没有投票）
type VoteResult struct {
	Likes    uint64
	Dislikes uint64
	UserVote *model.VoteValue
}

type VoteService interface {
	Vote(ctx context.Context, userID, videoID uint64, direction string) (*VoteResult, error)
}

type voteService struct {
	uow       data.UnitOfWork
	videoRepo repository.VideoRepository
}

func NewVoteService(uow data.UnitOfWork, videoRepo repository.VideoRepository) VoteService {
	return &voteService{
		uow:       uow,
		videoRepo: videoRepo,
	}
}

// 投票：1、校验方向，只认like/dislike 2、事务内FOR UPDATE锁住视频行 3、读出当前投票，按状态机增/删/改投票记录
// 4、基于锁住的计数算出新的绝对值写回 5、提交后让首页缓存失效
// 同一视频的投票在行锁上串行，计数始终等于投票记录的条数
func (s *voteService) Vote(ctx context.Context, userID, videoID uint64, direction string) (*VoteResult, error) {
	const op = "service.Vote"

	value, ok := model.ParseVoteValue(direction)
	if !ok {
		return nil, apperr.InvalidInput(op, "Invalid vote")
	}

	logCtx := logger.Log.WithField("user_id", userID).WithField("video_id", videoID).WithField("vote", direction)

	var (
		result     VoteResult
		transition string
	)
	err := s.uow.Execute(ctx, func(repos *data.TransactionalRepositories) error {
		video, err := repos.VideoRepo.FindByIDForUpdate(ctx, videoID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(op, "video not found", err)
			}
			return err
		}

		existing, err := repos.VoteRepo.FindByUserAndVideo(ctx, userID, videoID)
		if err != nil {
			return err
		}

		var current *model.VoteValue
		if existing != nil {
			current = &existing.Value
		}
		step := nextVoteState(current, value)

		switch step.transition {
		case TransitionCreated:
			err = repos.VoteRepo.Create(ctx, &model.VideoVote{UserID: userID, VideoID: videoID, Value: value})
		case TransitionRemoved:
			err = repos.VoteRepo.Delete(ctx, existing.ID)
		case TransitionSwitched:
			err = repos.VoteRepo.UpdateValue(ctx, existing.ID, value)
		}
		if err != nil {
			return err
		}

		likes, err := applyDelta(video.Likes, step.likesDelta)
		if err != nil {
			return apperr.Internal(op, "likes counter drift", err)
		}
		dislikes, err := applyDelta(video.Dislikes, step.dislikesDelta)
		if err != nil {
			return apperr.Internal(op, "dislikes counter drift", err)
		}
		if err := repos.VideoRepo.UpdateVoteCounts(ctx, videoID, likes, dislikes); err != nil {
			return err
		}

		result = VoteResult{Likes: likes, Dislikes: dislikes, UserVote: step.next}
		transition = step.transition
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			logCtx.WithError(err).Error("投票事务失败")
		}
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperr.Internal(op, "vote", err)
	}

	metrics.VotesTotal.WithLabelValues(transition).Inc()
	if err := s.videoRepo.InvalidateFeedCache(ctx); err != nil {
		logCtx.WithError(err).Warn("首页缓存失效失败")
	}
	logCtx.WithField("transition", transition).Info("投票成功")
	return &result, nil
}

type voteStep struct {
	transition    string
	next          *model.VoteValue
	likesDelta    int
	dislikesDelta int
}

// nextVoteState 投票状态机：
// 无 -> V：新建，V计数+1；V -> V：撤销，V计数-1；V -> W：改票，W+1，V-1
func nextVoteState(current *model.VoteValue, value model.VoteValue) voteStep {
	delta := func(v model.VoteValue, n int) (int, int) {
		if v == model.VoteLike {
			return n, 0
		}
		return 0, n
	}

	next := value
	switch {
	case current == nil:
		l, d := delta(value, 1)
		return voteStep{transition: TransitionCreated, next: &next, likesDelta: l, dislikesDelta: d}
	case *current == value:
		l, d := delta(value, -1)
		return voteStep{transition: TransitionRemoved, next: nil, likesDelta: l, dislikesDelta: d}
	default:
		l1, d1 := delta(value, 1)
		l2, d2 := delta(*current, -1)
		return voteStep{transition: TransitionSwitched, next: &next, likesDelta: l1 + l2, dislikesDelta: d1 + d2}
	}
}

// 计数不能减成负数，出现说明计数和投票记录已经不一致
func applyDelta(count uint64, delta int) (uint64, error) {
	if delta < 0 && count < uint64(-delta) {
		return 0, fmt.Errorf("counter %d cannot move by %d", count, delta)
	}
	if delta < 0 {
		return count - uint64(-delta), nil
	}
	return count + uint64(delta), nil
}
