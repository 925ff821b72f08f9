package repository

import (
	"Orion_Tube/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type VoteRepository interface {
	// 没有投过票时返回(nil, nil)
	FindByUserAndVideo(ctx context.Context, userID, videoID uint64) (*model.VideoVote, error)
	Create(ctx context.Context, vote *model.VideoVote) error
	UpdateValue(ctx context.Context, voteID uint64, value model.VoteValue) error
	Delete(ctx context.Context, voteID uint64) error
	DeleteByVideo(ctx context.Context, videoID uint64) error
	CountByValue(ctx context.Context, videoID uint64, value model.VoteValue) (uint64, error)

	WithTx(tx *gorm.DB) VoteRepository
}

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) WithTx(tx *gorm.DB) VoteRepository {
	return &voteRepository{db: tx}
}

func (r *voteRepository) FindByUserAndVideo(ctx context.Context, userID, videoID uint64) (*model.VideoVote, error) {
	var vote model.VideoVote
	err := r.db.WithContext(ctx).Where("user_id = ? AND video_id = ?", userID, videoID).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *voteRepository) Create(ctx context.Context, vote *model.VideoVote) error {
	return r.db.WithContext(ctx).Create(vote).Error
}

func (r *voteRepository) UpdateValue(ctx context.Context, voteID uint64, value model.VoteValue) error {
	return r.db.WithContext(ctx).Model(&model.VideoVote{}).Where("id = ?", voteID).Update("value", value).Error
}

// 必须硬删除：软删除的行还占着(user_id, video_id)唯一索引，再次投票会冲突
func (r *voteRepository) Delete(ctx context.Context, voteID uint64) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&model.VideoVote{}, voteID).Error
}

func (r *voteRepository) DeleteByVideo(ctx context.Context, videoID uint64) error {
	return r.db.WithContext(ctx).Unscoped().Where("video_id = ?", videoID).Delete(&model.VideoVote{}).Error
}

func (r *voteRepository) CountByValue(ctx context.Context, videoID uint64, value model.VoteValue) (uint64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.VideoVote{}).Where("video_id = ? AND value = ?", videoID, value).Count(&count).Error
	return uint64(count), err
}
