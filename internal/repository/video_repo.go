package repository

import (
	"Orion_Tube/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 首页视频流的缓存，整体存一个JSON，key带代数；上传、投票、删除时代数+1，旧代数的key不再被读到，等TTL自然过期
const (
	keyVideoFeed    = "video:feed:%d"
	keyVideoFeedGen = "video:feed:gen"
)

type VideoRepository interface {
	Create(ctx context.Context, video *model.Video) error
	FindAll(ctx context.Context) ([]model.Video, error)
	FindByID(ctx context.Context, videoID uint64) (*model.Video, error)
	// 带锁的查找，只能在事务里用
	FindByIDForUpdate(ctx context.Context, videoID uint64) (*model.Video, error)
	FindByIDAndOwner(ctx context.Context, videoID, userID uint64) (*model.Video, error)
	FindByUsername(ctx context.Context, username string) ([]model.Video, error)
	IncrementViews(ctx context.Context, videoID uint64) error
	UpdateVoteCounts(ctx context.Context, videoID, likes, dislikes uint64) error
	Delete(ctx context.Context, videoID uint64) error

	// 返回当前代数；回写时必须带上查库之前读到的代数
	GetFeedCache(ctx context.Context) ([]model.Video, int64, error)
	SetFeedCache(ctx context.Context, gen int64, videos []model.Video, ttl time.Duration) error
	InvalidateFeedCache(ctx context.Context) error

	WithTx(tx *gorm.DB) VideoRepository
}

type videoRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// rdb可以为nil（consumer、seeder和测试里不接Redis），此时缓存操作全部直接跳过
func NewVideoRepository(db *gorm.DB, rdb *redis.Client) VideoRepository {
	return &videoRepository{
		db:  db,
		rdb: rdb,
	}
}

// WithTx 返回一个绑定事务的videoRepository，事务中不操作Redis
func (r *videoRepository) WithTx(tx *gorm.DB) VideoRepository {
	return &videoRepository{
		db: tx,
	}
}

func (r *videoRepository) Create(ctx context.Context, video *model.Video) error {
	return r.db.WithContext(ctx).Create(video).Error
}

// 全部视频，新的在前；同一时间创建的按ID倒序，保证顺序稳定
func (r *videoRepository) FindAll(ctx context.Context) ([]model.Video, error) {
	var videos []model.Video
	err := r.db.WithContext(ctx).Preload("User").Order("created_at desc").Order("id desc").Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

func (r *videoRepository) FindByID(ctx context.Context, videoID uint64) (*model.Video, error) {
	var video model.Video
	err := r.db.WithContext(ctx).Preload("User").First(&video, videoID).Error
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *videoRepository) FindByIDForUpdate(ctx context.Context, videoID uint64) (*model.Video, error) {
	var video model.Video
	// SELECT * FROM `videos` WHERE `id` = ? LIMIT 1 FOR UPDATE;
	// 排他锁一直持有到事务结束，同一视频的投票在这里排队
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&video, videoID).Error
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// 按ID+所属者查找；视频不存在和不属于该用户返回同一个ErrRecordNotFound
func (r *videoRepository) FindByIDAndOwner(ctx context.Context, videoID, userID uint64) (*model.Video, error) {
	var video model.Video
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", videoID, userID).First(&video).Error
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// 频道页：按上传者用户名查，用户不存在时返回空列表
func (r *videoRepository) FindByUsername(ctx context.Context, username string) ([]model.Video, error) {
	var videos []model.Video
	owners := r.db.Model(&model.User{}).Select("id").Where("username = ?", username)
	err := r.db.WithContext(ctx).Preload("User").
		Where("user_id IN (?)", owners).
		Order("created_at desc").Order("id desc").
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// UPDATE `videos` SET `views` = `views` + 1 WHERE id = ?
// 只动views一列，不会覆盖并发投票写入的likes/dislikes
func (r *videoRepository) IncrementViews(ctx context.Context, videoID uint64) error {
	result := r.db.WithContext(ctx).Model(&model.Video{}).Where("id = ?", videoID).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// 写入绝对值而不是增量，值由调用方在持有行锁时算好
func (r *videoRepository) UpdateVoteCounts(ctx context.Context, videoID, likes, dislikes uint64) error {
	return r.db.WithContext(ctx).Model(&model.Video{}).Where("id = ?", videoID).
		UpdateColumns(map[string]interface{}{"likes": likes, "dislikes": dislikes}).Error
}

func (r *videoRepository) Delete(ctx context.Context, videoID uint64) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&model.Video{}, videoID).Error
}

// 缓存不存在时videos为nil；Redis本身出错才返回error
func (r *videoRepository) GetFeedCache(ctx context.Context) ([]model.Video, int64, error) {
	if r.rdb == nil {
		return nil, 0, nil
	}
	gen, err := r.rdb.Get(ctx, keyVideoFeedGen).Int64()
	if err == redis.Nil {
		gen = 0
	} else if err != nil {
		return nil, 0, err
	}

	feedJSON, err := r.rdb.Get(ctx, fmt.Sprintf(keyVideoFeed, gen)).Result()
	if err == redis.Nil {
		return nil, gen, nil
	} else if err != nil {
		return nil, gen, err
	}
	var videos []model.Video
	if err := json.Unmarshal([]byte(feedJSON), &videos); err != nil {
		return nil, gen, err
	}
	return videos, gen, nil
}

func (r *videoRepository) SetFeedCache(ctx context.Context, gen int64, videos []model.Video, ttl time.Duration) error {
	if r.rdb == nil {
		return nil
	}
	if videos == nil {
		videos = []model.Video{}
	}
	feedJSON, err := json.Marshal(videos)
	if err != nil {
		return err
	}
	// 过期时间加上随机抖动，防止缓存雪崩
	expiration := ttl + time.Duration(rand.Intn(5))*time.Second
	return r.rdb.Set(ctx, fmt.Sprintf(keyVideoFeed, gen), feedJSON, expiration).Err()
}

// 代数+1，查库期间发生的写入不会被慢请求的旧快照覆盖
func (r *videoRepository) InvalidateFeedCache(ctx context.Context) error {
	if r.rdb == nil {
		return nil
	}
	return r.rdb.Incr(ctx, keyVideoFeedGen).Err()
}
