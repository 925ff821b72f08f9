package service

import (
	"Orion_Tube/internal/apperr"
	"Orion_Tube/internal/data"
	"Orion_Tube/internal/database"
	"Orion_Tube/internal/media"
	"Orion_Tube/internal/model"
	"Orion_Tube/internal/repository"
	"Orion_Tube/pkg/rabbitmq"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"
)

// fakeStore 记录媒体托管调用，按需返回错误
type fakeStore struct {
	mu        sync.Mutex
	uploads   []string
	images    []string
	deletes   []string
	uploadErr error
	imageErr  error
	deleteErr error
}

var _ media.Store = (*fakeStore)(nil)

func (f *fakeStore) Upload(ctx context.Context, r io.Reader, size int64, fileName, contentType string) (*media.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, fileName)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &media.UploadResult{FileID: "videos/" + fileName, URL: "https://media.test/videos/" + fileName}, nil
}

func (f *fakeStore) UploadImage(ctx context.Context, dataURL, fileName string) (*media.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images = append(f.images, fileName)
	if f.imageErr != nil {
		return nil, f.imageErr
	}
	return &media.UploadResult{FileID: "thumbnails/" + fileName, URL: "https://media.test/thumbnails/" + fileName}, nil
}

func (f *fakeStore) Delete(ctx context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, fileID)
	return f.deleteErr
}

func (f *fakeStore) remoteCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads) + len(f.images) + len(f.deletes)
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []rabbitmq.MediaFailureMessage
}

func (p *fakePublisher) PublishMediaFailure(ctx context.Context, msg rabbitmq.MediaFailureMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func (p *fakePublisher) ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var ops []string
	for _, m := range p.messages {
		ops = append(ops, m.Op)
	}
	return ops
}

type testEnv struct {
	db        *gorm.DB
	videoRepo repository.VideoRepository
	voteRepo  repository.VoteRepository
	store     *fakeStore
	publisher *fakePublisher

	uploads UploadService
	votes   VoteService
	videos  VideoService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "orion_tube_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	videoRepo := repository.NewVideoRepository(db, nil)
	voteRepo := repository.NewVoteRepository(db)
	uow := data.NewUnitOfWork(db, videoRepo, voteRepo)
	store := &fakeStore{}
	publisher := &fakePublisher{}

	return &testEnv{
		db:        db,
		videoRepo: videoRepo,
		voteRepo:  voteRepo,
		store:     store,
		publisher: publisher,
		uploads:   NewUploadService(videoRepo, store, publisher),
		votes:     NewVoteService(uow, videoRepo),
		videos:    NewVideoService(videoRepo, voteRepo, uow, store, publisher, time.Minute),
	}
}

func (e *testEnv) createUser(t *testing.T, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, Password: "x"}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (e *testEnv) createVideo(t *testing.T, owner *model.User, title string) *model.Video {
	t.Helper()
	video := &model.Video{
		UserID:   owner.ID,
		Title:    title,
		FileID:   "videos/" + title,
		VideoURL: "https://media.test/videos/" + title,
	}
	if err := e.db.Create(video).Error; err != nil {
		t.Fatalf("create video: %v", err)
	}
	return video
}

func (e *testEnv) reloadVideo(t *testing.T, id uint64) *model.Video {
	t.Helper()
	var video model.Video
	if err := e.db.First(&video, id).Error; err != nil {
		t.Fatalf("reload video %d: %v", id, err)
	}
	return &video
}

func (e *testEnv) countVotes(t *testing.T, videoID uint64, value model.VoteValue) uint64 {
	t.Helper()
	n, err := e.voteRepo.CountByValue(context.Background(), videoID, value)
	if err != nil {
		t.Fatalf("count votes: %v", err)
	}
	return n
}

var errRemote = errors.New("media host unavailable")

func asAppErr(err error, target **apperr.Error) bool {
	return errors.As(err, target)
}
