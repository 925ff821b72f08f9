package data

import (
	"Orion_Tube/internal/repository"
	"context"

	"gorm.io/gorm"
)

// UnitOfWork 事务管理器
type UnitOfWork interface {
	// Execute 把fn包在一个数据库事务里执行，fn返回error则整体回滚
	Execute(ctx context.Context, fn func(repos *TransactionalRepositories) error) error
}

// TransactionalRepositories 同一个事务里要用到的Repository
type TransactionalRepositories struct {
	VideoRepo repository.VideoRepository
	VoteRepo  repository.VoteRepository
}

type gormUnitOfWork struct {
	db        *gorm.DB
	videoRepo repository.VideoRepository
	voteRepo  repository.VoteRepository
}

// NewUnitOfWork 接收的是非事务的repositories，Execute时再通过WithTx绑定事务
func NewUnitOfWork(db *gorm.DB, videoRepo repository.VideoRepository, voteRepo repository.VoteRepository) UnitOfWork {
	return &gormUnitOfWork{
		db:        db,
		videoRepo: videoRepo,
		voteRepo:  voteRepo,
	}
}

func (u *gormUnitOfWork) Execute(ctx context.Context, fn func(repos *TransactionalRepositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 一次性的、绑定当前事务的Repo副本
		return fn(&TransactionalRepositories{
			VideoRepo: u.videoRepo.WithTx(tx),
			VoteRepo:  u.voteRepo.WithTx(tx),
		})
	})
}
