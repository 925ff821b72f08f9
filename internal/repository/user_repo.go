package repository

import (
	"Orion_Tube/internal/model"
	"context"

	"gorm.io/gorm"
)

// 用户仓库：只有seeder建用户，频道查询走VideoRepository的子查询
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}
