package repository

import (
	"Orion_Tube/internal/model"
	"context"

	"gorm.io/gorm"
)

type MediaFailureRepository interface {
	Create(ctx context.Context, failure *model.MediaFailure) error
	FindByEventID(ctx context.Context, eventID string) (*model.MediaFailure, error)
}

type mediaFailureRepository struct {
	db *gorm.DB
}

func NewMediaFailureRepository(db *gorm.DB) MediaFailureRepository {
	return &mediaFailureRepository{db: db}
}

// event_id唯一，重复消费时返回重复键错误，由调用方判断
func (r *mediaFailureRepository) Create(ctx context.Context, failure *model.MediaFailure) error {
	return r.db.WithContext(ctx).Create(failure).Error
}

func (r *mediaFailureRepository) FindByEventID(ctx context.Context, eventID string) (*model.MediaFailure, error) {
	var failure model.MediaFailure
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&failure).Error; err != nil {
		return nil, err
	}
	return &failure, nil
}
