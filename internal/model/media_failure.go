package model

import "time"

// 媒体托管调用被吞掉的失败记录，由consumer从队列落库，只用于排查，不做重试
type MediaFailure struct {
	BaseModel
	EventID    string    `gorm:"type:varchar(64);uniqueIndex;not null"` // 消息幂等键
	Op         string    `gorm:"type:varchar(64);not null"`
	FileID     string    `gorm:"type:varchar(255)"`
	FileName   string    `gorm:"type:varchar(255)"`
	VideoID    uint64    `gorm:"index"`
	UserID     uint64    `gorm:"index"`
	Error      string    `gorm:"type:text"`
	OccurredAt time.Time `gorm:"not null"`
}
