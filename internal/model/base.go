package model

import (
	"time"

	"gorm.io/gorm"
)

// 所有表统一使用uint64主键，gorm.Model里的ID是uint，所以单独定义
// 视频和投票的删除走Unscoped硬删除，DeletedAt只对用户表生效
type BaseModel struct {
	ID        uint64 `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
