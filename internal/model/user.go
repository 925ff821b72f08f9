package model

// 视频的所属者，频道页按Username查找；Password只由seeder写入bcrypt哈希
// Video会Preload User再整体写进Redis，所以Password不参与JSON序列化
type User struct {
	BaseModel        // 包括 ID, CreatedAt, UpdatedAt, DeletedAt
	Username  string `gorm:"type:varchar(150);unique;not null"`
	Password  string `gorm:"not null" json:"-"`
}
