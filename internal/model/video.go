package model

// 标题最长200个字符，和数据库列宽保持一致
const TitleMaxLength = 200

// Video结构：上传者、标题、简介、媒体托管地址，以及浏览/赞/踩三个计数
type Video struct {
	BaseModel
	UserID          uint64 `gorm:"not null;index"`
	Title           string `gorm:"type:varchar(200);not null"`
	Description     string `gorm:"type:text"`
	FileID          string `gorm:"type:varchar(255);not null"` // 媒体托管方返回的对象标识，删除时使用
	VideoURL        string `gorm:"type:varchar(512);not null"`
	ThumbnailFileID string `gorm:"type:varchar(255)"`
	ThumbnailURL    string `gorm:"type:varchar(512)"` // 缩略图上传失败时为空
	Views           uint64 `gorm:"not null;default:0"`
	Likes           uint64 `gorm:"not null;default:0"`
	Dislikes        uint64 `gorm:"not null;default:0"`

	// 外键UserID和User表的ID
	User User `gorm:"foreignKey:UserID;references:ID"`
}
