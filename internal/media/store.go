package media

import (
	"context"
	"io"
)

// UploadResult 媒体托管方返回的对象标识和公开访问地址
type UploadResult struct {
	FileID string
	URL    string
}

// Store 媒体托管端口，service层只依赖这个接口
type Store interface {
	Upload(ctx context.Context, r io.Reader, size int64, fileName, contentType string) (*UploadResult, error)
	// UploadImage 上传data URL形式的图片（前端canvas截出来的缩略图）
	UploadImage(ctx context.Context, dataURL, fileName string) (*UploadResult, error)
	Delete(ctx context.Context, fileID string) error
}
