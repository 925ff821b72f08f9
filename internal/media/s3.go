package media

import (
	"Orion_Tube/internal/config"
	"Orion_Tube/pkg/logger"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// S3Store 基于S3协议的媒体托管，本地开发对接MinIO
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	region   string
	baseURL  string
	timeout  time.Duration
}

var _ Store = (*S3Store)(nil)

func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	if cfg.S3Bucket == "" || cfg.S3Endpoint == "" {
		return nil, errors.New("S3_BUCKET和S3_ENDPOINT必须配置")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")),
	)
	if err != nil {
		return nil, errors.Wrap(err, "加载S3配置失败")
	}

	// MinIO不支持虚拟主机风格的bucket域名，必须用path style
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3EndpointURL())
		o.UsePathStyle = true
	})

	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.S3Bucket,
		region:   cfg.S3Region,
		baseURL:  strings.TrimRight(cfg.PublicBaseURL(), "/"),
		timeout:  cfg.MediaTimeout,
	}, nil
}

// EnsureBucket 启动时检查bucket，不存在就创建
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	logger.Log.WithField("bucket", s.bucket).Info("bucket不存在，开始创建")

	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	// us-east-1不能显式指定LocationConstraint
	if s.region != "" && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}
	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		return errors.Wrapf(err, "创建bucket %s 失败", s.bucket)
	}
	return nil
}

func (s *S3Store) Upload(ctx context.Context, r io.Reader, size int64, fileName, contentType string) (*UploadResult, error) {
	key := objectKey("videos", fileName)
	if err := s.put(ctx, key, r, size, contentType); err != nil {
		return nil, err
	}
	return &UploadResult{FileID: key, URL: s.publicURL(key)}, nil
}

func (s *S3Store) UploadImage(ctx context.Context, dataURL, fileName string) (*UploadResult, error) {
	mimeType, data, err := DecodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	key := objectKey("thumbnails", fileName)
	if err := s.put(ctx, key, bytes.NewReader(data), int64(len(data)), mimeType); err != nil {
		return nil, err
	}
	return &UploadResult{FileID: key, URL: s.publicURL(key)}, nil
}

func (s *S3Store) Delete(ctx context.Context, fileID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileID),
	})
	return errors.Wrapf(err, "删除对象 %s 失败", fileID)
}

func (s *S3Store) put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return errors.Wrapf(err, "上传对象 %s 失败", key)
	}
	return nil
}

func (s *S3Store) publicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, key)
}

// objectKey 形如 videos/<uuid>/<文件名>，同名文件不会互相覆盖
func objectKey(prefix, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return fmt.Sprintf("%s/%s/%s", prefix, uuid.NewString(), name)
}
