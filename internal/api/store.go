package api

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
)

// ObjectStore 是处理器依赖的对象存储能力，由 storage.Client 实现。
// 单测里用内存假实现替换。
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	ObjectExists(ctx context.Context, objectKey string) (bool, error)
	ReadObject(ctx context.Context, objectKey string) ([]byte, string, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}
