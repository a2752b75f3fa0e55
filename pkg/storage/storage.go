package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/SahilSagvekar/my-app-sub003/pkg/config"
	"github.com/SahilSagvekar/my-app-sub003/pkg/taskname"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("storage",
	fx.Provide(
		registerClient,
		New,
	),
)

// Storage manages folder-style prefixes in the output bucket. Folders are
// empty objects whose key ends with "/".
type Storage interface {
	EnsureFolder(ctx context.Context, key string) error
	ProvisionOutputFolder(ctx context.Context, root, title string) (string, error)
	List(ctx context.Context, prefix string) ([]string, error)
	DeleteFolder(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
}

// objectAPI is the part of *minio.Client the store needs.
type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	BucketExists(ctx context.Context, bucketName string) (bool, error)
}

type store struct {
	client objectAPI
	bucket string
}

func registerClient(c *config.Config) (*minio.Client, error) {
	client, err := minio.New(c.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Minio.AccessKey, c.Minio.SecretKey, ""),
		Secure: c.Minio.Secure,
	})
	if err != nil {
		zap.L().Error("failed to create MinIO client", zap.Error(err))
		return nil, err
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, c.Minio.BucketName)
	if err != nil {
		zap.L().Error("failed to check if bucket exists", zap.String("bucket", c.Minio.BucketName), zap.Error(err))
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, c.Minio.BucketName, minio.MakeBucketOptions{}); err != nil {
			zap.L().Error("failed to create bucket", zap.String("bucket", c.Minio.BucketName), zap.Error(err))
			return nil, err
		}
	}

	zap.L().Info("MinIO client initialized", zap.String("endpoint", c.Minio.Endpoint), zap.String("bucket", c.Minio.BucketName), zap.Bool("bucketExisted", exists))
	return client, nil
}

func New(client *minio.Client, c *config.Config) Storage {
	return NewWithClient(client, c.Minio.BucketName)
}

func NewWithClient(client objectAPI, bucket string) Storage {
	return &store{client: client, bucket: bucket}
}

func folderKey(key string) string {
	key = strings.TrimLeft(key, "/")
	if !strings.HasSuffix(key, "/") {
		key += "/"
	}
	return key
}

func (s *store) EnsureFolder(ctx context.Context, key string) error {
	key = folderKey(key)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(nil), 0, minio.PutObjectOptions{
		ContentType: "application/x-directory",
	})
	if err != nil {
		return fmt.Errorf("create folder %q: %w", key, err)
	}
	return nil
}

// ProvisionOutputFolder creates {root}/outputs/{title}/ and its fixed
// subfolders, returning the folder key.
func (s *store) ProvisionOutputFolder(ctx context.Context, root, title string) (string, error) {
	folder := taskname.OutputFolder(root, title)
	if err := s.EnsureFolder(ctx, folder); err != nil {
		return "", err
	}
	for _, sub := range taskname.OutputSubfolders {
		if err := s.EnsureFolder(ctx, folder+sub+"/"); err != nil {
			return "", err
		}
	}
	return folder, nil
}

func (s *store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (s *store) DeleteFolder(ctx context.Context, prefix string) error {
	keys, err := s.List(ctx, folderKey(prefix))
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove %q: %w", key, err)
		}
	}
	return nil
}

func (s *store) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}
