package storage

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string]bool
	putErr  error
	bucket  bool
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string]bool{}, bucket: true}
}

func (f *fakeObjects) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[objectName] = true
	return minio.UploadInfo{Bucket: bucketName, Key: objectName}, nil
}

func (f *fakeObjects) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	f.mu.Lock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, opts.Prefix) {
			keys = append(keys, k)
		}
	}
	f.mu.Unlock()
	sort.Strings(keys)

	ch := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		ch <- minio.ObjectInfo{Key: k}
	}
	close(ch)
	return ch
}

func (f *fakeObjects) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, objectName)
	return nil
}

func (f *fakeObjects) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return f.bucket, nil
}

func TestProvisionOutputFolder(t *testing.T) {
	objs := newFakeObjects()
	s := NewWithClient(objs, "outputs")

	folder, err := s.ProvisionOutputFolder(context.Background(), "Acme Media", "AcmeMedia_09-01-2025_SF1")
	require.NoError(t, err)
	require.Equal(t, "Acme Media/outputs/AcmeMedia_09-01-2025_SF1/", folder)

	keys, err := s.List(context.Background(), "Acme Media/outputs/")
	require.NoError(t, err)
	require.Equal(t, []string{
		"Acme Media/outputs/AcmeMedia_09-01-2025_SF1/",
		"Acme Media/outputs/AcmeMedia_09-01-2025_SF1/music-license/",
		"Acme Media/outputs/AcmeMedia_09-01-2025_SF1/thumbnails/",
		"Acme Media/outputs/AcmeMedia_09-01-2025_SF1/tiles/",
	}, keys)
}

func TestProvisionOutputFolderError(t *testing.T) {
	objs := newFakeObjects()
	objs.putErr = errors.New("s3 down")
	s := NewWithClient(objs, "outputs")

	_, err := s.ProvisionOutputFolder(context.Background(), "Acme", "T1")
	require.ErrorContains(t, err, "s3 down")
}

func TestDeleteFolder(t *testing.T) {
	objs := newFakeObjects()
	s := NewWithClient(objs, "outputs")
	ctx := context.Background()

	_, err := s.ProvisionOutputFolder(ctx, "Acme", "T1")
	require.NoError(t, err)
	_, err = s.ProvisionOutputFolder(ctx, "Acme", "T2")
	require.NoError(t, err)

	require.NoError(t, s.DeleteFolder(ctx, "Acme/outputs/T1"))
	keys, err := s.List(ctx, "Acme/")
	require.NoError(t, err)
	require.Len(t, keys, 4)
	for _, k := range keys {
		require.True(t, strings.HasPrefix(k, "Acme/outputs/T2/"))
	}
}

func TestPing(t *testing.T) {
	objs := newFakeObjects()
	s := NewWithClient(objs, "outputs")
	require.NoError(t, s.Ping(context.Background()))

	objs.bucket = false
	require.Error(t, s.Ping(context.Background()))
}
