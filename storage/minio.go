package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minioStore implements ObjectStore over any S3-compatible endpoint using the
// MinIO client.
type minioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

func newMinioStore(params ConnectionParams) (*minioStore, error) {
	endpoint := params.Endpoint
	if endpoint == "" {
		if params.Region != "" {
			endpoint = fmt.Sprintf("s3.%s.amazonaws.com", params.Region)
		} else {
			endpoint = "s3.amazonaws.com"
		}
	}
	var creds *credentials.Credentials
	if params.AccessKeyID != "" {
		creds = credentials.NewStaticV4(params.AccessKeyID, params.SecretAccessKey, "")
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.EnvMinio{},
			&credentials.FileAWSCredentials{},
			&credentials.IAM{},
		})
	}
	options := &minio.Options{
		Creds:  creds,
		Secure: !params.Insecure,
		Region: params.Region,
	}
	if params.ForcePathStyle {
		options.BucketLookup = minio.BucketLookupPath
	}
	client, err := minio.New(endpoint, options)
	if err != nil {
		return nil, fmt.Errorf("minio: create client: %w", err)
	}
	return &minioStore{
		client: client,
		bucket: params.Bucket,
		prefix: strings.Trim(params.Prefix, "/"),
	}, nil
}

func (s *minioStore) objectKey(key string) string {
	return path.Join(s.prefix, key)
}

// stripPrefix undoes objectKey for keys coming back from the backend.
func (s *minioStore) stripPrefix(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimPrefix(strings.TrimPrefix(key, s.prefix), "/")
}

func (s *minioStore) Put(ctx context.Context, key string, data []byte, contentType string) (ObjectInfo, error) {
	object := s.objectKey(key)
	info, err := s.client.PutObject(ctx, s.bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("minio: put %s: %w", object, err)
	}
	return ObjectInfo{
		Key:         key,
		Size:        info.Size,
		ETag:        info.ETag,
		ContentType: contentType,
	}, nil
}

func (s *minioStore) Get(ctx context.Context, key string) ([]byte, ObjectInfo, error) {
	object := s.objectKey(key)
	obj, err := s.client.GetObject(ctx, s.bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, s.classify(err, "get", object)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, ObjectInfo{}, s.classify(err, "read", object)
	}
	stat, err := obj.Stat()
	if err != nil {
		return nil, ObjectInfo{}, s.classify(err, "stat", object)
	}
	return data, ObjectInfo{
		Key:          key,
		Size:         stat.Size,
		ETag:         stat.ETag,
		ContentType:  stat.ContentType,
		LastModified: stat.LastModified,
	}, nil
}

func (s *minioStore) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	object := s.objectKey(key)
	stat, err := s.client.StatObject(ctx, s.bucket, object, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, s.classify(err, "stat", object)
	}
	return ObjectInfo{
		Key:          key,
		Size:         stat.Size,
		ETag:         stat.ETag,
		ContentType:  stat.ContentType,
		LastModified: stat.LastModified,
	}, nil
}

func (s *minioStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	listPrefix := s.prefix
	if prefix != "" {
		listPrefix = s.objectKey(prefix)
	}
	var out []ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    listPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("minio: list %s: %w", listPrefix, obj.Err)
		}
		out = append(out, ObjectInfo{
			Key:          s.stripPrefix(obj.Key),
			Size:         obj.Size,
			ETag:         obj.ETag,
			ContentType:  obj.ContentType,
			LastModified: obj.LastModified,
		})
	}
	return out, nil
}

func (s *minioStore) Delete(ctx context.Context, key string) error {
	object := s.objectKey(key)
	// RemoveObject succeeds on missing keys; stat first so callers get
	// ErrNotFound semantics consistent with the aws backend.
	if _, err := s.client.StatObject(ctx, s.bucket, object, minio.StatObjectOptions{}); err != nil {
		return s.classify(err, "delete", object)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, object, minio.RemoveObjectOptions{}); err != nil {
		return s.classify(err, "delete", object)
	}
	return nil
}

func (s *minioStore) classify(err error, op, object string) error {
	errResp := minio.ErrorResponse{}
	if errors.As(err, &errResp) && errResp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, object)
	}
	return fmt.Errorf("minio: %s %s: %w", op, object, err)
}
