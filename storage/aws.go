package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithy "github.com/aws/smithy-go"
)

// awsStore implements ObjectStore on the native AWS SDK. Preferred for AWS
// proper; the minio backend covers everything else.
type awsStore struct {
	client *s3.Client
	bucket string
	prefix string
}

func newAWSStore(params ConnectionParams) (*awsStore, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(params.Region),
	}
	if params.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(params.AccessKeyID, params.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("aws: load config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if params.Endpoint != "" {
			endpoint := params.Endpoint
			if !strings.Contains(endpoint, "://") {
				scheme := "https"
				if params.Insecure {
					scheme = "http"
				}
				endpoint = scheme + "://" + endpoint
			}
			o.BaseEndpoint = aws.String(endpoint)
		}
		if params.ForcePathStyle {
			o.UsePathStyle = true
		}
	})
	return &awsStore{
		client: client,
		bucket: params.Bucket,
		prefix: strings.Trim(params.Prefix, "/"),
	}, nil
}

func (s *awsStore) objectKey(key string) string {
	return path.Join(s.prefix, key)
}

func (s *awsStore) stripPrefix(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimPrefix(strings.TrimPrefix(key, s.prefix), "/")
}

func (s *awsStore) Put(ctx context.Context, key string, data []byte, contentType string) (ObjectInfo, error) {
	object := s.objectKey(key)
	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(object),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("aws: put %s: %w", object, err)
	}
	return ObjectInfo{
		Key:         key,
		Size:        int64(len(data)),
		ETag:        aws.ToString(out.ETag),
		ContentType: contentType,
	}, nil
}

func (s *awsStore) Get(ctx context.Context, key string) ([]byte, ObjectInfo, error) {
	object := s.objectKey(key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(object),
	})
	if err != nil {
		return nil, ObjectInfo{}, s.classify(err, "get", object)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("aws: read %s: %w", object, err)
	}
	return data, ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ETag:         aws.ToString(out.ETag),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

func (s *awsStore) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	object := s.objectKey(key)
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(object),
	})
	if err != nil {
		return ObjectInfo{}, s.classify(err, "stat", object)
	}
	return ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ETag:         aws.ToString(out.ETag),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

func (s *awsStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	listPrefix := s.prefix
	if prefix != "" {
		listPrefix = s.objectKey(prefix)
	}
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	}
	if listPrefix != "" {
		input.Prefix = aws.String(listPrefix)
	}
	var out []ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("aws: list %s: %w", listPrefix, err)
		}
		for _, obj := range page.Contents {
			out = append(out, ObjectInfo{
				Key:          s.stripPrefix(aws.ToString(obj.Key)),
				Size:         aws.ToInt64(obj.Size),
				ETag:         aws.ToString(obj.ETag),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return out, nil
}

func (s *awsStore) Delete(ctx context.Context, key string) error {
	object := s.objectKey(key)
	// DeleteObject succeeds on missing keys; stat first so callers get
	// ErrNotFound semantics consistent with the minio backend.
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(object),
	}); err != nil {
		return s.classify(err, "delete", object)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(object),
	}); err != nil {
		return s.classify(err, "delete", object)
	}
	return nil
}

func (s *awsStore) classify(err error, op, object string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return fmt.Errorf("%w: %s", ErrNotFound, object)
		}
	}
	return fmt.Errorf("aws: %s %s: %w", op, object, err)
}
