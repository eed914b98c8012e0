package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var loadDefaultAWSConfig = config.LoadDefaultConfig

// S3Config describes an S3 compatible media bucket
type S3Config struct {
	Region        string
	Endpoint      string // empty for AWS, set for MinIO and friends
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string // prefix for object URLs, defaults to endpoint/bucket
}

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Uploader implements Uploader on an S3 bucket
type S3Uploader struct {
	client  s3API
	bucket  string
	baseURL string
}

// NewS3Uploader builds an uploader from static credentials
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Uploader(client, cfg), nil
}

func newS3Uploader(client s3API, cfg S3Config) *S3Uploader {
	base := cfg.PublicBaseURL
	if base == "" {
		if cfg.Endpoint != "" {
			base = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	return &S3Uploader{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimSuffix(base, "/"),
	}
}

func (u *S3Uploader) Upload(ctx context.Context, obj Object) (Uploaded, error) {
	// The body is buffered so the SDK can sign the payload over plain http.
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return Uploaded{}, fmt.Errorf("read upload body: %w", err)
	}
	sum, err := CalculateSHA256(bytes.NewReader(data))
	if err != nil {
		return Uploaded{}, err
	}

	key := ObjectKey(obj.Folder, obj.Name)
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata: map[string]string{
			"original-name": obj.Name,
			"sha256":        sum,
		},
	})
	if err != nil {
		return Uploaded{}, fmt.Errorf("put object %s: %w", key, err)
	}

	return Uploaded{URL: u.baseURL + "/" + key, PublicID: key}, nil
}

func (u *S3Uploader) Delete(ctx context.Context, publicID string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", publicID, err)
	}
	return nil
}
