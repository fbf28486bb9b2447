// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-objlifecycle.
//
// go-objlifecycle is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package s3 implements the lifecycle backend on Amazon S3 (and S3-compatible
// services) with aws-sdk-go-v2.
package s3

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/jeremyhahn/go-objlifecycle/pkg/common"
)

// maxPageSize is the S3 ListObjectsV2 MaxKeys ceiling.
const maxPageSize = 1000

// s3API is the subset of *s3.Client used here.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 is a Backend over aws-sdk-go-v2.
type S3 struct {
	svc s3API
}

// New creates an unconfigured S3 backend.
func New() *S3 {
	return &S3{}
}

// Configure builds the S3 client.
// Settings:
//   - region: AWS region (required)
//   - endpoint: custom endpoint URL for S3-compatible services (optional)
//   - forcePathStyle: "true" to use path-style addressing (optional)
//   - accessKey / secretKey: static credentials (optional, both or neither);
//     otherwise the default AWS credential chain is used
func (s *S3) Configure(settings map[string]string) error {
	region := settings["region"]
	if region == "" {
		return common.ErrRegionNotSet
	}
	accessKey, secretKey := settings["accessKey"], settings["secretKey"]
	if accessKey != "" && secretKey == "" {
		return common.ErrSecretKeyNotSet
	}
	if secretKey != "" && accessKey == "" {
		return common.ErrAccessKeyNotSet
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, settings["sessionToken"])))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(settings["endpoint"])
	pathStyle, _ := strconv.ParseBool(settings["forcePathStyle"])
	s.svc = s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = pathStyle
	})
	return nil
}

// ListPage implements common.Backend with ListObjectsV2.
func (s *S3) ListPage(ctx context.Context, bucket, prefix, token string, pageSize int) (*common.Page, error) {
	if s.svc == nil {
		return nil, common.ErrNotConfigured
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(int32(pageSize)), // #nosec G115 -- bounded by maxPageSize
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	if token != "" {
		input.ContinuationToken = aws.String(token)
	}

	out, err := s.svc.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, wrapError(err, "list", bucket, prefix)
	}

	page := &common.Page{Objects: make([]common.Object, 0, len(out.Contents))}
	for _, obj := range out.Contents {
		page.Objects = append(page.Objects, common.Object{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: common.NormalizeTime(aws.ToTime(obj.LastModified)),
			ETag:         strings.Trim(aws.ToString(obj.ETag), `"`),
		})
	}
	if aws.ToBool(out.IsTruncated) {
		page.NextToken = aws.ToString(out.NextContinuationToken)
	}
	return page, nil
}

// CopyObject performs a server-side copy within bucket.
func (s *S3) CopyObject(ctx context.Context, bucket, srcKey, dstKey string) error {
	if s.svc == nil {
		return common.ErrNotConfigured
	}
	_, err := s.svc.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(bucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(CopySource(bucket, srcKey)),
	})
	if err != nil {
		return wrapError(err, "copy", bucket, srcKey)
	}
	return nil
}

// DeleteObject deletes key from bucket.
func (s *S3) DeleteObject(ctx context.Context, bucket, key string) error {
	if s.svc == nil {
		return common.ErrNotConfigured
	}
	_, err := s.svc.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return wrapError(err, "delete", bucket, key)
	}
	return nil
}

// Close drops the client. The SDK holds no resources that need releasing.
func (s *S3) Close() error {
	s.svc = nil
	return nil
}

// CopySource builds the URL-encoded "bucket/key" value of x-amz-copy-source.
func CopySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return bucket + "/" + strings.Join(segments, "/")
}

// wrapError maps S3 API errors onto common sentinels and keeps the
// service error code in the message.
func wrapError(err error, op, bucket, key string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: s3 %s %s/%s: %s", common.ErrKeyNotFound, op, bucket, key, apiErr.ErrorMessage())
		case "NoSuchBucket":
			return fmt.Errorf("s3 %s %s: bucket does not exist: %w", op, bucket, err)
		}
		return fmt.Errorf("s3 %s %s/%s: %s: %w", op, bucket, key, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("s3 %s %s/%s: %w", op, bucket, key, err)
}
