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

// Package minio implements the lifecycle backend on MinIO. MinIO speaks the
// S3 protocol, so this uses the AWS SDK with path-style addressing.
package minio

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jeremyhahn/go-objlifecycle/pkg/common"

	"github.com/aws/aws-sdk-go/aws"                //nolint:staticcheck // Using v1 SDK, migration to v2 planned
	"github.com/aws/aws-sdk-go/aws/awserr"         //nolint:staticcheck // Using v1 SDK, migration to v2 planned
	"github.com/aws/aws-sdk-go/aws/credentials"    //nolint:staticcheck // Using v1 SDK, migration to v2 planned
	"github.com/aws/aws-sdk-go/aws/request"        //nolint:staticcheck // Using v1 SDK, migration to v2 planned
	"github.com/aws/aws-sdk-go/aws/session"        //nolint:staticcheck // Using v1 SDK, migration to v2 planned
	"github.com/aws/aws-sdk-go/service/s3"         //nolint:staticcheck // Using v1 SDK, migration to v2 planned
	"github.com/aws/aws-sdk-go/service/s3/s3iface" //nolint:staticcheck // Using v1 SDK, migration to v2 planned
)

const (
	defaultRegion = "us-east-1"
	maxPageSize   = 1000
)

// MinIO is a Backend for a MinIO server.
type MinIO struct {
	svc s3iface.S3API
}

// New creates an unconfigured MinIO backend.
func New() *MinIO {
	return &MinIO{}
}

// Configure sets up the backend with the necessary settings.
// Required settings:
//   - endpoint: MinIO server endpoint (e.g., "http://localhost:9000")
//   - accessKey: MinIO access key
//   - secretKey: MinIO secret key
//
// Optional settings:
//   - region: signing region (defaults to "us-east-1")
func (m *MinIO) Configure(settings map[string]string) error {
	endpoint := settings["endpoint"]
	if endpoint == "" {
		return common.ErrEndpointNotSet
	}

	accessKey := settings["accessKey"]
	if accessKey == "" {
		return common.ErrAccessKeyNotSet
	}

	secretKey := settings["secretKey"]
	if secretKey == "" {
		return common.ErrSecretKeyNotSet
	}

	region := settings["region"]
	if region == "" {
		region = defaultRegion
	}

	cfg := &aws.Config{
		Region:           aws.String(region),
		Endpoint:         aws.String(endpoint),
		S3ForcePathStyle: aws.Bool(true), // MinIO requires path-style addressing
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return err
	}

	m.svc = s3.New(sess)
	return nil
}

// ListPage returns one ListObjectsV2 page.
func (m *MinIO) ListPage(ctx context.Context, bucket, prefix, token string, pageSize int) (*common.Page, error) {
	if m.svc == nil {
		return nil, common.ErrNotConfigured
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(int64(pageSize)),
	}
	if token != "" {
		input.ContinuationToken = aws.String(token)
	}

	result, err := m.svc.ListObjectsV2WithContext(ctx, input)
	if err != nil {
		return nil, wrapError(err, "list", bucket, prefix)
	}

	page := &common.Page{Objects: make([]common.Object, 0, len(result.Contents))}
	for _, obj := range result.Contents {
		if obj.Key == nil {
			continue
		}
		page.Objects = append(page.Objects, common.Object{
			Key:          *obj.Key,
			Size:         aws.Int64Value(obj.Size),
			LastModified: common.NormalizeTime(aws.TimeValue(obj.LastModified)),
			ETag:         strings.Trim(aws.StringValue(obj.ETag), `"`),
		})
	}

	if aws.BoolValue(result.IsTruncated) {
		page.NextToken = aws.StringValue(result.NextContinuationToken)
	}
	return page, nil
}

// CopyObject performs a server-side copy within bucket.
func (m *MinIO) CopyObject(ctx context.Context, bucket, srcKey, dstKey string) error {
	if m.svc == nil {
		return common.ErrNotConfigured
	}
	_, err := m.svc.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(bucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(bucket + "/" + escapeKey(srcKey)),
	})
	if err != nil {
		return wrapError(err, "copy", bucket, srcKey)
	}
	return nil
}

// DeleteObject removes key from bucket.
func (m *MinIO) DeleteObject(ctx context.Context, bucket, key string) error {
	if m.svc == nil {
		return common.ErrNotConfigured
	}
	_, err := m.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return wrapError(err, "delete", bucket, key)
	}
	return nil
}

// Close releases the client.
func (m *MinIO) Close() error {
	m.svc = nil
	return nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func wrapError(err error, op, bucket, key string) error {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return fmt.Errorf("%w: minio %s %s/%s", common.ErrKeyNotFound, op, bucket, key)
		case request.CanceledErrorCode:
			if cause := aerr.OrigErr(); cause != nil {
				return fmt.Errorf("minio %s %s/%s: %w", op, bucket, key, cause)
			}
		}
	}
	return fmt.Errorf("minio %s %s/%s: %w", op, bucket, key, err)
}
