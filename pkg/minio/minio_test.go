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

package minio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jeremyhahn/go-objlifecycle/pkg/common"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

type mockS3Client struct {
	s3iface.S3API
	listObjectsV2Outputs []*s3.ListObjectsV2Output
	listObjectsV2Inputs  []*s3.ListObjectsV2Input
	listObjectsV2Error   error
	copyObjectInput      *s3.CopyObjectInput
	copyObjectError      error
	deleteObjectInput    *s3.DeleteObjectInput
	deleteObjectError    error
}

func (m *mockS3Client) ListObjectsV2WithContext(ctx aws.Context, input *s3.ListObjectsV2Input, opts ...request.Option) (*s3.ListObjectsV2Output, error) {
	m.listObjectsV2Inputs = append(m.listObjectsV2Inputs, input)
	if m.listObjectsV2Error != nil {
		return nil, m.listObjectsV2Error
	}
	out := m.listObjectsV2Outputs[0]
	m.listObjectsV2Outputs = m.listObjectsV2Outputs[1:]
	return out, nil
}

func (m *mockS3Client) CopyObjectWithContext(ctx aws.Context, input *s3.CopyObjectInput, opts ...request.Option) (*s3.CopyObjectOutput, error) {
	m.copyObjectInput = input
	if m.copyObjectError != nil {
		return nil, m.copyObjectError
	}
	return &s3.CopyObjectOutput{}, nil
}

func (m *mockS3Client) DeleteObjectWithContext(ctx aws.Context, input *s3.DeleteObjectInput, opts ...request.Option) (*s3.DeleteObjectOutput, error) {
	m.deleteObjectInput = input
	if m.deleteObjectError != nil {
		return nil, m.deleteObjectError
	}
	return &s3.DeleteObjectOutput{}, nil
}

func TestMinIO_Configure_Errors(t *testing.T) {
	m := New()

	// Test missing endpoint
	if err := m.Configure(map[string]string{}); !errors.Is(err, common.ErrEndpointNotSet) {
		t.Fatalf("expected ErrEndpointNotSet, got %v", err)
	}

	// Test missing accessKey
	if err := m.Configure(map[string]string{
		"endpoint": "http://localhost:9000",
	}); !errors.Is(err, common.ErrAccessKeyNotSet) {
		t.Fatalf("expected ErrAccessKeyNotSet, got %v", err)
	}

	// Test missing secretKey
	if err := m.Configure(map[string]string{
		"endpoint":  "http://localhost:9000",
		"accessKey": "minioadmin",
	}); !errors.Is(err, common.ErrSecretKeyNotSet) {
		t.Fatalf("expected ErrSecretKeyNotSet, got %v", err)
	}
}

func TestMinIO_Configure_Success(t *testing.T) {
	m := New()
	err := m.Configure(map[string]string{
		"endpoint":  "http://localhost:9000",
		"region":    "us-west-2",
		"accessKey": "minioadmin",
		"secretKey": "minioadmin",
	})
	if err != nil {
		t.Fatalf("unexpected configure error: %v", err)
	}
	if m.svc == nil {
		t.Fatal("expected svc initialized")
	}
}

func TestMinIO_NotConfigured(t *testing.T) {
	m := New()
	ctx := context.Background()
	if _, err := m.ListPage(ctx, "b", "", "", 10); !errors.Is(err, common.ErrNotConfigured) {
		t.Errorf("ListPage: expected ErrNotConfigured, got %v", err)
	}
	if err := m.CopyObject(ctx, "b", "a", "c"); !errors.Is(err, common.ErrNotConfigured) {
		t.Errorf("CopyObject: expected ErrNotConfigured, got %v", err)
	}
	if err := m.DeleteObject(ctx, "b", "a"); !errors.Is(err, common.ErrNotConfigured) {
		t.Errorf("DeleteObject: expected ErrNotConfigured, got %v", err)
	}
}

func TestMinIO_ListPage(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("EST", -5*3600))
	mock := &mockS3Client{
		listObjectsV2Outputs: []*s3.ListObjectsV2Output{
			{
				Contents: []*s3.Object{
					{Key: aws.String("tmp/a"), Size: aws.Int64(1), LastModified: aws.Time(ts), ETag: aws.String(`"e1"`)},
					{Key: nil},
					{Key: aws.String("tmp/b"), Size: aws.Int64(2), LastModified: aws.Time(ts)},
				},
				IsTruncated:           aws.Bool(true),
				NextContinuationToken: aws.String("tok"),
			},
			{
				Contents:    []*s3.Object{{Key: aws.String("tmp/c")}},
				IsTruncated: aws.Bool(false),
			},
		},
	}
	m := &MinIO{svc: mock}

	page, err := m.ListPage(context.Background(), "bucket", "tmp/", "", 2)
	if err != nil {
		t.Fatalf("ListPage failed: %v", err)
	}
	if len(page.Objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(page.Objects))
	}
	if page.NextToken != "tok" {
		t.Errorf("expected next token tok, got %q", page.NextToken)
	}
	if page.Objects[0].ETag != "e1" || page.Objects[0].LastModified.Location() != time.UTC {
		t.Errorf("unexpected object %+v", page.Objects[0])
	}
	if aws.Int64Value(mock.listObjectsV2Inputs[0].MaxKeys) != 2 {
		t.Errorf("expected MaxKeys 2, got %d", aws.Int64Value(mock.listObjectsV2Inputs[0].MaxKeys))
	}

	page, err = m.ListPage(context.Background(), "bucket", "tmp/", "tok", 0)
	if err != nil {
		t.Fatalf("ListPage failed: %v", err)
	}
	if page.NextToken != "" || len(page.Objects) != 1 {
		t.Errorf("unexpected final page %+v", page)
	}
	in := mock.listObjectsV2Inputs[1]
	if aws.StringValue(in.ContinuationToken) != "tok" {
		t.Errorf("expected continuation token tok, got %q", aws.StringValue(in.ContinuationToken))
	}
	if aws.Int64Value(in.MaxKeys) != maxPageSize {
		t.Errorf("expected default MaxKeys %d, got %d", maxPageSize, aws.Int64Value(in.MaxKeys))
	}
}

func TestMinIO_ListPageError(t *testing.T) {
	mock := &mockS3Client{listObjectsV2Error: awserr.New("ServiceUnavailable", "slow down", nil)}
	m := &MinIO{svc: mock}
	_, err := m.ListPage(context.Background(), "bucket", "", "", 10)
	if err == nil {
		t.Fatal("expected error")
	}
	var aerr awserr.Error
	if !errors.As(err, &aerr) || aerr.Code() != "ServiceUnavailable" {
		t.Errorf("expected wrapped awserr, got %v", err)
	}
}

func TestMinIO_ListPageCanceled(t *testing.T) {
	mock := &mockS3Client{listObjectsV2Error: awserr.New(request.CanceledErrorCode, "request context canceled", context.Canceled)}
	m := &MinIO{svc: mock}
	_, err := m.ListPage(context.Background(), "bucket", "", "", 10)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMinIO_CopyObject(t *testing.T) {
	mock := &mockS3Client{}
	m := &MinIO{svc: mock}
	if err := m.CopyObject(context.Background(), "bucket", "logs/a b", "archive/logs/a b"); err != nil {
		t.Fatalf("CopyObject failed: %v", err)
	}
	if got := aws.StringValue(mock.copyObjectInput.CopySource); got != "bucket/logs/a%20b" {
		t.Errorf("unexpected copy source %q", got)
	}
	if got := aws.StringValue(mock.copyObjectInput.Key); got != "archive/logs/a b" {
		t.Errorf("unexpected destination %q", got)
	}

	mock.copyObjectError = awserr.New(s3.ErrCodeNoSuchKey, "missing", nil)
	if err := m.CopyObject(context.Background(), "bucket", "gone", "archive/gone"); !errors.Is(err, common.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestMinIO_DeleteObject(t *testing.T) {
	mock := &mockS3Client{}
	m := &MinIO{svc: mock}
	if err := m.DeleteObject(context.Background(), "bucket", "a"); err != nil {
		t.Fatalf("DeleteObject failed: %v", err)
	}
	if aws.StringValue(mock.deleteObjectInput.Key) != "a" {
		t.Errorf("unexpected key %q", aws.StringValue(mock.deleteObjectInput.Key))
	}

	mock.deleteObjectError = errors.New("boom")
	if err := m.DeleteObject(context.Background(), "bucket", "a"); err == nil {
		t.Error("expected error")
	}
}

func TestMinIO_Close(t *testing.T) {
	m := &MinIO{svc: &mockS3Client{}}
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := m.ListPage(context.Background(), "b", "", "", 1); !errors.Is(err, common.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured after Close, got %v", err)
	}
}
