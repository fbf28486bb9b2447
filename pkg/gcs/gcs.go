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

// Package gcs implements the lifecycle backend on Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jeremyhahn/go-objlifecycle/pkg/common"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const maxPageSize = 1000

// Small internal interfaces to enable unit tests without real GCS.
type gcsObject interface {
	CopyFrom(ctx context.Context, src gcsObject) error
	Delete(ctx context.Context) error
}

type gcsBucket interface {
	Object(name string) gcsObject
	ListPage(ctx context.Context, query *storage.Query, pageSize int, token string) ([]*storage.ObjectAttrs, string, error)
}

type gcsClient interface {
	Bucket(name string) gcsBucket
	Close() error
}

type clientWrapper struct{ *storage.Client }
type bucketWrapper struct{ *storage.BucketHandle }
type objectWrapper struct{ *storage.ObjectHandle }

func (c clientWrapper) Bucket(name string) gcsBucket { return bucketWrapper{c.Client.Bucket(name)} }
func (c clientWrapper) Close() error                 { return c.Client.Close() }
func (b bucketWrapper) Object(name string) gcsObject {
	return objectWrapper{b.BucketHandle.Object(name)}
}
func (b bucketWrapper) ListPage(ctx context.Context, query *storage.Query, pageSize int, token string) ([]*storage.ObjectAttrs, string, error) {
	return gcsListPageFn(ctx, b.BucketHandle, query, pageSize, token)
}
func (o objectWrapper) CopyFrom(ctx context.Context, src gcsObject) error {
	srcHandle, ok := src.(objectWrapper)
	if !ok {
		return fmt.Errorf("gcs: unsupported copy source %T", src)
	}
	return gcsCopyFn(ctx, o.ObjectHandle, srcHandle.ObjectHandle)
}
func (o objectWrapper) Delete(ctx context.Context) error { return gcsDeleteFn(ctx, o.ObjectHandle) }

// Function variables to enable unit testing without real network I/O.
var (
	gcsNewClient = func(ctx context.Context, opts ...option.ClientOption) (*storage.Client, error) {
		return storage.NewClient(ctx, opts...)
	}

	gcsListPageFn = func(ctx context.Context, b *storage.BucketHandle, query *storage.Query, pageSize int, token string) ([]*storage.ObjectAttrs, string, error) {
		var attrs []*storage.ObjectAttrs
		next, err := iterator.NewPager(b.Objects(ctx, query), pageSize, token).NextPage(&attrs)
		return attrs, next, err
	}

	gcsCopyFn = func(ctx context.Context, dst, src *storage.ObjectHandle) error {
		_, err := dst.CopierFrom(src).Run(ctx)
		return err
	}

	gcsDeleteFn = func(ctx context.Context, o *storage.ObjectHandle) error {
		return o.Delete(ctx)
	}
)

// GCS is a Backend over cloud.google.com/go/storage.
type GCS struct {
	client gcsClient
}

// New creates an unconfigured GCS backend.
func New() *GCS {
	return &GCS{}
}

// Configure creates the storage client.
// Settings (all optional):
//   - credentialsFile: service account JSON; Application Default Credentials otherwise
//   - endpoint: custom API endpoint, e.g. a local emulator
//   - anonymous: "true" to send unauthenticated requests
func (g *GCS) Configure(settings map[string]string) error {
	if g.client != nil {
		return nil
	}

	var opts []option.ClientOption
	if path := settings["credentialsFile"]; path != "" {
		opts = append(opts, option.WithCredentialsFile(path)) //nolint:staticcheck // file supplied by the operator
	}
	if endpoint := settings["endpoint"]; endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	if anon, _ := strconv.ParseBool(settings["anonymous"]); anon {
		opts = append(opts, option.WithoutAuthentication())
	}

	client, err := gcsNewClient(context.Background(), opts...)
	if err != nil {
		return fmt.Errorf("gcs client: %w", err)
	}
	g.client = clientWrapper{client}
	return nil
}

// ListPage returns one page of objects under prefix.
func (g *GCS) ListPage(ctx context.Context, bucket, prefix, token string, pageSize int) (*common.Page, error) {
	if g.client == nil {
		return nil, common.ErrNotConfigured
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	query := &storage.Query{Prefix: prefix}
	if err := query.SetAttrSelection([]string{"Name", "Size", "Updated", "Etag"}); err != nil {
		return nil, err
	}

	attrs, next, err := g.client.Bucket(bucket).ListPage(ctx, query, pageSize, token)
	if err != nil {
		return nil, wrapError(err, "list", bucket, prefix)
	}

	page := &common.Page{Objects: make([]common.Object, 0, len(attrs)), NextToken: next}
	for _, a := range attrs {
		page.Objects = append(page.Objects, common.Object{
			Key:          a.Name,
			Size:         a.Size,
			LastModified: common.NormalizeTime(a.Updated),
			ETag:         a.Etag,
		})
	}
	return page, nil
}

// CopyObject rewrites srcKey to dstKey server-side.
func (g *GCS) CopyObject(ctx context.Context, bucket, srcKey, dstKey string) error {
	if g.client == nil {
		return common.ErrNotConfigured
	}
	b := g.client.Bucket(bucket)
	if err := b.Object(dstKey).CopyFrom(ctx, b.Object(srcKey)); err != nil {
		return wrapError(err, "copy", bucket, srcKey)
	}
	return nil
}

// DeleteObject removes key.
func (g *GCS) DeleteObject(ctx context.Context, bucket, key string) error {
	if g.client == nil {
		return common.ErrNotConfigured
	}
	if err := g.client.Bucket(bucket).Object(key).Delete(ctx); err != nil {
		return wrapError(err, "delete", bucket, key)
	}
	return nil
}

// Close closes the underlying client.
func (g *GCS) Close() error {
	if g.client == nil {
		return nil
	}
	err := g.client.Close()
	g.client = nil
	return err
}

func wrapError(err error, op, bucket, key string) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: gcs %s %s/%s", common.ErrKeyNotFound, op, bucket, key)
	}
	return fmt.Errorf("gcs %s %s/%s: %w", op, bucket, key, err)
}
