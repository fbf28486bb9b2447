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

// Package azure implements the lifecycle backend on Azure Blob Storage.
// Buckets map to blob containers.
package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/jeremyhahn/go-objlifecycle/pkg/common"

	"github.com/Azure/azure-storage-blob-go/azblob"
)

const maxPageSize = 5000

// Small internal interfaces for testability without network.
type BlobAPI interface {
	NewReader(ctx context.Context) (io.ReadCloser, error)
	UploadFromReader(ctx context.Context, r io.Reader) error
	Delete(ctx context.Context) error
}

type ContainerAPI interface {
	NewBlockBlob(name string) BlobAPI
	ListSegment(ctx context.Context, prefix, marker string, max int) ([]azblob.BlobItemInternal, string, error)
}

type ServiceAPI interface {
	Container(name string) ContainerAPI
}

type serviceWrapper struct{ azblob.ServiceURL }
type containerWrapper struct{ azblob.ContainerURL }
type blobWrapper struct{ azblob.BlockBlobURL }

// Function variables to enable unit testing without real network I/O.
var (
	azureUploadFn = func(ctx context.Context, r io.Reader, b azblob.BlockBlobURL) error {
		_, err := azblob.UploadStreamToBlockBlob(ctx, r, b, azblob.UploadStreamToBlockBlobOptions{})
		return err
	}
	azureDownloadFn = func(ctx context.Context, b azblob.BlockBlobURL) (io.ReadCloser, error) {
		resp, err := b.Download(ctx, 0, azblob.CountToEnd, azblob.BlobAccessConditions{}, false, azblob.ClientProvidedKeyOptions{})
		if err != nil {
			return nil, err
		}
		return resp.Body(azblob.RetryReaderOptions{}), nil
	}
	azureDeleteFn = func(ctx context.Context, b azblob.BlockBlobURL) error {
		_, err := b.Delete(ctx, azblob.DeleteSnapshotsOptionInclude, azblob.BlobAccessConditions{})
		return err
	}
	azureListFn = func(ctx context.Context, c azblob.ContainerURL, prefix, marker string, max int) ([]azblob.BlobItemInternal, string, error) {
		m := azblob.Marker{}
		if marker != "" {
			m.Val = &marker
		}
		resp, err := c.ListBlobsFlatSegment(ctx, m, azblob.ListBlobsSegmentOptions{
			Prefix:     prefix,
			MaxResults: int32(max), // #nosec G115 -- bounded by maxPageSize
		})
		if err != nil {
			return nil, "", err
		}
		next := ""
		if resp.NextMarker.NotDone() {
			next = *resp.NextMarker.Val
		}
		return resp.Segment.BlobItems, next, nil
	}
)

func (s serviceWrapper) Container(name string) ContainerAPI {
	return containerWrapper{s.ServiceURL.NewContainerURL(name)}
}

func (c containerWrapper) NewBlockBlob(name string) BlobAPI {
	return blobWrapper{c.ContainerURL.NewBlockBlobURL(name)}
}

func (c containerWrapper) ListSegment(ctx context.Context, prefix, marker string, max int) ([]azblob.BlobItemInternal, string, error) {
	return azureListFn(ctx, c.ContainerURL, prefix, marker, max)
}

func (b blobWrapper) UploadFromReader(ctx context.Context, r io.Reader) error {
	return azureUploadFn(ctx, r, b.BlockBlobURL)
}
func (b blobWrapper) NewReader(ctx context.Context) (io.ReadCloser, error) {
	return azureDownloadFn(ctx, b.BlockBlobURL)
}
func (b blobWrapper) Delete(ctx context.Context) error {
	return azureDeleteFn(ctx, b.BlockBlobURL)
}

// Azure is a Backend over Azure Blob Storage.
type Azure struct {
	service ServiceAPI
}

// New creates an unconfigured Azure backend.
func New() *Azure {
	return &Azure{}
}

// Configure sets up the backend with the necessary settings.
// Required settings:
//   - accountName: Azure storage account name
//   - accountKey: Azure storage account key
//
// Optional settings:
//   - endpoint: Custom service URL (for Azurite, etc.)
func (a *Azure) Configure(settings map[string]string) error {
	accountName := settings["accountName"]
	accountKey := settings["accountKey"]
	if accountName == "" || accountKey == "" {
		return common.ErrAccountNotSet
	}

	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return err
	}

	endpoint := strings.TrimSuffix(settings["endpoint"], "/")
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return err
	}

	p := azblob.NewPipeline(credential, azblob.PipelineOptions{})
	a.service = serviceWrapper{azblob.NewServiceURL(*u, p)}
	return nil
}

// ListPage returns one segment of the flat blob listing.
func (a *Azure) ListPage(ctx context.Context, bucket, prefix, token string, pageSize int) (*common.Page, error) {
	if a.service == nil {
		return nil, common.ErrNotConfigured
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	items, next, err := a.service.Container(bucket).ListSegment(ctx, prefix, token, pageSize)
	if err != nil {
		return nil, wrapError(err, "list", bucket, prefix)
	}

	page := &common.Page{Objects: make([]common.Object, 0, len(items)), NextToken: next}
	for _, item := range items {
		if item.Deleted {
			continue
		}
		var size int64
		if item.Properties.ContentLength != nil {
			size = *item.Properties.ContentLength
		}
		page.Objects = append(page.Objects, common.Object{
			Key:          item.Name,
			Size:         size,
			LastModified: common.NormalizeTime(item.Properties.LastModified),
			ETag:         strings.Trim(string(item.Properties.Etag), `"`),
		})
	}
	return page, nil
}

// CopyObject streams the source blob into a new block blob at dstKey.
func (a *Azure) CopyObject(ctx context.Context, bucket, srcKey, dstKey string) error {
	if a.service == nil {
		return common.ErrNotConfigured
	}
	container := a.service.Container(bucket)

	rc, err := container.NewBlockBlob(srcKey).NewReader(ctx)
	if err != nil {
		return wrapError(err, "copy", bucket, srcKey)
	}
	defer func() { _ = rc.Close() }()

	if err := container.NewBlockBlob(dstKey).UploadFromReader(ctx, rc); err != nil {
		return wrapError(err, "copy", bucket, dstKey)
	}
	return nil
}

// DeleteObject removes the blob and its snapshots.
func (a *Azure) DeleteObject(ctx context.Context, bucket, key string) error {
	if a.service == nil {
		return common.ErrNotConfigured
	}
	if err := a.service.Container(bucket).NewBlockBlob(key).Delete(ctx); err != nil {
		return wrapError(err, "delete", bucket, key)
	}
	return nil
}

// Close releases the service handle.
func (a *Azure) Close() error {
	a.service = nil
	return nil
}

func wrapError(err error, op, bucket, key string) error {
	var serr azblob.StorageError
	if errors.As(err, &serr) && serr.ServiceCode() == azblob.ServiceCodeBlobNotFound {
		return fmt.Errorf("%w: azure %s %s/%s", common.ErrKeyNotFound, op, bucket, key)
	}
	return fmt.Errorf("azure %s %s/%s: %w", op, bucket, key, err)
}
