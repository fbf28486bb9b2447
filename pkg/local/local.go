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

// Package local implements the lifecycle backend on a local directory tree.
// Each bucket is a directory directly under the configured root path and each
// object key is a relative file path inside it.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jeremyhahn/go-objlifecycle/pkg/adapters"
	"github.com/jeremyhahn/go-objlifecycle/pkg/common"
)

// metadataSuffix marks sidecar files. They are never listed and travel with
// their object on copy and delete.
const metadataSuffix = ".metadata.json"

const defaultPageSize = 1000

// ErrInvalidBucket is returned for bucket names that are not a single path segment.
var ErrInvalidBucket = errors.New("invalid bucket name")

// Local is a Backend that stores objects as files.
type Local struct {
	path   string
	logger adapters.Logger
}

// New creates an unconfigured Local backend.
func New() *Local {
	return &Local{logger: adapters.NewNoOpLogger()}
}

// Configure sets up the backend.
// Settings:
//   - path: root directory holding one directory per bucket (required)
func (l *Local) Configure(settings map[string]string) error {
	l.path = settings["path"]
	if l.path == "" {
		return common.ErrPathNotSet
	}
	return os.MkdirAll(l.path, 0750)
}

// SetLogger sets the logger used for per-file debug output.
func (l *Local) SetLogger(logger adapters.Logger) {
	if logger != nil {
		l.logger = logger
	}
}

func (l *Local) bucketDir(bucket string) (string, error) {
	if l.path == "" {
		return "", common.ErrNotConfigured
	}
	if bucket == "" {
		return "", common.ErrBucketNotSet
	}
	if err := common.ValidateKey(bucket); err != nil || strings.ContainsAny(bucket, `/\`) || bucket == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidBucket, bucket)
	}
	return filepath.Join(l.path, bucket), nil
}

func (l *Local) objectPath(bucket, key string) (string, error) {
	dir, err := l.bucketDir(bucket)
	if err != nil {
		return "", err
	}
	if err := common.ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.FromSlash(key)), nil
}

// ListPage walks the bucket directory and returns the pageSize lexically
// smallest keys with the given prefix that sort after token.
func (l *Local) ListPage(ctx context.Context, bucket, prefix, token string, pageSize int) (*common.Page, error) {
	dir, err := l.bucketDir(bucket)
	if err != nil {
		return nil, err
	}
	if err := common.ValidatePrefix("prefix", prefix); err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	// keep at most pageSize+1 entries so the walk never holds the whole bucket
	limit := pageSize + 1
	var objects []common.Object
	trim := func() {
		sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
		if len(objects) > limit {
			objects = objects[:limit]
		}
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == dir {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, metadataSuffix) {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) || (token != "" && key <= token) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, common.Object{
			Key:          key,
			Size:         info.Size(),
			LastModified: common.NormalizeTime(info.ModTime()),
			ETag:         fmt.Sprintf("%d-%d", info.ModTime().Unix(), info.Size()),
		})
		if len(objects) >= 2*limit {
			trim()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	trim()

	page := &common.Page{Objects: objects}
	if len(objects) > pageSize {
		page.Objects = objects[:pageSize]
		page.NextToken = page.Objects[pageSize-1].Key
	}
	return page, nil
}

// CopyObject copies the file (and its metadata sidecar, if any).
func (l *Local) CopyObject(ctx context.Context, bucket, srcKey, dstKey string) error {
	src, err := l.objectPath(bucket, srcKey)
	if err != nil {
		return err
	}
	dst, err := l.objectPath(bucket, dstKey)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := copyFile(src, dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", common.ErrKeyNotFound, srcKey)
		}
		return err
	}
	if err := copyFile(src+metadataSuffix, dst+metadataSuffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	l.logger.Debug(ctx, "Copied object",
		adapters.Field{Key: "bucket", Value: bucket},
		adapters.Field{Key: "src", Value: srcKey},
		adapters.Field{Key: "dst", Value: dstKey})
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) // #nosec G304 -- path built from a validated key
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
		return err
	}
	tmp := dst + ".objlifecycle-tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) // #nosec G304
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

// DeleteObject removes the file and its sidecar, then prunes directories
// left empty up to the bucket root.
func (l *Local) DeleteObject(ctx context.Context, bucket, key string) error {
	path, err := l.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", common.ErrKeyNotFound, key)
		}
		return err
	}
	_ = os.Remove(path + metadataSuffix)

	root, _ := l.bucketDir(bucket)
	for dir := filepath.Dir(path); dir != root && strings.HasPrefix(dir, root); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
	}

	l.logger.Debug(ctx, "Deleted object",
		adapters.Field{Key: "bucket", Value: bucket},
		adapters.Field{Key: "key", Value: key})
	return nil
}

// Close is a no-op for the local backend.
func (l *Local) Close() error {
	return nil
}

// GetPath returns the configured root path.
func (l *Local) GetPath() string {
	return l.path
}
