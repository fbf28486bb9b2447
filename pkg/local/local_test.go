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

package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeremyhahn/go-objlifecycle/pkg/common"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	l := New()
	if err := l.Configure(map[string]string{"path": t.TempDir()}); err != nil {
		t.Fatalf("Configure() returned error: %v", err)
	}
	return l
}

func writeObject(t *testing.T, l *Local, bucket, key string, modified time.Time) {
	t.Helper()
	path := filepath.Join(l.GetPath(), bucket, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("data:"+key), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, modified, modified); err != nil {
		t.Fatal(err)
	}
}

func TestConfigureRequiresPath(t *testing.T) {
	if err := New().Configure(map[string]string{}); !errors.Is(err, common.ErrPathNotSet) {
		t.Fatalf("expected ErrPathNotSet, got %v", err)
	}
}

func TestUnconfigured(t *testing.T) {
	_, err := New().ListPage(context.Background(), "b", "", "", 10)
	if !errors.Is(err, common.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestListPageOrderingAndPagination(t *testing.T) {
	l := newTestLocal(t)
	now := time.Now()
	// "a.txt" sorts before "a/b" even though the walk visits a/ first
	for _, k := range []string{"a/b", "a.txt", "c", "a/c/d", "b"} {
		writeObject(t, l, "bucket", k, now)
	}

	var got []string
	token := ""
	for {
		page, err := l.ListPage(context.Background(), "bucket", "", token, 2)
		if err != nil {
			t.Fatalf("ListPage() returned error: %v", err)
		}
		for _, o := range page.Objects {
			got = append(got, o.Key)
		}
		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}

	want := []string{"a.txt", "a/b", "a/c/d", "b", "c"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestListPageLargeBucketBoundedPages(t *testing.T) {
	l := newTestLocal(t)
	now := time.Now()
	for i := 0; i < 57; i++ {
		writeObject(t, l, "bucket", fmt.Sprintf("logs/%03d.log", i), now)
	}

	seen := 0
	token := ""
	for {
		page, err := l.ListPage(context.Background(), "bucket", "logs/", token, 10)
		if err != nil {
			t.Fatalf("ListPage() returned error: %v", err)
		}
		if len(page.Objects) > 10 {
			t.Fatalf("page exceeded size: %d", len(page.Objects))
		}
		seen += len(page.Objects)
		if page.NextToken == "" {
			break
		}
		token = page.NextToken
	}
	if seen != 57 {
		t.Errorf("expected 57 objects, got %d", seen)
	}
}

func TestListPageTimestampsAndSidecars(t *testing.T) {
	l := newTestLocal(t)
	modified := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	writeObject(t, l, "bucket", "x.log", modified)
	writeObject(t, l, "bucket", "x.log"+metadataSuffix, modified)

	page, err := l.ListPage(context.Background(), "bucket", "", "", 10)
	if err != nil {
		t.Fatalf("ListPage() returned error: %v", err)
	}
	if len(page.Objects) != 1 {
		t.Fatalf("expected sidecar to be hidden, got %v", page.Objects)
	}
	obj := page.Objects[0]
	if !obj.LastModified.Equal(modified) || obj.LastModified.Location() != time.UTC {
		t.Errorf("expected UTC %v, got %v", modified, obj.LastModified)
	}
	if obj.Size != int64(len("data:x.log")) {
		t.Errorf("unexpected size %d", obj.Size)
	}
}

func TestListPageMissingBucket(t *testing.T) {
	l := newTestLocal(t)
	page, err := l.ListPage(context.Background(), "nope", "", "", 10)
	if err != nil {
		t.Fatalf("ListPage() returned error: %v", err)
	}
	if len(page.Objects) != 0 {
		t.Errorf("expected empty page, got %v", page.Objects)
	}
}

func TestInvalidBucket(t *testing.T) {
	l := newTestLocal(t)
	for _, b := range []string{"", "a/b", "..", "."} {
		if _, err := l.ListPage(context.Background(), b, "", "", 10); err == nil {
			t.Errorf("expected error for bucket %q", b)
		}
	}
}

func TestCopyAndDelete(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()
	writeObject(t, l, "bucket", "logs/2024/a.log", time.Now())
	writeObject(t, l, "bucket", "logs/2024/a.log"+metadataSuffix, time.Now())

	if err := l.CopyObject(ctx, "bucket", "logs/2024/a.log", "archive/logs/2024/a.log"); err != nil {
		t.Fatalf("CopyObject() returned error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(l.GetPath(), "bucket", "archive", "logs", "2024", "a.log"))
	if err != nil {
		t.Fatalf("expected copied file: %v", err)
	}
	if string(data) != "data:logs/2024/a.log" {
		t.Errorf("unexpected copy content %q", data)
	}
	if _, err := os.Stat(filepath.Join(l.GetPath(), "bucket", "archive", "logs", "2024", "a.log"+metadataSuffix)); err != nil {
		t.Errorf("expected sidecar to be copied: %v", err)
	}

	if err := l.DeleteObject(ctx, "bucket", "logs/2024/a.log"); err != nil {
		t.Fatalf("DeleteObject() returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(l.GetPath(), "bucket", "logs")); !os.IsNotExist(err) {
		t.Errorf("expected empty directories to be pruned, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(l.GetPath(), "bucket")); err != nil {
		t.Errorf("bucket directory must survive pruning: %v", err)
	}

	if err := l.DeleteObject(ctx, "bucket", "logs/2024/a.log"); !errors.Is(err, common.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
	if err := l.CopyObject(ctx, "bucket", "missing", "archive/missing"); !errors.Is(err, common.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()
	if err := l.DeleteObject(ctx, "bucket", "../../etc/passwd"); err == nil {
		t.Error("expected traversal key to be rejected")
	}
	if err := l.CopyObject(ctx, "bucket", "a", "../escape"); err == nil {
		t.Error("expected traversal destination to be rejected")
	}
}

func TestContextCancelled(t *testing.T) {
	l := newTestLocal(t)
	writeObject(t, l, "bucket", "a", time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.ListPage(ctx, "bucket", "", "", 10); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := l.DeleteObject(ctx, "bucket", "a"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
