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

package common

import (
	"context"
	"time"
)

// Object is a single entry returned by a backend listing.
type Object struct {
	// Key is the object's full key within the bucket
	Key string `json:"key" yaml:"key"`

	// LastModified is always expressed in UTC
	LastModified time.Time `json:"last_modified" yaml:"last_modified"`

	// Size is the object size in bytes
	Size int64 `json:"size" yaml:"size"`

	// ETag is informational only
	ETag string `json:"etag,omitempty" yaml:"etag,omitempty"`
}

// Page is one page of a paginated listing.
type Page struct {
	// Objects in backend listing order
	Objects []Object

	// NextToken is the continuation token for the next page.
	// Empty string means the listing is exhausted.
	NextToken string
}

// Backend is the minimal contract the lifecycle engine needs from a store:
// paginated listing, server-side copy and delete.
//
// Implementations own their SDK clients and must release them in Close.
type Backend interface {
	// ListPage returns up to pageSize objects whose keys start with prefix,
	// starting after the position described by token ("" for the first page).
	ListPage(ctx context.Context, bucket, prefix, token string, pageSize int) (*Page, error)

	// CopyObject copies srcKey to dstKey inside bucket.
	CopyObject(ctx context.Context, bucket, srcKey, dstKey string) error

	// DeleteObject removes key from bucket.
	DeleteObject(ctx context.Context, bucket, key string) error

	// Close releases any resources held by the backend.
	Close() error
}

// Configurable is implemented by backends that are configured from a flat
// settings map (as read from the config file).
type Configurable interface {
	Configure(settings map[string]string) error
}

// NormalizeTime converts t to UTC. Backends call this on every timestamp
// they return so the engine only ever compares aware UTC instants.
func NormalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
