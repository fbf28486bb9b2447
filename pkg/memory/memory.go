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

// Package memory provides an in-memory lifecycle backend.
// It is used for development runs and as the backend in engine tests,
// where its fault hooks simulate listing outages and failed mutations.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeremyhahn/go-objlifecycle/pkg/common"
)

const defaultPageSize = 1000

// ErrClosed is returned by any call made after Close.
var ErrClosed = errors.New("memory backend closed")

// Operation identifies a backend call for fault injection.
type Operation string

const (
	OpList   Operation = "list"
	OpCopy   Operation = "copy"
	OpDelete Operation = "delete"
)

type fault struct {
	op         Operation
	key        string // object key for copy/delete, listing prefix for list
	afterPages int    // list only: number of pages served before failing
	served     int
	err        error
}

// Stats counts backend calls.
type Stats struct {
	Lists   int64
	Copies  int64
	Deletes int64
}

// Memory is a Backend that keeps buckets in maps.
type Memory struct {
	mu      sync.RWMutex
	buckets map[string]map[string]common.Object
	faults  []*fault
	closed  bool
	now     func() time.Time

	lists   atomic.Int64
	copies  atomic.Int64
	deletes atomic.Int64
}

// New creates an empty in-memory backend.
func New() *Memory {
	return &Memory{
		buckets: make(map[string]map[string]common.Object),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Configure accepts and ignores all settings. The memory backend has none.
func (m *Memory) Configure(settings map[string]string) error {
	return nil
}

// SetClock overrides the timestamp assigned to copied objects.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Put seeds an object. LastModified is normalized to UTC.
func (m *Memory) Put(bucket string, obj common.Object) error {
	if err := common.ValidateKey(obj.Key); err != nil {
		return err
	}
	obj.LastModified = common.NormalizeTime(obj.LastModified)
	if obj.ETag == "" {
		obj.ETag = fmt.Sprintf("%d-%d", obj.LastModified.Unix(), obj.Size)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[bucket]
	if !ok {
		b = make(map[string]common.Object)
		m.buckets[bucket] = b
	}
	b[obj.Key] = obj
	return nil
}

// Get returns the object stored under key.
func (m *Memory) Get(bucket, key string) (common.Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.buckets[bucket][key]
	return obj, ok
}

// Keys returns every key in bucket in lexical order.
func (m *Memory) Keys(bucket string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.buckets[bucket]))
	for k := range m.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FailList makes listings of prefix fail with err once afterPages pages
// have been served. afterPages 0 fails the first page.
func (m *Memory) FailList(prefix string, afterPages int, err error) {
	m.addFault(&fault{op: OpList, key: prefix, afterPages: afterPages, err: err})
}

// FailCopy makes every copy whose source is key fail with err.
func (m *Memory) FailCopy(key string, err error) {
	m.addFault(&fault{op: OpCopy, key: key, err: err})
}

// FailDelete makes every delete of key fail with err.
func (m *Memory) FailDelete(key string, err error) {
	m.addFault(&fault{op: OpDelete, key: key, err: err})
}

// ClearFaults removes all injected faults.
func (m *Memory) ClearFaults() {
	m.mu.Lock()
	m.faults = nil
	m.mu.Unlock()
}

// Stats returns the number of calls made against the backend.
func (m *Memory) Stats() Stats {
	return Stats{
		Lists:   m.lists.Load(),
		Copies:  m.copies.Load(),
		Deletes: m.deletes.Load(),
	}
}

func (m *Memory) addFault(f *fault) {
	m.mu.Lock()
	m.faults = append(m.faults, f)
	m.mu.Unlock()
}

// faultFor must be called with m.mu held for writing.
func (m *Memory) faultFor(op Operation, key string) error {
	for _, f := range m.faults {
		if f.op != op || f.key != key {
			continue
		}
		if op == OpList {
			if f.served < f.afterPages {
				f.served++
				continue
			}
		}
		return f.err
	}
	return nil
}

// ListPage returns objects whose key starts with prefix, sorted by key.
// The continuation token is the last key of the previous page.
func (m *Memory) ListPage(ctx context.Context, bucket, prefix, token string, pageSize int) (*common.Page, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	m.lists.Add(1)

	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if err := m.faultFor(OpList, prefix); err != nil {
		return nil, err
	}

	keys := make([]string, 0)
	for k := range m.buckets[bucket] {
		if strings.HasPrefix(k, prefix) && (token == "" || k > token) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	page := &common.Page{}
	if len(keys) > pageSize {
		keys = keys[:pageSize]
		page.NextToken = keys[len(keys)-1]
	}
	page.Objects = make([]common.Object, 0, len(keys))
	for _, k := range keys {
		page.Objects = append(page.Objects, m.buckets[bucket][k])
	}
	return page, nil
}

// CopyObject duplicates srcKey to dstKey with a fresh modification time.
func (m *Memory) CopyObject(ctx context.Context, bucket, srcKey, dstKey string) error {
	if err := common.ValidateKey(dstKey); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	m.copies.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if err := m.faultFor(OpCopy, srcKey); err != nil {
		return err
	}

	src, ok := m.buckets[bucket][srcKey]
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrKeyNotFound, srcKey)
	}
	dst := src
	dst.Key = dstKey
	dst.LastModified = m.now()
	m.buckets[bucket][dstKey] = dst
	return nil
}

// DeleteObject removes key. Deleting a missing key returns ErrKeyNotFound.
func (m *Memory) DeleteObject(ctx context.Context, bucket, key string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	m.deletes.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if err := m.faultFor(OpDelete, key); err != nil {
		return err
	}

	if _, ok := m.buckets[bucket][key]; !ok {
		return fmt.Errorf("%w: %s", common.ErrKeyNotFound, key)
	}
	delete(m.buckets[bucket], key)
	return nil
}

// Close marks the backend closed. Subsequent calls return ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
