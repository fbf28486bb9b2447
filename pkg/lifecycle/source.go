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

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/jeremyhahn/go-objlifecycle/pkg/common"
)

// ObjectSource enumerates the objects of a bucket under a prefix.
//
// The sequence is lazy: pages are fetched only as the caller iterates, and at
// most one page is held at a time. A failure ends the sequence with a single
// non-nil error.
type ObjectSource interface {
	Enumerate(ctx context.Context, bucket, prefix string, pageSize int) iter.Seq2[common.Object, error]
}

// PagedSource is the ObjectSource backed by Backend.ListPage.
type PagedSource struct {
	backend common.Backend
}

// NewPagedSource returns an ObjectSource over backend.
func NewPagedSource(backend common.Backend) *PagedSource {
	return &PagedSource{backend: backend}
}

// Enumerate implements ObjectSource. Listing failures are wrapped with
// common.ErrBackendUnavailable; cancellation yields the context error.
func (s *PagedSource) Enumerate(ctx context.Context, bucket, prefix string, pageSize int) iter.Seq2[common.Object, error] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return func(yield func(common.Object, error) bool) {
		token := ""
		for pageNum := 1; ; pageNum++ {
			if err := ctx.Err(); err != nil {
				yield(common.Object{}, err)
				return
			}

			page, err := s.backend.ListPage(ctx, bucket, prefix, token, pageSize)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
					yield(common.Object{}, ctxErr)
					return
				}
				yield(common.Object{}, fmt.Errorf("%w: listing %s/%s (page %d): %w",
					common.ErrBackendUnavailable, bucket, prefix, pageNum, err))
				return
			}

			for _, obj := range page.Objects {
				if !yield(obj, nil) {
					return
				}
			}

			if page.NextToken == "" {
				return
			}
			if page.NextToken == token {
				yield(common.Object{}, fmt.Errorf("%w: listing %s/%s repeated continuation token %q",
					common.ErrBackendUnavailable, bucket, prefix, token))
				return
			}
			token = page.NextToken
		}
	}
}
