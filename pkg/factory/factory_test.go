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

package factory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-objlifecycle/pkg/common"
	"github.com/jeremyhahn/go-objlifecycle/pkg/local"
	"github.com/jeremyhahn/go-objlifecycle/pkg/memory"
)

func TestTypes(t *testing.T) {
	assert.Equal(t, []string{"azure", "gcs", "local", "memory", "minio", "s3"}, Types())
}

func TestNewBackend_Unknown(t *testing.T) {
	_, err := NewBackend("glacier", nil)
	require.ErrorIs(t, err, ErrUnknownBackend)
	assert.Contains(t, err.Error(), "glacier")
}

func TestNewBackend_Memory(t *testing.T) {
	backend, err := NewBackend("memory", nil)
	require.NoError(t, err)
	defer backend.Close()

	_, ok := backend.(*memory.Memory)
	assert.True(t, ok)

	page, err := backend.ListPage(context.Background(), "bucket", "", "", 10)
	require.NoError(t, err)
	assert.Empty(t, page.Objects)
}

func TestNewBackend_Local(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewBackend("local", map[string]string{"path": dir})
	require.NoError(t, err)

	l, ok := backend.(*local.Local)
	require.True(t, ok)
	assert.Equal(t, dir, l.GetPath())

	_, err = NewBackend("local", map[string]string{})
	assert.ErrorIs(t, err, common.ErrPathNotSet)
}

func TestNewBackend_ConfigureErrors(t *testing.T) {
	tests := []struct {
		backendType string
		want        error
	}{
		{"s3", common.ErrRegionNotSet},
		{"minio", common.ErrEndpointNotSet},
		{"azure", common.ErrAccountNotSet},
	}
	for _, tt := range tests {
		t.Run(tt.backendType, func(t *testing.T) {
			backend, err := NewBackend(tt.backendType, map[string]string{})
			assert.Nil(t, backend)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewBackend_S3(t *testing.T) {
	backend, err := NewBackend("s3", map[string]string{
		"region":    "us-east-1",
		"accessKey": "ak",
		"secretKey": "sk",
	})
	require.NoError(t, err)
	require.NotNil(t, backend)
	assert.NoError(t, backend.Close())
}

func TestRegisterBackend(t *testing.T) {
	errBoom := errors.New("boom")
	RegisterBackend("test-failing", func(map[string]string) (common.Backend, error) {
		return nil, errBoom
	})
	defer func() {
		registryMu.Lock()
		delete(registry, "test-failing")
		registryMu.Unlock()
	}()

	assert.Contains(t, Types(), "test-failing")
	_, err := NewBackend("test-failing", nil)
	assert.ErrorIs(t, err, errBoom)
}
