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
	"github.com/jeremyhahn/go-objlifecycle/pkg/azure"
	"github.com/jeremyhahn/go-objlifecycle/pkg/common"
	"github.com/jeremyhahn/go-objlifecycle/pkg/gcs"
	"github.com/jeremyhahn/go-objlifecycle/pkg/local"
	"github.com/jeremyhahn/go-objlifecycle/pkg/memory"
	"github.com/jeremyhahn/go-objlifecycle/pkg/minio"
	"github.com/jeremyhahn/go-objlifecycle/pkg/s3"
)

func init() {
	RegisterBackend("memory", func(settings map[string]string) (common.Backend, error) {
		return configure(memory.New(), settings)
	})
	RegisterBackend("local", func(settings map[string]string) (common.Backend, error) {
		return configure(local.New(), settings)
	})
	RegisterBackend("s3", func(settings map[string]string) (common.Backend, error) {
		return configure(s3.New(), settings)
	})
	RegisterBackend("minio", func(settings map[string]string) (common.Backend, error) {
		return configure(minio.New(), settings)
	})
	RegisterBackend("gcs", func(settings map[string]string) (common.Backend, error) {
		return configure(gcs.New(), settings)
	})
	RegisterBackend("azure", func(settings map[string]string) (common.Backend, error) {
		return configure(azure.New(), settings)
	})
}
