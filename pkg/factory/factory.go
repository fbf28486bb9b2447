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

// Package factory builds configured storage backends by type name.
package factory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jeremyhahn/go-objlifecycle/pkg/common"
)

// BackendCreator builds and configures a backend from its settings.
type BackendCreator func(settings map[string]string) (common.Backend, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]BackendCreator)
)

// RegisterBackend registers a backend creator under backendType,
// replacing any existing registration.
func RegisterBackend(backendType string, creator BackendCreator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[backendType] = creator
}

// NewBackend creates a configured backend of the given type.
func NewBackend(backendType string, settings map[string]string) (common.Backend, error) {
	registryMu.RLock()
	creator, exists := registry[backendType]
	registryMu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backendType)
	}
	if settings == nil {
		settings = map[string]string{}
	}
	return creator(settings)
}

// Types returns the registered backend types in sorted order.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// configure is the shared creator body: run Configure and hand back the backend.
func configure[B interface {
	common.Backend
	common.Configurable
}](backend B, settings map[string]string) (common.Backend, error) {
	if err := backend.Configure(settings); err != nil {
		return nil, err
	}
	return backend, nil
}
