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

import "errors"

var (
	// Configuration errors

	// ErrNotConfigured is returned when a backend is used before Configure.
	ErrNotConfigured = errors.New("not configured")

	// ErrPathNotSet is returned when the required path is not set.
	ErrPathNotSet = errors.New("path not set")

	// ErrBucketNotSet is returned when the required bucket is not set.
	ErrBucketNotSet = errors.New("bucket not set")

	// ErrAccountNotSet is returned when required account credentials are not set.
	ErrAccountNotSet = errors.New("accountName or accountKey not set")

	// ErrRegionNotSet is returned when the required region is not set.
	ErrRegionNotSet = errors.New("region not set")

	// ErrEndpointNotSet is returned when the required endpoint is not set.
	ErrEndpointNotSet = errors.New("endpoint not set")

	// ErrAccessKeyNotSet is returned when the required access key is not set.
	ErrAccessKeyNotSet = errors.New("accessKey not set")

	// ErrSecretKeyNotSet is returned when the required secret key is not set.
	ErrSecretKeyNotSet = errors.New("secretKey not set")

	// ErrConfigInvalid is returned when a run configuration fails validation.
	// A run that fails validation never touches the backend.
	ErrConfigInvalid = errors.New("invalid configuration")

	// Backend errors

	// ErrBackendUnavailable is returned when a listing page cannot be fetched.
	// It aborts evaluation of the current rule only.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrKeyNotFound is returned when a key is not found in storage.
	ErrKeyNotFound = errors.New("key not found")

	// ErrBackendRequired is returned when an engine is built without a backend.
	ErrBackendRequired = errors.New("backend is required")

	// Action errors

	// ErrActionFailed is returned when a copy or delete call fails for one object.
	ErrActionFailed = errors.New("action failed")

	// ErrPartialMove is returned when the archive copy succeeded but the
	// source delete failed. The copy is not rolled back.
	ErrPartialMove = errors.New("partial move")
)
