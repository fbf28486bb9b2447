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

package cli

import "errors"

var (
	// Configuration errors

	// ErrConfigFileRequired is returned when no rule file was given or found.
	ErrConfigFileRequired = errors.New("config file is required (use --config or ./objlifecycle.yaml)")

	// ErrConfigRead is returned when the config file cannot be read or decoded.
	ErrConfigRead = errors.New("failed to read config")

	// ErrUnsupportedOutputFormat is returned when an unsupported output format is specified.
	ErrUnsupportedOutputFormat = errors.New("unsupported output format")

	// Run errors

	// ErrRunHasFailures is returned when a run finished but recorded failed
	// actions, partial moves or aborted rules.
	ErrRunHasFailures = errors.New("lifecycle run recorded failures")
)
