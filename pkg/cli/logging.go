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

import (
	"fmt"
	"io"
	"strings"

	"github.com/jeremyhahn/go-objlifecycle/pkg/adapters"
)

// Log formats accepted by --log-format.
const (
	LogFormatJSON    = "json"    // slog JSON
	LogFormatText    = "text"    // slog key=value
	LogFormatConsole = "console" // zerolog console writer
)

// NewLogger builds the logger selected by --log-format and --log-level.
func NewLogger(format, level string, w io.Writer) (adapters.Logger, error) {
	lvl, err := adapters.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var logger adapters.Logger
	switch strings.ToLower(format) {
	case "", LogFormatJSON:
		logger = adapters.NewSlogLogger(w, true)
	case LogFormatText:
		logger = adapters.NewSlogLogger(w, false)
	case LogFormatConsole:
		logger = adapters.NewZerologLogger(w, true)
	default:
		return nil, fmt.Errorf("unknown log format %q (want json, text or console)", format)
	}
	logger.SetLevel(lvl)
	return logger, nil
}
