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

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version and Commit are set at build time:
//
//	go build -ldflags "-X github.com/jeremyhahn/go-objlifecycle/pkg/version.Version=1.0.0 \
//	  -X github.com/jeremyhahn/go-objlifecycle/pkg/version.Commit=$(git rev-parse --short HEAD)"
var (
	Version = "0.1.0-alpha"
	Commit  = ""
)

// Get returns the application version string.
func Get() string {
	return Version
}

// Revision returns Commit, or the VCS revision recorded by the Go toolchain
// when Commit was not set at build time.
func Revision() string {
	if Commit != "" {
		return Commit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return "unknown"
}

// String is the one-line banner printed by the version command.
func String() string {
	return fmt.Sprintf("objlifecycle %s (commit %s, %s %s/%s)", Get(), Revision(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
