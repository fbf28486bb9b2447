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

// Package lifecycle evaluates object lifecycle rules against a bucket and
// applies their archive or delete actions.
//
// A run walks the rules in declaration order. For each rule the Engine lists
// the bucket under the rule's include prefix one page at a time, filters the
// listing with a Matcher, and hands the finalized candidate list to an
// ActionExecutor. Every per-object outcome is collected into a Report.
//
// Rules never run concurrently. When RunConfig.Workers is greater than one,
// the candidates of a single rule are executed by a bounded worker pool.
package lifecycle
