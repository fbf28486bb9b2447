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
	"strings"
	"time"

	"github.com/jeremyhahn/go-objlifecycle/pkg/common"
)

const day = 24 * time.Hour

// Matcher decides whether an object is a candidate for a rule.
// now is sampled once per rule pass by the Engine.
type Matcher interface {
	Match(obj common.Object, rule Rule, now time.Time) bool
}

// Predicates is the default Matcher: the conjunction of MatchesPrefixes,
// OlderThan and MatchesSuffix.
type Predicates struct{}

// DefaultPredicates is the Matcher used when none is injected.
var DefaultPredicates Matcher = Predicates{}

// Match implements Matcher.
func (Predicates) Match(obj common.Object, rule Rule, now time.Time) bool {
	return MatchesPrefixes(obj.Key, rule.IncludePrefix, rule.ExcludePrefixes) &&
		OlderThan(obj, rule.OlderThanDays, now) &&
		MatchesSuffix(obj.Key, rule.Suffix)
}

// MatchesPrefixes reports whether key starts with include and with none of
// the exclude prefixes. Excludes take precedence over the include prefix.
func MatchesPrefixes(key, include string, excludes []string) bool {
	if !strings.HasPrefix(key, include) {
		return false
	}
	for _, ex := range excludes {
		if strings.HasPrefix(key, ex) {
			return false
		}
	}
	return true
}

// Cutoff is the instant an object must be strictly older than to match a
// rule of the given age.
func Cutoff(now time.Time, days int) time.Time {
	return now.UTC().Add(-time.Duration(days) * day)
}

// OlderThan reports whether obj was last modified strictly before
// now - days. Objects with an unknown (zero) timestamp never match.
func OlderThan(obj common.Object, days int, now time.Time) bool {
	if obj.LastModified.IsZero() {
		return false
	}
	return obj.LastModified.UTC().Before(Cutoff(now, days))
}

// MatchesSuffix reports whether key ends with suffix. An empty suffix matches
// every key.
func MatchesSuffix(key, suffix string) bool {
	return suffix == "" || strings.HasSuffix(key, suffix)
}
