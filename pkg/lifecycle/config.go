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
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-objlifecycle/pkg/common"
)

// DefaultPageSize is the listing page size used when RunConfig.PageSize is zero.
const DefaultPageSize = 1000

// RunConfig is the complete input of one lifecycle run.
type RunConfig struct {
	Bucket   string
	PageSize int

	// DryRun reports what would happen without calling copy or delete.
	DryRun bool

	// Workers bounds intra-rule parallelism. Values <= 1 run sequentially.
	Workers int

	// RateLimit caps backend copy/delete calls per second. Zero is unlimited.
	RateLimit float64

	Retry RetryPolicy
	Rules []Rule
}

// ConfigError describes one invalid configuration field.
// errors.Is(err, common.ErrConfigInvalid) holds for every ConfigError.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", common.ErrConfigInvalid, e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return common.ErrConfigInvalid
}

func invalid(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks the configuration and every rule. All problems are
// returned joined together; the result is nil when the config is usable.
func (c *RunConfig) Validate() error {
	var errs []error

	if c.Bucket == "" {
		errs = append(errs, invalid("bucket", "%v", common.ErrBucketNotSet))
	}
	if c.PageSize < 0 {
		errs = append(errs, invalid("options.page_size", "must be positive, got %d", c.PageSize))
	}
	if c.Workers < 0 {
		errs = append(errs, invalid("options.workers", "must not be negative, got %d", c.Workers))
	}
	if c.RateLimit < 0 {
		errs = append(errs, invalid("options.rate_limit", "must not be negative, got %v", c.RateLimit))
	}
	if err := c.Retry.validate(); err != nil {
		errs = append(errs, err)
	}

	seen := make(map[string]int, len(c.Rules))
	for i, r := range c.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		if r.Name == "" {
			errs = append(errs, invalid(field+".name", "is required"))
		} else if prev, dup := seen[r.Name]; dup {
			errs = append(errs, invalid(field+".name", "duplicates rules[%d] (%q)", prev, r.Name))
		} else {
			seen[r.Name] = i
		}
		errs = append(errs, validateRule(field, r)...)
	}

	return errors.Join(errs...)
}

func validateRule(field string, r Rule) []error {
	var errs []error

	if r.OlderThanDays < 0 {
		errs = append(errs, invalid(field+".older_than_days", "must not be negative, got %d", r.OlderThanDays))
	}
	if !r.Action.Valid() {
		errs = append(errs, invalid(field+".action", "unknown action %q", r.Action))
	}
	if err := common.ValidatePrefix(field+".include_prefix", r.IncludePrefix); err != nil {
		errs = append(errs, invalid(field+".include_prefix", "%v", err))
	}
	for j, ex := range r.ExcludePrefixes {
		if ex == "" {
			// an empty exclude would exclude everything
			errs = append(errs, invalid(fmt.Sprintf("%s.exclude_prefixes[%d]", field, j), "must not be empty"))
		}
	}
	if r.Action == ActionMove {
		if err := common.ValidatePrefix(field+".archive_prefix", r.ArchivePrefix); err != nil {
			errs = append(errs, invalid(field+".archive_prefix", "%v", err))
		}
	}
	return errs
}

// withDefaults returns a copy with zero-valued options replaced by defaults.
func (c RunConfig) withDefaults() RunConfig {
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	c.Retry = c.Retry.normalized()
	return c
}
