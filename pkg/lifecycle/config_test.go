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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-objlifecycle/pkg/common"
)

func validConfig() RunConfig {
	return RunConfig{
		Bucket: "bucket",
		Rules: []Rule{
			{Name: "archive-logs", IncludePrefix: "logs/", OlderThanDays: 30, Action: ActionMove},
			{Name: "purge-tmp", IncludePrefix: "tmp/", OlderThanDays: 1, Action: ActionDelete},
		},
	}
}

func TestParseAction(t *testing.T) {
	tests := map[string]Action{
		"move":    ActionMove,
		"archive": ActionMove,
		"DELETE":  ActionDelete,
		"":        ActionNone,
		"none":    ActionNone,
	}
	for in, want := range tests {
		got, err := ParseAction(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseAction("shred")
	assert.Error(t, err)
}

func TestRuleArchiveKey(t *testing.T) {
	assert.Equal(t, "archive/logs/a.log", Rule{}.ArchiveKey("logs/a.log"))
	assert.Equal(t, "cold/logs/a.log", Rule{ArchivePrefix: "cold/"}.ArchiveKey("logs/a.log"))
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunConfig)
		field  string
	}{
		{"missing bucket", func(c *RunConfig) { c.Bucket = "" }, "bucket"},
		{"negative page size", func(c *RunConfig) { c.PageSize = -1 }, "options.page_size"},
		{"negative workers", func(c *RunConfig) { c.Workers = -2 }, "options.workers"},
		{"negative rate limit", func(c *RunConfig) { c.RateLimit = -1 }, "options.rate_limit"},
		{"negative retry attempts", func(c *RunConfig) { c.Retry.MaxAttempts = -1 }, "options.retry.max_attempts"},
		{"negative days", func(c *RunConfig) { c.Rules[0].OlderThanDays = -5 }, "rules[0].older_than_days"},
		{"unknown action", func(c *RunConfig) { c.Rules[1].Action = "shred" }, "rules[1].action"},
		{"missing name", func(c *RunConfig) { c.Rules[0].Name = "" }, "rules[0].name"},
		{"duplicate name", func(c *RunConfig) { c.Rules[1].Name = c.Rules[0].Name }, "rules[1].name"},
		{"empty exclude", func(c *RunConfig) { c.Rules[0].ExcludePrefixes = []string{""} }, "rules[0].exclude_prefixes[0]"},
		{"traversal archive prefix", func(c *RunConfig) { c.Rules[0].ArchivePrefix = "../out/" }, "rules[0].archive_prefix"},
		{"absolute include prefix", func(c *RunConfig) { c.Rules[0].IncludePrefix = "/logs/" }, "rules[0].include_prefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrConfigInvalid))

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Bucket = ""
	cfg.Rules[0].OlderThanDays = -1
	cfg.Rules[1].Action = "bogus"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")
	assert.Contains(t, err.Error(), "older_than_days")
	assert.Contains(t, err.Error(), "rules[1].action")
}

func TestWithDefaults(t *testing.T) {
	cfg := RunConfig{Bucket: "b"}.withDefaults()
	assert.Equal(t, DefaultPageSize, cfg.PageSize)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 1, cfg.Retry.MaxAttempts)
	assert.Equal(t, defaultInitialBackoff, cfg.Retry.InitialBackoff)
	assert.NotNil(t, cfg.Retry.Retryable)

	custom := RunConfig{Bucket: "b", PageSize: 10, Workers: 4, Retry: RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Second, MaxBackoff: time.Millisecond}}.withDefaults()
	assert.Equal(t, 10, custom.PageSize)
	assert.Equal(t, 4, custom.Workers)
	assert.Equal(t, time.Second, custom.Retry.MaxBackoff, "max backoff is raised to the initial backoff")
}
