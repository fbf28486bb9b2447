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
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-objlifecycle/pkg/lifecycle"
)

// EnvPrefix is the prefix of environment variables that override config keys,
// e.g. OBJLIFECYCLE_BUCKET or OBJLIFECYCLE_OPTIONS_DRY_RUN.
const EnvPrefix = "OBJLIFECYCLE"

// FileConfig mirrors the rule file.
type FileConfig struct {
	Bucket  string        `mapstructure:"bucket"`
	Backend BackendConfig `mapstructure:"backend"`
	Options OptionsConfig `mapstructure:"options"`
	Rules   []RuleConfig  `mapstructure:"rules"`
}

// BackendConfig selects and configures the storage backend.
type BackendConfig struct {
	Type     string            `mapstructure:"type"`
	Settings map[string]string `mapstructure:"settings"`
}

// OptionsConfig holds run-wide options.
type OptionsConfig struct {
	PageSize  int         `mapstructure:"page_size"`
	DryRun    bool        `mapstructure:"dry_run"`
	Workers   int         `mapstructure:"workers"`
	RateLimit float64     `mapstructure:"rate_limit"`
	Retry     RetryConfig `mapstructure:"retry"`
}

// RetryConfig is the file form of lifecycle.RetryPolicy.
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// RuleConfig is one entry of the rules list.
type RuleConfig struct {
	Name            string       `mapstructure:"name"`
	IncludePrefix   string       `mapstructure:"include_prefix"`
	ExcludePrefixes []string     `mapstructure:"exclude_prefixes"`
	OlderThanDays   int          `mapstructure:"older_than_days"`
	Filter          FilterConfig `mapstructure:"filter"`
	Action          string       `mapstructure:"action"`
	ArchivePrefix   string       `mapstructure:"archive_prefix"`
}

// FilterConfig holds optional extra match conditions.
type FilterConfig struct {
	Suffix string `mapstructure:"suffix"`
}

// settingKeys are the backend setting names as the backends expect them.
var settingKeys = []string{
	"path", "region", "endpoint", "forcePathStyle", "accessKey", "secretKey", "sessionToken",
	"credentialsFile", "anonymous", "accountName", "accountKey",
}

// InitConfig initializes the configuration using Viper.
// Configuration priority: flags > env vars > config file > defaults.
func InitConfig(cfgFile string) (*viper.Viper, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("bucket", "")
	v.SetDefault("backend.type", "s3")
	v.SetDefault("options.page_size", lifecycle.DefaultPageSize)
	v.SetDefault("options.dry_run", true)
	v.SetDefault("options.workers", 1)
	v.SetDefault("options.rate_limit", 0)
	v.SetDefault("options.retry.max_attempts", 1)

	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfigRead, err)
		}
		v.SetConfigFile(cfgFile)
	} else {
		// Search for config in the current directory, then the home directory
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName("objlifecycle")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %w", ErrConfigRead, err)
		}
	}

	return v, nil
}

// LoadFileConfig decodes v into a FileConfig and expands ${VAR} references
// in the bucket and backend settings.
func LoadFileConfig(v *viper.Viper) (*FileConfig, error) {
	if v.ConfigFileUsed() == "" {
		return nil, ErrConfigFileRequired
	}

	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigRead, err)
	}

	fc.Bucket = os.ExpandEnv(fc.Bucket)
	fc.Backend.Type = strings.ToLower(strings.TrimSpace(fc.Backend.Type))
	fc.Backend.Settings = normalizeSettings(fc.Backend.Settings)
	return &fc, nil
}

// LoadRunFile reads the rule file at path. An empty path searches the
// default locations.
func LoadRunFile(path string) (*FileConfig, error) {
	v, err := InitConfig(path)
	if err != nil {
		return nil, err
	}
	return LoadFileConfig(v)
}

// normalizeSettings restores the camelCase setting names (viper lower-cases
// map keys) and expands environment references in values.
func normalizeSettings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, val := range in {
		key := k
		for _, canonical := range settingKeys {
			if strings.EqualFold(k, canonical) {
				key = canonical
				break
			}
		}
		out[key] = os.ExpandEnv(val)
	}
	return out
}

// RunConfig converts the file form into a lifecycle.RunConfig. Action names
// that do not parse are kept verbatim so RunConfig.Validate reports them.
func (fc *FileConfig) RunConfig() lifecycle.RunConfig {
	cfg := lifecycle.RunConfig{
		Bucket:    fc.Bucket,
		PageSize:  fc.Options.PageSize,
		DryRun:    fc.Options.DryRun,
		Workers:   fc.Options.Workers,
		RateLimit: fc.Options.RateLimit,
		Retry: lifecycle.RetryPolicy{
			MaxAttempts:    fc.Options.Retry.MaxAttempts,
			InitialBackoff: fc.Options.Retry.InitialBackoff,
			MaxBackoff:     fc.Options.Retry.MaxBackoff,
		},
		Rules: make([]lifecycle.Rule, 0, len(fc.Rules)),
	}

	for _, rc := range fc.Rules {
		action, err := lifecycle.ParseAction(rc.Action)
		if err != nil {
			action = lifecycle.Action(rc.Action)
		}
		cfg.Rules = append(cfg.Rules, lifecycle.Rule{
			Name:            rc.Name,
			IncludePrefix:   rc.IncludePrefix,
			ExcludePrefixes: rc.ExcludePrefixes,
			OlderThanDays:   rc.OlderThanDays,
			Suffix:          rc.Filter.Suffix,
			Action:          action,
			ArchivePrefix:   rc.ArchivePrefix,
		})
	}
	return cfg
}

// Validate checks the whole file without contacting the backend.
func (fc *FileConfig) Validate() error {
	var errs []error
	if fc.Backend.Type == "" {
		errs = append(errs, &lifecycle.ConfigError{Field: "backend.type", Message: "is required"})
	} else if !knownBackend(fc.Backend.Type) {
		errs = append(errs, &lifecycle.ConfigError{
			Field:   "backend.type",
			Message: fmt.Sprintf("unknown backend %q (want one of %s)", fc.Backend.Type, strings.Join(backendTypes(), ", ")),
		})
	}
	if len(fc.Rules) == 0 {
		errs = append(errs, &lifecycle.ConfigError{Field: "rules", Message: "at least one rule is required"})
	}
	cfg := fc.RunConfig()
	errs = append(errs, cfg.Validate())
	return errors.Join(errs...)
}
