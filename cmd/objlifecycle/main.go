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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-objlifecycle/pkg/adapters"
	"github.com/jeremyhahn/go-objlifecycle/pkg/cli"
)

var (
	cfgFile      string
	viperConfig  *viper.Viper
	outputFormat cli.OutputFormat
	logger       adapters.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "objlifecycle",
	Short: "Rule-driven lifecycle management for object storage buckets",
	Long: `objlifecycle evaluates an ordered list of lifecycle rules against a bucket.
Each rule selects objects by key prefix, exclusions, age and suffix, then
moves them under an archive prefix, deletes them, or only counts them.

Supported Storage Backends:
  - s3       : AWS S3 and S3-compatible services
  - minio    : MinIO
  - gcs      : Google Cloud Storage
  - azure    : Azure Blob Storage
  - local    : Local filesystem (one directory per bucket)
  - memory   : In-memory (testing)

Configuration can be provided via:
  - Command-line flags (highest priority)
  - Environment variables (OBJLIFECYCLE_*)
  - Configuration file (--config, ./objlifecycle.yaml or ~/objlifecycle.yaml)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		outputFormat, err = cli.ParseOutputFormat(flagString(cmd, "output"))
		if err != nil {
			return err
		}
		logger, err = cli.NewLogger(flagString(cmd, "log-format"), flagString(cmd, "log-level"), os.Stderr)
		if err != nil {
			return err
		}
		if cmd.Name() == "version" {
			return nil
		}

		viperConfig, err = cli.InitConfig(cfgFile)
		if err != nil {
			return err
		}
		return bindOptionFlags(cmd)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Apply every rule to the bucket",
	Long: `Evaluate the rules in order and apply their actions. options.dry_run
defaults to true, in which case nothing is copied or deleted; pass
--dry-run=false or set it in the rule file to execute the actions.
The exit status is non-zero when any action failed, any move was partial,
any rule was aborted, or the run was interrupted.`,
	Example: `  objlifecycle run --config lifecycle.yaml
  objlifecycle run --config lifecycle.yaml --dry-run=false --workers 8 --output json
  objlifecycle run --config lifecycle.yaml --metrics-file /var/lib/node_exporter/objlifecycle.prom`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLifecycle(cmd, false)
	},
}

var planCmd = &cobra.Command{
	Use:     "plan",
	Short:   "Show what run would do without changing anything",
	Example: `  objlifecycle plan --config lifecycle.yaml --output table`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLifecycle(cmd, true)
	},
}

var validateCmd = &cobra.Command{
	Use:     "validate",
	Short:   "Check the configuration without contacting the backend",
	Example: `  objlifecycle validate --config lifecycle.yaml`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fc, err := cli.LoadFileConfig(viperConfig)
		if err != nil {
			return fail(err)
		}
		if err := cli.ValidateCommand(fc); err != nil {
			return fail(err)
		}
		fmt.Print(cli.FormatConfig(fc, outputFormat))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "List objects in the configured bucket",
	Example: `  objlifecycle list --config lifecycle.yaml
  objlifecycle list logs/ --limit 20 --output table`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix := ""
		if len(args) > 0 {
			prefix = args[0]
		}
		limit, _ := cmd.Flags().GetInt("limit") //nolint:errcheck // flags are validated by cobra

		cc, err := newCommandContext()
		if err != nil {
			return fail(err)
		}
		defer func() { _ = cc.Close() }()

		objects, err := cc.ListCommand(cmd.Context(), prefix, limit)
		if err != nil {
			return fail(err)
		}
		fmt.Print(cli.FormatListResult(objects, outputFormat))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(cli.VersionCommand())
	},
}

func runLifecycle(cmd *cobra.Command, forceDryRun bool) error {
	cc, err := newCommandContext()
	if err != nil {
		return fail(err)
	}
	defer func() { _ = cc.Close() }()

	report, runErr := cc.RunCommand(cmd.Context(), forceDryRun)
	if report == nil {
		return fail(runErr)
	}
	fmt.Print(cli.FormatReport(report, outputFormat))

	if err := cc.WriteMetrics(flagString(cmd, "metrics-file")); err != nil {
		logger.Error(cmd.Context(), "Failed to write metrics file", adapters.Field{Key: "error", Value: err.Error()})
	}

	if runErr != nil {
		return runErr
	}
	if report.HasFailures() {
		return cli.ErrRunHasFailures
	}
	return nil
}

func newCommandContext() (*cli.CommandContext, error) {
	fc, err := cli.LoadFileConfig(viperConfig)
	if err != nil {
		return nil, err
	}
	return cli.NewCommandContext(fc, logger)
}

// fail prints err in the selected output format for machine-readable
// formats, then hands it back to cobra.
func fail(err error) error {
	if outputFormat == cli.FormatJSON || outputFormat == cli.FormatYAML {
		fmt.Print(cli.FormatError(err, outputFormat))
	}
	if errors.Is(err, cli.ErrConfigFileRequired) {
		return fmt.Errorf("%w\nsee 'objlifecycle --help' for configuration sources", err)
	}
	return err
}

// bindOptionFlags lets the run-option flags override the rule file.
func bindOptionFlags(cmd *cobra.Command) error {
	for key, flag := range map[string]string{
		"options.dry_run":   "dry-run",
		"options.page_size": "page-size",
		"options.workers":   "workers",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := viperConfig.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
		}
	}
	return nil
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name) //nolint:errcheck // flags are validated by cobra
	return v
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "rule file (default ./objlifecycle.yaml or $HOME/objlifecycle.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "text", "output format (text, json, table, yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format on stderr (json, text, console)")

	// run/plan flags
	for _, cmd := range []*cobra.Command{runCmd, planCmd} {
		cmd.Flags().String("metrics-file", "", "write Prometheus metrics in text format to this file after the run")
		cmd.Flags().Int("page-size", 0, "listing page size (overrides options.page_size)")
		cmd.Flags().Int("workers", 0, "objects processed in parallel within a rule (overrides options.workers)")
	}
	runCmd.Flags().Bool("dry-run", false, "report planned actions without executing them (overrides options.dry_run)")

	// list flags
	listCmd.Flags().Int("limit", 0, "maximum number of objects to print (0 = all)")
	listCmd.Flags().Int("page-size", 0, "listing page size (overrides options.page_size)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
}
