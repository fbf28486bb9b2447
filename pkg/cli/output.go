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
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-objlifecycle/pkg/common"
	"github.com/jeremyhahn/go-objlifecycle/pkg/lifecycle"
)

// OutputFormat defines the output format type.
type OutputFormat string

const (
	FormatText  OutputFormat = "text"
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
	FormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates a --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatTable, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedOutputFormat, s)
	}
}

// OperationResult holds the result of an operation.
type OperationResult struct {
	Success bool   `json:"success" yaml:"success"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
	Data    any    `json:"data,omitempty" yaml:"data,omitempty"`
}

// FormatOperationResult formats an operation result in the specified format.
func FormatOperationResult(result *OperationResult, format OutputFormat) string {
	switch format {
	case FormatJSON:
		return formatJSON(result)
	case FormatYAML:
		return formatYAML(result)
	case FormatTable:
		return formatResultTable(result)
	default:
		return formatResultText(result)
	}
}

// FormatError formats an error message in the specified format.
func FormatError(err error, format OutputFormat) string {
	result := &OperationResult{
		Success: false,
		Error:   err.Error(),
	}
	return FormatOperationResult(result, format)
}

func formatResultText(result *OperationResult) string {
	if result.Success {
		if result.Message != "" {
			return result.Message + "\n"
		}
		return "Operation completed successfully\n"
	}
	return fmt.Sprintf("Error: %s\n", result.Error)
}

func formatResultTable(result *OperationResult) string {
	status, text := "SUCCESS", result.Message
	if !result.Success {
		status, text = "FAILED", result.Error
	}

	output := "┌────────────────────────────────────────────────────────┐\n"
	output += "│ Operation Result                                       │\n"
	output += "├────────────────────────────────────────────────────────┤\n"
	output += fmt.Sprintf("│ Status: %-46s │\n", status)
	if text != "" {
		for _, paragraph := range strings.Split(text, "\n") {
			for _, line := range wrapText(paragraph, 54) {
				output += fmt.Sprintf("│ %-54s │\n", line)
			}
		}
	}
	output += "└────────────────────────────────────────────────────────┘\n"
	return output
}

func formatJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": \"failed to marshal JSON: %s\"}\n", err)
	}
	return string(data) + "\n"
}

func formatYAML(v any) string {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: failed to marshal YAML: %s\n", err)
	}
	return string(data)
}

// FormatReport renders a run report.
func FormatReport(report *lifecycle.Report, format OutputFormat) string {
	switch format {
	case FormatJSON:
		return formatJSON(report)
	case FormatYAML:
		return formatYAML(report)
	case FormatTable:
		return formatReportTable(report)
	default:
		return formatReportText(report)
	}
}

func formatReportText(report *lifecycle.Report) string {
	var b strings.Builder
	mode := "live"
	if report.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(&b, "Run %s on bucket '%s' (%s)\n", report.RunID, report.Bucket, mode)

	for _, rule := range report.Rules {
		fmt.Fprintf(&b, "\nRule '%s' [%s, %s]: %d object(s) matched of %d listed\n",
			rule.Name, rule.Action, rule.Status, rule.Candidates, rule.Listed)
		if rule.Error != "" {
			fmt.Fprintf(&b, "  Error: %s\n", rule.Error)
		}
		for _, res := range report.ResultsFor(rule.Name) {
			b.WriteString("  " + describeResult(res) + "\n")
		}
	}

	t := report.Totals()
	fmt.Fprintf(&b, "\nTotal: %d candidate(s), %d planned, %d succeeded, %d failed, %d partial move(s), %d aborted rule(s)\n",
		t.Candidates, t.Planned, t.Succeeded, t.Failed, t.PartialMoves, t.Aborted)
	if report.Partial {
		b.WriteString("Run was interrupted; the report is partial\n")
	}
	return b.String()
}

// describeResult renders one result the way an operator reads it in a log.
func describeResult(res lifecycle.ActionResult) string {
	var line string
	switch {
	case res.Outcome == lifecycle.OutcomePlanned && res.Action == lifecycle.ActionMove:
		line = fmt.Sprintf("Would move %s → %s", res.Key, res.NewKey)
	case res.Outcome == lifecycle.OutcomePlanned && res.Action == lifecycle.ActionDelete:
		line = fmt.Sprintf("Would delete %s", res.Key)
	case res.Action == lifecycle.ActionMove:
		line = fmt.Sprintf("Move %s → %s: %s", res.Key, res.NewKey, res.Outcome)
	case res.Action == lifecycle.ActionDelete:
		line = fmt.Sprintf("Delete %s: %s", res.Key, res.Outcome)
	default:
		line = fmt.Sprintf("Matched %s", res.Key)
	}
	if res.Error != "" {
		line += " (" + res.Error + ")"
	}
	return line
}

func formatReportTable(report *lifecycle.Report) string {
	var output string
	output += "┌──────────────────────┬──────────┬───────────┬────────┬────────┬────────┬────────┬─────────┐\n"
	output += "│ Rule                 │ Action   │ Status    │ Listed │ Match  │ Done   │ Failed │ Partial │\n"
	output += "├──────────────────────┼──────────┼───────────┼────────┼────────┼────────┼────────┼─────────┤\n"
	for _, rule := range report.Rules {
		done := rule.Succeeded
		if report.DryRun {
			done = rule.Planned
		}
		output += fmt.Sprintf("│ %-20s │ %-8s │ %-9s │ %6d │ %6d │ %6d │ %6d │ %7d │\n",
			truncate(rule.Name, 20), rule.Action, rule.Status, rule.Listed, rule.Candidates, done, rule.Failed, rule.PartialMoves)
	}
	output += "└──────────────────────┴──────────┴───────────┴────────┴────────┴────────┴────────┴─────────┘\n"

	if len(report.Results) > 0 {
		output += "┌────────────────────────────────────┬────────────────────────────────────┬──────────────┐\n"
		output += "│ Key                                │ New Key                            │ Outcome      │\n"
		output += "├────────────────────────────────────┼────────────────────────────────────┼──────────────┤\n"
		for _, res := range report.Results {
			output += fmt.Sprintf("│ %-34s │ %-34s │ %-12s │\n", truncate(res.Key, 34), truncate(res.NewKey, 34), res.Outcome)
		}
		output += "└────────────────────────────────────┴────────────────────────────────────┴──────────────┘\n"
	}

	t := report.Totals()
	output += fmt.Sprintf("Run: %s  Bucket: %s  Dry run: %v  Partial: %v\n", report.RunID, report.Bucket, report.DryRun, report.Partial)
	output += fmt.Sprintf("Total: %d candidate(s), %d failed, %d partial move(s)\n", t.Candidates, t.Failed, t.PartialMoves)
	return output
}

// FormatListResult formats a list of objects in the specified format.
func FormatListResult(objects []common.Object, format OutputFormat) string {
	switch format {
	case FormatJSON:
		return formatJSON(listPayload(objects))
	case FormatYAML:
		return formatYAML(listPayload(objects))
	case FormatTable:
		return formatListTable(objects)
	default:
		return formatListText(objects)
	}
}

func listPayload(objects []common.Object) map[string]any {
	if objects == nil {
		objects = []common.Object{}
	}
	return map[string]any{
		"count":   len(objects),
		"objects": objects,
	}
}

func formatListText(objects []common.Object) string {
	if len(objects) == 0 {
		return "No objects found\n"
	}

	var output string
	output += fmt.Sprintf("Found %d object(s):\n\n", len(objects))
	for _, obj := range objects {
		output += fmt.Sprintf("Key: %s\n", obj.Key)
		output += fmt.Sprintf("  Size: %s\n", formatSize(obj.Size))
		output += fmt.Sprintf("  Last Modified: %s\n", obj.LastModified.Format(time.RFC3339))
		output += "\n"
	}
	return output
}

func formatListTable(objects []common.Object) string {
	if len(objects) == 0 {
		return "No objects found\n"
	}

	var output string
	output += "┌────────────────────────────────────┬──────────────┬──────────────────────┐\n"
	output += "│ Key                                │ Size         │ Last Modified        │\n"
	output += "├────────────────────────────────────┼──────────────┼──────────────────────┤\n"

	for _, obj := range objects {
		key := truncate(obj.Key, 34)
		size := formatSize(obj.Size)
		modified := obj.LastModified.Format("2006-01-02 15:04:05")
		output += fmt.Sprintf("│ %-34s │ %-12s │ %-20s │\n", key, size, modified)
	}

	output += "└────────────────────────────────────┴──────────────┴──────────────────────┘\n"
	output += fmt.Sprintf("Total: %d object(s)\n", len(objects))
	return output
}

// FormatConfig describes a loaded rule file with secrets masked.
func FormatConfig(fc *FileConfig, format OutputFormat) string {
	settings := make(map[string]string, len(fc.Backend.Settings))
	for k, v := range fc.Backend.Settings {
		if isSecretSetting(k) {
			v = maskSecret(v)
		}
		settings[k] = v
	}

	cfg := fc.RunConfig()
	summary := map[string]any{
		"bucket":  fc.Bucket,
		"backend": map[string]any{"type": fc.Backend.Type, "settings": settings},
		"dry_run": cfg.DryRun,
		"workers": cfg.Workers,
		"rules":   cfg.Rules,
		"valid":   true,
	}

	switch format {
	case FormatJSON:
		return formatJSON(summary)
	case FormatYAML:
		return formatYAML(summary)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Configuration is valid\n")
	fmt.Fprintf(&b, "Bucket: %s\n", fc.Bucket)
	fmt.Fprintf(&b, "Backend: %s\n", fc.Backend.Type)
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s: %s\n", k, settings[k])
	}
	fmt.Fprintf(&b, "Dry run: %v\n", cfg.DryRun)
	fmt.Fprintf(&b, "Rules: %d\n", len(cfg.Rules))
	for _, r := range cfg.Rules {
		fmt.Fprintf(&b, "  - %s: %s objects under '%s' older than %d day(s)", r.Name, r.Action, r.IncludePrefix, r.OlderThanDays)
		if r.Suffix != "" {
			fmt.Fprintf(&b, " ending in '%s'", r.Suffix)
		}
		if r.Action == lifecycle.ActionMove {
			fmt.Fprintf(&b, " to '%s'", r.EffectiveArchivePrefix())
		}
		b.WriteString("\n")
	}
	return b.String()
}

func isSecretSetting(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "secret") || strings.Contains(k, "token") || k == "accountkey"
}

func maskSecret(s string) string {
	if len(s) < 5 {
		return "****"
	}
	return s[:4] + "****"
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatSize formats a byte size into a human-readable string.
func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

// wrapText wraps text to fit within maxWidth characters.
func wrapText(text string, maxWidth int) []string {
	if len(text) <= maxWidth {
		return []string{text}
	}

	// Check if text has no spaces - need to hard wrap
	if !strings.Contains(text, " ") {
		var lines []string
		for len(text) > maxWidth {
			lines = append(lines, text[:maxWidth])
			text = text[maxWidth:]
		}
		if len(text) > 0 {
			lines = append(lines, text)
		}
		return lines
	}

	// Text has spaces - wrap at word boundaries
	var lines []string
	var currentLine string
	for _, word := range strings.Fields(text) {
		if len(currentLine) == 0 {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= maxWidth {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if len(currentLine) > 0 {
		lines = append(lines, currentLine)
	}
	return lines
}
