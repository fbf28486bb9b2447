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
	"sync"
	"time"

	"github.com/google/uuid"
)

// RuleStatus says how far a rule got.
type RuleStatus string

const (
	// RuleCompleted means the rule was fully evaluated and executed.
	RuleCompleted RuleStatus = "completed"
	// RuleAborted means the rule was not fully evaluated, either because
	// listing failed or because the run was cancelled while it was active.
	RuleAborted RuleStatus = "aborted"
	// RuleSkipped means the run was cancelled before the rule started.
	RuleSkipped RuleStatus = "skipped"
)

// RuleSummary aggregates the outcome of one rule.
type RuleSummary struct {
	Name         string        `json:"name" yaml:"name"`
	Action       Action        `json:"action" yaml:"action"`
	Status       RuleStatus    `json:"status" yaml:"status"`
	Listed       int           `json:"listed" yaml:"listed"`
	Candidates   int           `json:"candidates" yaml:"candidates"`
	Planned      int           `json:"planned" yaml:"planned"`
	Succeeded    int           `json:"succeeded" yaml:"succeeded"`
	Failed       int           `json:"failed" yaml:"failed"`
	PartialMoves int           `json:"partial_moves" yaml:"partial_moves"`
	Bytes        int64         `json:"bytes" yaml:"bytes"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	Error        string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report is the result of one run. It is safe for concurrent use while the
// run is in progress; callers should only read it after Run returns.
type Report struct {
	mu sync.Mutex

	RunID      string         `json:"run_id" yaml:"run_id"`
	Bucket     string         `json:"bucket" yaml:"bucket"`
	DryRun     bool           `json:"dry_run" yaml:"dry_run"`
	Partial    bool           `json:"partial" yaml:"partial"`
	StartedAt  time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time      `json:"finished_at" yaml:"finished_at"`
	Rules      []RuleSummary  `json:"rules" yaml:"rules"`
	Results    []ActionResult `json:"results" yaml:"results"`
}

// Totals sums results across all rules.
type Totals struct {
	Candidates   int
	Planned      int
	Succeeded    int
	Failed       int
	PartialMoves int
	Aborted      int
}

func newReport(bucket string, dryRun bool, started time.Time) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Bucket:    bucket,
		DryRun:    dryRun,
		StartedAt: started.UTC(),
		Rules:     []RuleSummary{},
		Results:   []ActionResult{},
	}
}

// beginRule appends an empty summary and returns its index.
func (r *Report) beginRule(rule Rule) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Rules = append(r.Rules, RuleSummary{Name: rule.Name, Action: rule.Action})
	return len(r.Rules) - 1
}

// record appends res and tallies it into the summary at idx.
func (r *Report) record(idx int, res ActionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Results = append(r.Results, res)

	s := &r.Rules[idx]
	switch res.Outcome {
	case OutcomePlanned:
		s.Planned++
	case OutcomeSucceeded:
		s.Succeeded++
		s.Bytes += res.Size
	case OutcomeFailed:
		s.Failed++
	case OutcomePartialMove:
		s.PartialMoves++
	}
}

// finishRule sets the final counters and status of the summary at idx.
func (r *Report) finishRule(idx int, status RuleStatus, listed, candidates int, dur time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &r.Rules[idx]
	s.Status = status
	s.Listed = listed
	s.Candidates = candidates
	s.Duration = dur
	if err != nil {
		s.Error = err.Error()
	}
}

func (r *Report) skipRule(rule Rule) {
	idx := r.beginRule(rule)
	r.finishRule(idx, RuleSkipped, 0, 0, 0, nil)
}

func (r *Report) finish(at time.Time, partial bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FinishedAt = at.UTC()
	r.Partial = partial
}

// Rule returns the summary for the named rule.
func (r *Report) Rule(name string) (RuleSummary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.Rules {
		if s.Name == name {
			return s, true
		}
	}
	return RuleSummary{}, false
}

// ResultsFor returns the results produced by the named rule, in order.
func (r *Report) ResultsFor(rule string) []ActionResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ActionResult
	for _, res := range r.Results {
		if res.Rule == rule {
			out = append(out, res)
		}
	}
	return out
}

// Totals sums every rule summary.
func (r *Report) Totals() Totals {
	r.mu.Lock()
	defer r.mu.Unlock()
	var t Totals
	for _, s := range r.Rules {
		t.Candidates += s.Candidates
		t.Planned += s.Planned
		t.Succeeded += s.Succeeded
		t.Failed += s.Failed
		t.PartialMoves += s.PartialMoves
		if s.Status == RuleAborted {
			t.Aborted++
		}
	}
	return t
}

// HasFailures reports whether any action failed, any move was partial, any
// rule was aborted, or the run was cut short.
func (r *Report) HasFailures() bool {
	t := r.Totals()
	r.mu.Lock()
	partial := r.Partial
	r.mu.Unlock()
	return partial || t.Failed > 0 || t.PartialMoves > 0 || t.Aborted > 0
}
