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
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportConcurrentRecord(t *testing.T) {
	r := newReport("bucket", false, testNow)
	idx := r.beginRule(Rule{Name: "r", Action: ActionDelete})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome := OutcomeSucceeded
			if i%10 == 0 {
				outcome = OutcomeFailed
			}
			r.record(idx, ActionResult{Rule: "r", Outcome: outcome, Size: 1})
		}(i)
	}
	wg.Wait()
	r.finishRule(idx, RuleCompleted, 100, 100, 0, nil)

	assert.Len(t, r.Results, 100)
	s, ok := r.Rule("r")
	require.True(t, ok)
	assert.Equal(t, 90, s.Succeeded)
	assert.Equal(t, 10, s.Failed)
	assert.Equal(t, int64(90), s.Bytes)
	assert.True(t, r.HasFailures())
}

func TestReportTotalsAndStatus(t *testing.T) {
	r := newReport("bucket", true, testNow)
	a := r.beginRule(Rule{Name: "a"})
	r.record(a, ActionResult{Rule: "a", Outcome: OutcomePlanned})
	r.finishRule(a, RuleCompleted, 3, 1, 0, nil)
	r.skipRule(Rule{Name: "b"})
	r.finish(testNow, false)

	totals := r.Totals()
	assert.Equal(t, 1, totals.Candidates)
	assert.Equal(t, 1, totals.Planned)
	assert.Zero(t, totals.Aborted)
	assert.False(t, r.HasFailures())

	b, _ := r.Rule("b")
	assert.Equal(t, RuleSkipped, b.Status)

	_, ok := r.Rule("missing")
	assert.False(t, ok)
}

func TestReportJSON(t *testing.T) {
	r := newReport("bucket", false, testNow)
	idx := r.beginRule(Rule{Name: "r", Action: ActionMove})
	r.record(idx, ActionResult{Key: "k", Rule: "r", Action: ActionMove, Outcome: OutcomeSucceeded, NewKey: "archive/k"})
	r.finishRule(idx, RuleCompleted, 1, 1, 0, nil)
	r.finish(testNow, false)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "bucket", decoded["bucket"])
	assert.Equal(t, r.RunID, decoded["run_id"])
	results := decoded["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "archive/k", results[0].(map[string]any)["new_key"])
}

func TestMetricsWriteTextfile(t *testing.T) {
	m := NewMetrics(nil)
	m.observeRule("r", RuleCompleted, 5, 2, 0)
	m.observeResult(ActionResult{Rule: "r", Action: ActionDelete, Outcome: OutcomeSucceeded, Size: 7})

	path := filepath.Join(t.TempDir(), "objlifecycle.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `objlifecycle_objects_listed_total{rule="r"} 5`), text)
	assert.Contains(t, text, `objlifecycle_actions_total{action="delete",outcome="succeeded",rule="r"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.observeRule("r", RuleCompleted, 1, 1, 0)
	m.observeResult(ActionResult{})
	m.observeRun(testNow)
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile("/nonexistent/path"))
}
