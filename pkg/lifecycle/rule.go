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
	"fmt"
	"strings"
)

// DefaultArchivePrefix is prepended to a key when a move rule does not set
// its own archive prefix.
const DefaultArchivePrefix = "archive/"

// Action is what a rule does to the objects it matches.
type Action string

const (
	// ActionMove copies the object under the archive prefix, then deletes the source.
	ActionMove Action = "move"

	// ActionDelete removes the object.
	ActionDelete Action = "delete"

	// ActionNone only counts matching objects.
	ActionNone Action = "none"
)

// ParseAction maps a configured action name to an Action.
// "archive" is accepted as an alias for move, and an empty string means none.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "move", "archive":
		return ActionMove, nil
	case "delete":
		return ActionDelete, nil
	case "", "none":
		return ActionNone, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	return a == ActionMove || a == ActionDelete || a == ActionNone
}

// Rule selects objects by prefix, age and suffix and names the action to
// apply to them. Rules are read-only for the duration of a run.
type Rule struct {
	Name            string   `json:"name" yaml:"name"`
	IncludePrefix   string   `json:"include_prefix,omitempty" yaml:"include_prefix,omitempty"`
	ExcludePrefixes []string `json:"exclude_prefixes,omitempty" yaml:"exclude_prefixes,omitempty"`
	OlderThanDays   int      `json:"older_than_days" yaml:"older_than_days"`

	// Suffix, when non-empty, restricts the rule to keys ending with it.
	Suffix string `json:"suffix,omitempty" yaml:"suffix,omitempty"`

	Action        Action `json:"action" yaml:"action"`
	ArchivePrefix string `json:"archive_prefix,omitempty" yaml:"archive_prefix,omitempty"`
}

// EffectiveArchivePrefix returns the archive prefix, falling back to
// DefaultArchivePrefix.
func (r Rule) EffectiveArchivePrefix() string {
	if r.ArchivePrefix == "" {
		return DefaultArchivePrefix
	}
	return r.ArchivePrefix
}

// ArchiveKey is the destination key a move rule uses for key.
func (r Rule) ArchiveKey(key string) string {
	return r.EffectiveArchivePrefix() + key
}
