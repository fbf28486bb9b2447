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

package common

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxKeyLength is the maximum allowed length for object keys and prefixes.
const MaxKeyLength = 1024

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidateKey rejects keys that are empty, too long, absolute, not UTF-8,
// or that contain null bytes, control characters, doubled separators or
// path traversal segments.
func ValidateKey(key string) error {
	if key == "" {
		return &ValidationError{Field: "key", Message: "key cannot be empty"}
	}
	return validatePath("key", key)
}

// ValidatePrefix applies the key rules to a listing or archive prefix.
// The empty prefix is valid and means "the whole bucket".
func ValidatePrefix(field, prefix string) error {
	if prefix == "" {
		return nil
	}
	return validatePath(field, prefix)
}

func validatePath(field, p string) error {
	n := len(p)
	if n > MaxKeyLength {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("length exceeds maximum of %d bytes", MaxKeyLength),
		}
	}

	// C:\ style
	if n >= 2 && p[1] == ':' {
		return &ValidationError{Field: field, Message: "cannot be an absolute path"}
	}

	for i := 0; i < n; i++ {
		switch c := p[i]; c {
		case '\x00':
			return &ValidationError{Field: field, Message: "cannot contain null bytes"}
		case '\n', '\r', '\t':
			return &ValidationError{
				Field:   field,
				Message: fmt.Sprintf("contains invalid character sequence: %q", string(c)),
			}
		case '/', '\\':
			if i+1 < n && p[i+1] == c {
				return &ValidationError{
					Field:   field,
					Message: fmt.Sprintf("contains invalid character sequence: %q", string([]byte{c, c})),
				}
			}
		}
	}

	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return &ValidationError{Field: field, Message: "cannot contain path traversal sequences (..)"}
		}
	}

	if !utf8.ValidString(p) {
		return &ValidationError{Field: field, Message: "must be valid UTF-8"}
	}

	if filepath.IsAbs(p) || p[0] == '/' || p[0] == '\\' {
		return &ValidationError{Field: field, Message: "cannot be an absolute path"}
	}

	return nil
}
