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

package common_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jeremyhahn/go-objlifecycle/pkg/common"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
		errMsg  string
	}{
		{name: "valid simple key", key: "myfile.txt"},
		{name: "valid nested key", key: "logs/2024/01/app.log"},
		{name: "empty key", key: "", wantErr: true, errMsg: "key cannot be empty"},
		{name: "path traversal with ..", key: "../etc/passwd", wantErr: true, errMsg: "path traversal"},
		{name: "path traversal in middle", key: "path/../etc/passwd", wantErr: true, errMsg: "path traversal"},
		{name: "path traversal at end", key: "path/to/..", wantErr: true, errMsg: "path traversal"},
		{name: "windows path traversal", key: "path\\..\\file.txt", wantErr: true, errMsg: "path traversal"},
		{name: "absolute unix path", key: "/etc/passwd", wantErr: true, errMsg: "absolute path"},
		{name: "absolute windows path", key: "C:\\Windows\\System32", wantErr: true, errMsg: "absolute path"},
		{name: "null byte in key", key: "file\x00.txt", wantErr: true, errMsg: "null bytes"},
		{name: "newline in key", key: "file\n.txt", wantErr: true, errMsg: "invalid character sequence"},
		{name: "double slash", key: "path//file.txt", wantErr: true, errMsg: "invalid character sequence"},
		{name: "key exceeds max length", key: strings.Repeat("a", common.MaxKeyLength+1), wantErr: true, errMsg: "exceeds maximum"},
		{name: "key at max length", key: strings.Repeat("a", common.MaxKeyLength)},
		{name: "unicode key", key: "path/файл.txt"},
		{name: "invalid UTF-8", key: "file\xff\xfe.txt", wantErr: true, errMsg: "valid UTF-8"},
		{name: "dots in filename", key: "my..file.txt"},
		{name: "hidden file", key: ".hidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := common.ValidateKey(tt.key)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got nil", tt.key)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
				}
				var verr *common.ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("expected *ValidationError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidatePrefix(t *testing.T) {
	if err := common.ValidatePrefix("archive_prefix", ""); err != nil {
		t.Errorf("empty prefix should be valid, got %v", err)
	}
	if err := common.ValidatePrefix("archive_prefix", "archive/"); err != nil {
		t.Errorf("expected archive/ to be valid, got %v", err)
	}

	err := common.ValidatePrefix("archive_prefix", "../outside/")
	if err == nil {
		t.Fatal("expected traversal prefix to be rejected")
	}
	if !strings.Contains(err.Error(), "archive_prefix") {
		t.Errorf("expected field name in error, got %v", err)
	}
}

func TestNormalizeTime(t *testing.T) {
	if got := common.NormalizeTime(time.Time{}); !got.IsZero() {
		t.Errorf("expected zero time to stay zero, got %v", got)
	}

	est := time.FixedZone("EST", -5*3600)
	in := time.Date(2024, 3, 1, 7, 0, 0, 0, est)
	got := common.NormalizeTime(in)
	if got.Location() != time.UTC {
		t.Errorf("expected UTC location, got %v", got.Location())
	}
	if !got.Equal(in) {
		t.Errorf("expected same instant, got %v want %v", got, in)
	}
	if got.Hour() != 12 {
		t.Errorf("expected hour 12 UTC, got %d", got.Hour())
	}
}
