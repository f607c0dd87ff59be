// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"testing"
	"time"
)

func TestParseString(t *testing.T) {
	t.Setenv("ADDMSGID_TEST_STR", "value")
	if got := ParseString("ADDMSGID_TEST_STR", "fallback"); got != "value" {
		t.Errorf("expected value, got %q", got)
	}
	t.Setenv("ADDMSGID_TEST_STR", "")
	if got := ParseString("ADDMSGID_TEST_STR", "fallback"); got != "fallback" {
		t.Errorf("empty variable should fall back, got %q", got)
	}
	if got := ParseString("ADDMSGID_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("unset variable should fall back, got %q", got)
	}
}

func TestParseInt(t *testing.T) {
	t.Setenv("ADDMSGID_TEST_INT", "42")
	if got := ParseInt("ADDMSGID_TEST_INT", 7); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	t.Setenv("ADDMSGID_TEST_INT", "not-a-number")
	if got := ParseInt("ADDMSGID_TEST_INT", 7); got != 7 {
		t.Errorf("invalid integer should fall back, got %d", got)
	}
}

func TestParseBool(t *testing.T) {
	t.Setenv("ADDMSGID_TEST_BOOL", "true")
	if !ParseBool("ADDMSGID_TEST_BOOL", false) {
		t.Error("expected true")
	}
	t.Setenv("ADDMSGID_TEST_BOOL", "banana")
	if ParseBool("ADDMSGID_TEST_BOOL", false) {
		t.Error("invalid boolean should fall back to default")
	}
}

func TestParseDuration(t *testing.T) {
	t.Setenv("ADDMSGID_TEST_DUR", "250ms")
	if got := ParseDuration("ADDMSGID_TEST_DUR", time.Second); got != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", got)
	}
	t.Setenv("ADDMSGID_TEST_DUR", "soon")
	if got := ParseDuration("ADDMSGID_TEST_DUR", time.Second); got != time.Second {
		t.Errorf("invalid duration should fall back, got %v", got)
	}
}

func TestParseFileMode(t *testing.T) {
	t.Setenv("ADDMSGID_TEST_MODE", "0600")
	if got := ParseFileMode("ADDMSGID_TEST_MODE", 0o660); got != os.FileMode(0o600) {
		t.Errorf("expected 0600, got %v", got)
	}
	t.Setenv("ADDMSGID_TEST_MODE", "rwxrwx")
	if got := ParseFileMode("ADDMSGID_TEST_MODE", 0o660); got != os.FileMode(0o660) {
		t.Errorf("invalid mode should fall back, got %v", got)
	}
}
