// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestConfigureAndWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{
		Level:   "debug",
		Output:  &buf,
		Service: "addmsgid-test",
		Version: "v0.0.0-test",
	})

	logger := WithComponent("filter")
	logger.Info().
		Str(FieldEvent, "header.injected").
		Str(FieldMessageID, "<x@y>").
		Msg("test entry")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}

	if entry["service"] != "addmsgid-test" {
		t.Errorf("expected service addmsgid-test, got %v", entry["service"])
	}
	if entry["component"] != "filter" {
		t.Errorf("expected component filter, got %v", entry["component"])
	}
	if entry["event"] != "header.injected" {
		t.Errorf("expected event header.injected, got %v", entry["event"])
	}
	if entry["message_id"] != "<x@y>" {
		t.Errorf("expected message_id <x@y>, got %v", entry["message_id"])
	}
}

func TestConfigureIsIdempotent(t *testing.T) {
	var first, second bytes.Buffer
	Configure(Config{Output: &first})
	Configure(Config{Output: &second})

	logger := Base()
	logger.Info().Msg("after second configure")
	if second.Len() != 0 {
		t.Error("second Configure call must not replace the writer")
	}
}
