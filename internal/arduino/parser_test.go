package arduino

import (
	"errors"
	"strings"
	"testing"
)

func TestParseOutput(t *testing.T) {
	args := []string{"version", "--format", "jsonmini"}

	t.Run("success with JSON stdout", func(t *testing.T) {
		stdout := []byte(`{"Application":"arduino-cli","VersionString":"1.0.4"}`)
		data, err := parseOutput(args, stdout, nil, 0)
		if err != nil {
			t.Fatalf("parseOutput() error = %v", err)
		}
		doc, ok := data.(map[string]any)
		if !ok {
			t.Fatalf("data = %T, want map", data)
		}
		if doc["VersionString"] != "1.0.4" {
			t.Errorf("VersionString = %v, want 1.0.4", doc["VersionString"])
		}
	})

	t.Run("success with no output", func(t *testing.T) {
		data, err := parseOutput(args, nil, nil, 0)
		if err != nil {
			t.Fatalf("parseOutput() error = %v", err)
		}
		if data != noOutputPlaceholder {
			t.Errorf("data = %v, want %q", data, noOutputPlaceholder)
		}
	})

	t.Run("success with non-JSON stdout", func(t *testing.T) {
		data, err := parseOutput(args, []byte("plain text\n"), nil, 0)
		if err != nil {
			t.Fatalf("parseOutput() error = %v", err)
		}
		if data != "plain text" {
			t.Errorf("data = %v, want trimmed raw text", data)
		}
	})

	t.Run("failure with stderr error document", func(t *testing.T) {
		stderr := []byte(`{"error":"exit status 1","output":{"stdout":"","stderr":"Error during install: platform not found\n"}}`)
		_, err := parseOutput(args, nil, stderr, 1)
		if err == nil {
			t.Fatal("parseOutput() expected error")
		}
		var execErr *ExecutionError
		if !errors.As(err, &execErr) {
			t.Fatalf("error type = %T, want *ExecutionError", err)
		}
		if got := err.Error(); !strings.Contains(got, "platform not found") {
			t.Errorf("error = %q, want embedded tool output", got)
		}
	})

	t.Run("failure with empty embedded output", func(t *testing.T) {
		stderr := []byte(`{"error":"exit status 1","output":{"stdout":"","stderr":""}}`)
		_, err := parseOutput(args, nil, stderr, 1)
		if err == nil {
			t.Fatal("parseOutput() expected error")
		}
		if got := err.Error(); !strings.Contains(got, "exit status 1") {
			t.Errorf("error = %q, want fallback to envelope error", got)
		}
	})

	t.Run("stderr takes precedence over stdout", func(t *testing.T) {
		stdout := []byte(`{"success":true}`)
		stderr := []byte("warning: index out of date")
		data, err := parseOutput(args, stdout, stderr, 0)
		if err != nil {
			t.Fatalf("parseOutput() error = %v", err)
		}
		if data != "warning: index out of date" {
			t.Errorf("data = %v, want stderr text", data)
		}
	})
}

func TestErrorDocumentText(t *testing.T) {
	if got := errorDocumentText([]byte("not json")); got != "" {
		t.Errorf("errorDocumentText(non-JSON) = %q, want empty", got)
	}
	doc := []byte(`{"error":"env","output":{"stdout":"out ","stderr":"err"}}`)
	if got := errorDocumentText(doc); got != "out err" {
		t.Errorf("errorDocumentText() = %q, want combined streams", got)
	}
}

func TestNotInstalledError(t *testing.T) {
	cli := NewWithPath("/nonexistent/arduino-cli")
	_, err := cli.run(defaultTimeout, "version")
	var notInstalled *NotInstalledError
	if !errors.As(err, &notInstalled) {
		t.Fatalf("error = %v, want *NotInstalledError", err)
	}
	if !strings.Contains(err.Error(), "/nonexistent/arduino-cli") {
		t.Errorf("error = %q, want path included", err.Error())
	}
}
