package arduino

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestBinaryPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", os.Getenv("HOME"))

	path, err := BinaryPath()
	if err != nil {
		t.Fatalf("BinaryPath() error = %v", err)
	}
	want := filepath.Join("ex-installer", "arduino-cli", "arduino-cli")
	if runtime.GOOS == "windows" {
		want += ".exe"
	}
	if !strings.HasSuffix(path, want) {
		t.Errorf("BinaryPath() = %q, want suffix %q", path, want)
	}
}

func TestDownloadURL(t *testing.T) {
	url, err := DownloadURL()
	switch runtime.GOOS {
	case "linux", "darwin", "windows":
		if err != nil {
			t.Fatalf("DownloadURL() error = %v", err)
		}
		if !strings.HasPrefix(url, "https://downloads.arduino.cc/arduino-cli/arduino-cli_latest_") {
			t.Errorf("DownloadURL() = %q", url)
		}
	default:
		if err == nil {
			t.Errorf("DownloadURL() = %q, want error on %s", url, runtime.GOOS)
		}
	}
}

func TestIsInstalled(t *testing.T) {
	dir := t.TempDir()

	cli := NewWithPath(filepath.Join(dir, "arduino-cli"))
	if cli.IsInstalled() {
		t.Error("IsInstalled() = true for missing binary")
	}

	if err := os.WriteFile(cli.Path(), []byte("#!/bin/sh\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != "windows" && cli.IsInstalled() {
		t.Error("IsInstalled() = true for non-executable file")
	}

	if err := os.Chmod(cli.Path(), 0o755); err != nil {
		t.Fatal(err)
	}
	if !cli.IsInstalled() {
		t.Error("IsInstalled() = false for executable file")
	}
}
