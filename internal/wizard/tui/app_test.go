package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/DCC-EX/EX-Installer-sub000/internal/arduino"
	"github.com/DCC-EX/EX-Installer-sub000/internal/gitclient"
	"github.com/DCC-EX/EX-Installer-sub000/internal/prefs"
	"github.com/DCC-EX/EX-Installer-sub000/internal/products"
	"github.com/DCC-EX/EX-Installer-sub000/internal/tasks"
)

func testShared(t *testing.T) *Shared {
	t.Helper()
	// A path that exists for no-one keeps every screen away from the
	// real binary
	cli := arduino.NewWithPath(t.TempDir() + "/arduino-cli-missing")
	return &Shared{
		CLI:   cli,
		Git:   gitclient.New(),
		Prefs: &prefs.Preferences{MonitorBaud: 115200},
	}
}

func TestScreenOrdering(t *testing.T) {
	order := []Screen{
		ScreenWelcome,
		ScreenManageCLI,
		ScreenSelectDevice,
		ScreenSelectProduct,
		ScreenSelectVersion,
		ScreenConfigure,
		ScreenUpload,
		ScreenMonitor,
	}

	for i := 0; i < len(order)-1; i++ {
		if got := nextScreen(order[i]); got != order[i+1] {
			t.Errorf("nextScreen(%s) = %s, want %s", order[i], got, order[i+1])
		}
		if order[i+1] == ScreenMonitor {
			continue
		}
		if got := previousScreen(order[i+1]); got != order[i] {
			t.Errorf("previousScreen(%s) = %s, want %s", order[i+1], got, order[i])
		}
	}

	// Backing out of the monitor must not re-enter the upload screen
	if got := previousScreen(ScreenMonitor); got != ScreenWelcome {
		t.Errorf("previousScreen(monitor) = %s, want welcome", got)
	}
}

func TestManageCLIStartsIdleWithoutBinary(t *testing.T) {
	m := NewManageCLIModel(testShared(t))
	if m.phase != cliPhaseIdle {
		t.Errorf("phase = %s, want idle", m.phase)
	}
	if m.runner != nil {
		t.Error("no runner should start without an installed CLI")
	}
}

func TestManageCLIAdvance(t *testing.T) {
	t.Run("failed version probe returns to idle", func(t *testing.T) {
		m := NewManageCLIModel(testShared(t))
		m.phase = cliPhaseVersion

		m, _ = m.advance(tasks.Envelope{Status: tasks.StatusError, Data: "no such binary"})
		if m.phase != cliPhaseIdle {
			t.Errorf("phase = %s, want idle", m.phase)
		}
		if m.errMsg != "" {
			t.Errorf("probe failure should not set an error, got %q", m.errMsg)
		}
	})

	t.Run("failed install stops the sequence", func(t *testing.T) {
		m := NewManageCLIModel(testShared(t))
		m.phase = cliPhaseInstall

		m, _ = m.advance(tasks.Envelope{Status: tasks.StatusError, Data: "archive corrupt"})
		if m.phase != cliPhaseFailed {
			t.Errorf("phase = %s, want failed", m.phase)
		}
		if m.errMsg != "archive corrupt" {
			t.Errorf("errMsg = %q", m.errMsg)
		}
	})

	t.Run("board scan completes the sequence", func(t *testing.T) {
		m := NewManageCLIModel(testShared(t))
		m.phase = cliPhaseListBoards

		m, _ = m.advance(tasks.Envelope{Status: tasks.StatusSuccess, Data: []arduino.Device{}})
		if m.phase != cliPhaseDone {
			t.Errorf("phase = %s, want done", m.phase)
		}
	})

	t.Run("version probe records the version", func(t *testing.T) {
		m := NewManageCLIModel(testShared(t))
		m.phase = cliPhaseVersion

		m, _ = m.advance(tasks.Envelope{
			Status: tasks.StatusSuccess,
			Data:   map[string]any{"VersionString": "0.35.3"},
		})
		if m.installedVersion != "0.35.3" {
			t.Errorf("installedVersion = %q", m.installedVersion)
		}
		if m.phase != cliPhasePlatforms {
			t.Errorf("phase = %s, want listing platforms", m.phase)
		}
	})
}

func TestSelectVersionAdvanceError(t *testing.T) {
	m := SelectVersionModel{shared: testShared(t), phase: versionPhasePrepare}

	m, _ = m.advance(tasks.Envelope{Status: tasks.StatusError, Data: "network unreachable"})
	if m.phase != versionPhaseFailed {
		t.Errorf("phase = %v, want failed", m.phase)
	}
	if m.errMsg != "network unreachable" {
		t.Errorf("errMsg = %q", m.errMsg)
	}
}

// dirtyWorkingCopy builds a working copy with origin set to remoteURL,
// one committed config file, and an uncommitted edit to it.
func dirtyWorkingCopy(t *testing.T, remoteURL string) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.example.h"), []byte("#define EXAMPLE"), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("config.example.h"); err != nil {
		t.Fatal(err)
	}
	_, err = wt.Commit("add config.example.h", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = repo.CreateRemote(&config.RemoteConfig{Name: gitclient.RemoteName, URLs: []string{remoteURL}})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.example.h"), []byte("#define EDITED"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestSelectVersionHaltsOnLocalChanges(t *testing.T) {
	shared := testShared(t)
	product := products.ByKey("ex_commandstation")
	shared.Product = *product
	shared.InstallDir = dirtyWorkingCopy(t, product.RepoURL)

	m := NewSelectVersionModel(shared)
	if m.phase != versionPhasePrepare {
		t.Fatalf("phase = %v, want prepare", m.phase)
	}

	env := m.runner.Wait()
	if env.Status != tasks.StatusError {
		t.Fatalf("status = %v, want error", env.Status)
	}

	m, _ = m.advance(env)
	if m.phase != versionPhaseFailed {
		t.Errorf("phase = %v, want failed", m.phase)
	}
	if !strings.Contains(m.errMsg, "config.example.h") {
		t.Errorf("error should name the modified file, got %q", m.errMsg)
	}
	if !strings.Contains(m.errMsg, "local changes") {
		t.Errorf("errMsg = %q", m.errMsg)
	}
}

func TestUploadStartsWithAttach(t *testing.T) {
	shared := testShared(t)
	shared.Device = &arduino.Device{Port: "/dev/ttyUSB0"}
	shared.FQBN = "arduino:avr:mega"

	m := NewUploadModel(shared)
	if m.phase != uploadPhaseAttach {
		t.Errorf("phase = %v, want attach", m.phase)
	}
	if m.runner == nil {
		t.Error("attach runner should be started")
	}
}

func TestUploadAdvance(t *testing.T) {
	t.Run("attach completion", func(t *testing.T) {
		m := UploadModel{shared: testShared(t), phase: uploadPhaseAttach}
		m, _ = m.advance(tasks.Envelope{Status: tasks.StatusSuccess})
		if m.phase != uploadPhaseCompile {
			t.Errorf("phase = %v, want compile", m.phase)
		}
		if m.runner == nil {
			t.Error("compile runner should be started")
		}
	})

	t.Run("upload completion", func(t *testing.T) {
		m := UploadModel{shared: testShared(t), phase: uploadPhaseUpload}
		m, _ = m.advance(tasks.Envelope{Status: tasks.StatusSuccess})
		if m.phase != uploadPhaseDone {
			t.Errorf("phase = %v, want done", m.phase)
		}
	})

	t.Run("compile failure", func(t *testing.T) {
		m := UploadModel{shared: testShared(t), phase: uploadPhaseCompile}
		m, _ = m.advance(tasks.Envelope{Status: tasks.StatusError, Data: "missing config.h"})
		if m.phase != uploadPhaseFailed {
			t.Errorf("phase = %v, want failed", m.phase)
		}
	})
}

func TestHighlightLinePreservesText(t *testing.T) {
	lines := []string{
		"<iDCC-EX V-5.0.7 / MEGA / STANDARD_MOTOR_SHIELD G-devel>",
		"<* Wifi AP SSID DCCEX_a85a20 PASS PASS_a85a20 *>",
		"plain output with nothing to highlight",
	}
	for _, line := range lines {
		got := highlightLine(line)
		if got == "" {
			t.Errorf("highlightLine(%q) returned empty", line)
		}
	}
}
