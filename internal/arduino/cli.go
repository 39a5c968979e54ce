// Package arduino wraps the Arduino CLI binary: locating and
// installing it, configuring board platforms, enumerating attached
// devices, and compiling and uploading sketches. All invocations use
// the CLI's json output format and run under the shared tool worker
// class so only one CLI process runs at a time.
package arduino

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DCC-EX/EX-Installer-sub000/internal/fileman"
	"github.com/DCC-EX/EX-Installer-sub000/internal/logging"
	"github.com/DCC-EX/EX-Installer-sub000/internal/tasks"
)

const (
	defaultTimeout   = 5 * time.Minute
	installTimeout   = 10 * time.Minute
	boardListTimeout = 2 * time.Minute
)

// downloadURLs maps platform keys to the latest CLI archive for that
// operating system and word size.
var downloadURLs = map[string]string{
	"linux64":   "https://downloads.arduino.cc/arduino-cli/arduino-cli_latest_Linux_64bit.tar.gz",
	"darwin64":  "https://downloads.arduino.cc/arduino-cli/arduino-cli_latest_macOS_64bit.tar.gz",
	"windows32": "https://downloads.arduino.cc/arduino-cli/arduino-cli_latest_Windows_32bit.zip",
	"windows64": "https://downloads.arduino.cc/arduino-cli/arduino-cli_latest_Windows_64bit.zip",
}

// CLI is the client for a single Arduino CLI installation. It also
// carries the device list from the most recent board scan so screens
// can share one selection.
type CLI struct {
	binaryPath string

	DetectedDevices []Device
	SelectedDevice  int
}

// New returns a client for the CLI at the standard install path.
func New() (*CLI, error) {
	path, err := BinaryPath()
	if err != nil {
		return nil, err
	}
	return &CLI{binaryPath: path, SelectedDevice: -1}, nil
}

// NewWithPath returns a client for a CLI binary at an explicit path,
// used by tests and by users with an existing installation.
func NewWithPath(path string) *CLI {
	return &CLI{binaryPath: path, SelectedDevice: -1}
}

// BinaryPath returns where the managed CLI binary lives, for example
// ~/ex-installer/arduino-cli/arduino-cli on Linux with an .exe suffix
// on Windows.
func BinaryPath() (string, error) {
	base, err := fileman.BaseDir()
	if err != nil {
		return "", err
	}
	name := "arduino-cli"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(base, "arduino-cli", name), nil
}

// DownloadURL returns the CLI archive URL for the running platform.
func DownloadURL() (string, error) {
	key := runtime.GOOS + "64"
	if math.MaxInt == math.MaxInt32 {
		key = runtime.GOOS + "32"
	}
	url, ok := downloadURLs[key]
	if !ok {
		return "", &UnsupportedPlatformError{OS: runtime.GOOS}
	}
	return url, nil
}

// Path returns the binary path this client invokes.
func (c *CLI) Path() string {
	return c.binaryPath
}

// IsInstalled reports whether the CLI binary exists and is executable.
func (c *CLI) IsInstalled() bool {
	info, err := os.Stat(c.binaryPath)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return false
	}
	return true
}

// Download fetches the CLI archive for this platform into the staging
// directory and reports the archive path as the terminal data.
func (c *CLI) Download() *tasks.Runner {
	return tasks.Run(tasks.ClassDownload, "Download the Arduino CLI", func() (any, error) {
		url, err := DownloadURL()
		if err != nil {
			return nil, err
		}
		target := filepath.Join(fileman.TempDir(), url[strings.LastIndex(url, "/")+1:])
		return fileman.Download(url, target)
	})
}

// Install extracts a downloaded CLI archive into the install directory
// and reports the binary path as the terminal data.
func (c *CLI) Install(archive string) *tasks.Runner {
	return tasks.Run(tasks.ClassExtract, "Install the Arduino CLI", func() (any, error) {
		dir := filepath.Dir(c.binaryPath)
		if err := fileman.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("could not create Arduino CLI directory: %w", err)
		}
		if _, err := fileman.Extract(archive, dir); err != nil {
			return nil, err
		}
		if !c.IsInstalled() {
			return nil, &NotInstalledError{Path: c.binaryPath}
		}
		return c.binaryPath, nil
	})
}

// Version reports the installed CLI version document.
func (c *CLI) Version() *tasks.Runner {
	return c.command("Get the Arduino CLI version", defaultTimeout, "version")
}

// Platforms reports the currently installed board platforms.
func (c *CLI) Platforms() *tasks.Runner {
	return c.command("List installed platforms", defaultTimeout, "core", "list")
}

// InitConfig rewrites the CLI configuration file and registers the
// extra platform index URLs.
func (c *CLI) InitConfig() *tasks.Runner {
	return tasks.Run(tasks.ClassTool, "Initialise the Arduino CLI configuration", func() (any, error) {
		data, err := c.run(defaultTimeout, "config", "init", "--overwrite")
		if err != nil {
			return nil, err
		}
		if err := c.addPlatformURLs(); err != nil {
			return nil, err
		}
		return data, nil
	})
}

// UpdateIndex refreshes the CLI's platform index.
func (c *CLI) UpdateIndex() *tasks.Runner {
	return c.command("Update the platform index", defaultTimeout, "core", "update-index")
}

// InstallPackage installs one platform package. Index URLs are
// re-registered first so a reset configuration cannot break installs.
func (c *CLI) InstallPackage(packageID string) *tasks.Runner {
	return tasks.Run(tasks.ClassTool, "Install platform "+packageID, func() (any, error) {
		if err := c.addPlatformURLs(); err != nil {
			return nil, err
		}
		return c.run(installTimeout, "core", "install", packageID)
	})
}

// InstallLibrary installs one Arduino library.
func (c *CLI) InstallLibrary(library string) *tasks.Runner {
	return c.command("Install library "+library, defaultTimeout, "lib", "install", library)
}

// UpgradePlatforms upgrades every installed platform to its latest
// version.
func (c *CLI) UpgradePlatforms() *tasks.Runner {
	return tasks.Run(tasks.ClassTool, "Upgrade installed platforms", func() (any, error) {
		if err := c.addPlatformURLs(); err != nil {
			return nil, err
		}
		return c.run(installTimeout, "core", "upgrade")
	})
}

// ListBoards scans for attached boards and records the result in
// DetectedDevices. The terminal data is the []Device list.
func (c *CLI) ListBoards() *tasks.Runner {
	return tasks.Run(tasks.ClassTool, "Scan for attached devices", func() (any, error) {
		data, err := c.run(boardListTimeout, "board", "list")
		if err != nil {
			return nil, err
		}
		devices := ParseBoardList(data)
		c.DetectedDevices = devices
		c.SelectedDevice = -1
		return devices, nil
	})
}

// Attach records the board and port in the sketch project so later
// compile and upload runs target the right device.
func (c *CLI) Attach(fqbn, port, sketchDir string) *tasks.Runner {
	return c.command("Attach "+filepath.Base(sketchDir), defaultTimeout,
		"board", "attach", "-b", fqbn, "-p", port, sketchDir)
}

// Compile builds the sketch in sketchDir for the given board.
func (c *CLI) Compile(fqbn, sketchDir string) *tasks.Runner {
	return c.command("Compile "+filepath.Base(sketchDir), defaultTimeout,
		"compile", "-b", fqbn, sketchDir)
}

// Upload compiles and uploads the sketch in sketchDir to the device on
// port. ESP32 boards are pinned to a reliable upload speed.
func (c *CLI) Upload(fqbn, port, sketchDir string) *tasks.Runner {
	args := []string{"upload", "-v", "-t", "-b", fqbn, "-p", port, sketchDir}
	if strings.HasPrefix(fqbn, "esp32:esp32") {
		args = append(args, "--board-options", "UploadSpeed=115200")
	}
	return c.command("Upload "+filepath.Base(sketchDir), defaultTimeout, args...)
}

// command wraps a single CLI invocation in a tool-class worker.
func (c *CLI) command(topic string, timeout time.Duration, args ...string) *tasks.Runner {
	return tasks.Run(tasks.ClassTool, topic, func() (any, error) {
		return c.run(timeout, args...)
	})
}

// addPlatformURLs registers every extra platform index URL with the
// CLI configuration. Each URL is a separate invocation because the
// config add command appends.
func (c *CLI) addPlatformURLs() error {
	for _, p := range ExtraPlatforms {
		if _, err := c.run(defaultTimeout, "config", "add", "board_manager.additional_urls", p.URL); err != nil {
			return err
		}
	}
	return nil
}

// run executes the CLI once with captured output and parses the
// result. All commands request json output so diagnostics arrive
// structured.
func (c *CLI) run(timeout time.Duration, args ...string) (any, error) {
	if !c.IsInstalled() {
		return nil, &NotInstalledError{Path: c.binaryPath}
	}

	full := append(append([]string{}, args...), "--format", "jsonmini")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logging.Debug("running arduino-cli", zap.Strings("args", full))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binaryPath, full...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, &ExecutionError{
			Args: full,
			Err:  fmt.Errorf("did not complete within %s", timeout),
		}
	}

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, &ExecutionError{Args: full, Err: err, Stderr: stderr.String()}
		}
	}

	data, parseErr := parseOutput(full, stdout.Bytes(), stderr.Bytes(), exitCode)
	if parseErr != nil {
		logging.Error("arduino-cli failed", zap.Strings("args", full), zap.Error(parseErr))
		return nil, parseErr
	}
	logging.Debug("arduino-cli finished", zap.String("data", dataText(data)))
	return data, nil
}
