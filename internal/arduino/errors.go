package arduino

import (
	"fmt"
	"strings"
)

// ExecutionError reports a failed Arduino CLI invocation. The text is
// surfaced verbatim to the user, so it favors the CLI's own diagnostic
// output over exit codes.
type ExecutionError struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	diag := e.Diagnostic()
	if diag != "" {
		return diag
	}
	if e.Err != nil {
		return fmt.Sprintf("arduino-cli %s failed: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("arduino-cli %s failed with exit code %d", strings.Join(e.Args, " "), e.ExitCode)
}

// Unwrap returns the underlying error
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Diagnostic returns the most useful text the CLI produced: parsed
// error-document content when stderr held one, raw stream content
// otherwise.
func (e *ExecutionError) Diagnostic() string {
	if e.Stderr != "" {
		if text := errorDocumentText([]byte(e.Stderr)); text != "" {
			return text
		}
		return strings.TrimSpace(e.Stderr)
	}
	return strings.TrimSpace(e.Stdout)
}

// NotInstalledError is returned for operations that require the CLI
// before it has been installed.
type NotInstalledError struct {
	Path string
}

// Error implements the error interface
func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("Arduino CLI is not installed at %s", e.Path)
}

// UnsupportedPlatformError is returned when no CLI archive exists for
// the running operating system.
type UnsupportedPlatformError struct {
	OS string
}

// Error implements the error interface
func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("no Arduino CLI is available for operating system %q", e.OS)
}
