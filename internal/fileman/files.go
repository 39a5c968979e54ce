package fileman

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/DCC-EX/EX-Installer-sub000/internal/logging"
)

// ConfigFiles lists the files in dir matching the provided patterns.
// Each pattern is either a plain filename or a regular expression with a
// capture group, where a file matches when group 1 matches (the grouping
// lets one expression exclude *.example.h variants). Returns nil when
// the directory does not exist.
func ConfigFiles(dir string, patterns []string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var found []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		for _, pattern := range patterns {
			if name == pattern {
				found = append(found, name)
				continue
			}
			re, err := regexp.Compile(pattern)
			if err != nil || re.NumSubexp() == 0 {
				continue
			}
			if m := re.FindStringSubmatch(name); m != nil && m[1] != "" {
				found = append(found, m[1])
			}
		}
	}
	return found
}

// WriteConfigFile writes the generated configuration lines to path,
// prefixed with the generated-by header. Lines carry no trailing
// newline; this adds them.
func WriteConfigFile(path, header string, lines []string) error {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	logging.Debug("wrote config file", zap.String("path", path), zap.Int("lines", len(lines)))
	return nil
}

// GeneratedBy returns the comment line prefixed to every generated
// configuration file.
func GeneratedBy(filename, installerVersion, productName, productVersion string) string {
	return fmt.Sprintf("// %s - Generated by EX-Installer %s for %s %s",
		filename, installerVersion, productName, productVersion)
}

// ReadTextFile returns the contents of path.
func ReadTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("could not read %s: %w", path, err)
	}
	return string(data), nil
}

// WriteTextFile overwrites path with contents, used by the direct
// config.h / myAutomation.h editor.
func WriteTextFile(path, contents string) error {
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}

// CopyConfigFiles copies the named files from sourceDir into destDir.
// Returns the files that failed to copy, or nil when all succeeded.
func CopyConfigFiles(sourceDir, destDir string, files []string) []string {
	var failed []string
	for _, name := range files {
		if err := copyFile(filepath.Join(sourceDir, name), filepath.Join(destDir, name)); err != nil {
			logging.Error("config file copy failed", zap.String("file", name), zap.Error(err))
			failed = append(failed, name)
		}
	}
	return failed
}

// DeleteConfigFiles removes the named files from dir. Returns the files
// that failed to delete, or nil. Already-missing files are not failures.
func DeleteConfigFiles(dir string, files []string) []string {
	var failed []string
	for _, name := range files {
		err := os.Remove(filepath.Join(dir, name))
		if err != nil && !os.IsNotExist(err) {
			logging.Error("config file delete failed", zap.String("file", name), zap.Error(err))
			failed = append(failed, name)
		}
	}
	return failed
}

func copyFile(source, dest string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
