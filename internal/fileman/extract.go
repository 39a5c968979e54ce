package fileman

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/DCC-EX/EX-Installer-sub000/internal/logging"
	"github.com/DCC-EX/EX-Installer-sub000/internal/tasks"
)

// Extract unpacks archive into targetDir and returns the directory the
// contents landed in: targetDir joined with the archive's single
// top-level directory when there is one, targetDir itself otherwise.
// Supported formats are .zip and .tar.gz, matching the toolchain
// archives published for each platform.
func Extract(archive, targetDir string) (string, error) {
	logging.Info("extracting", zap.String("archive", archive), zap.String("target", targetDir))

	if err := EnsureDir(targetDir); err != nil {
		return "", err
	}

	var names []string
	var err error
	switch {
	case strings.HasSuffix(archive, ".zip"):
		names, err = extractZip(archive, targetDir)
	case strings.HasSuffix(archive, ".tar.gz"), strings.HasSuffix(archive, ".tgz"):
		names, err = extractTarGz(archive, targetDir)
	default:
		return "", fmt.Errorf("unsupported archive format: %s", archive)
	}
	if err != nil {
		return "", fmt.Errorf("extraction of %s failed: %w", archive, err)
	}

	if top := commonTopLevel(names); top != "" {
		return filepath.Join(targetDir, top), nil
	}
	return targetDir, nil
}

// RunExtract performs Extract on a worker, serialized with all other
// extractions. The terminal success envelope carries the extracted
// directory.
func RunExtract(archive, targetDir string) *tasks.Runner {
	return tasks.Run(tasks.ClassExtract, "Extracting "+filepath.Base(archive), func() (any, error) {
		return Extract(archive, targetDir)
	})
}

func extractZip(archive, targetDir string) ([]string, error) {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var names []string
	for _, file := range reader.File {
		target, err := safeJoin(targetDir, file.Name)
		if err != nil {
			return nil, err
		}
		names = append(names, file.Name)

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, err
		}

		src, err := file.Open()
		if err != nil {
			return nil, err
		}
		err = writeEntry(target, src, file.Mode())
		src.Close()
		if err != nil {
			return nil, err
		}
	}
	return names, nil
}

func extractTarGz(archive, targetDir string) ([]string, error) {
	file, err := os.Open(archive)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	var names []string
	reader := tar.NewReader(gz)
	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		target, err := safeJoin(targetDir, header.Name)
		if err != nil {
			return nil, err
		}
		names = append(names, header.Name)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return nil, err
			}
			if err := writeEntry(target, reader, os.FileMode(header.Mode)); err != nil {
				return nil, err
			}
		}
	}
	return names, nil
}

func writeEntry(target string, src io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		return err
	}
	return out.Close()
}

// safeJoin rejects entries that would escape targetDir.
func safeJoin(targetDir, name string) (string, error) {
	target := filepath.Join(targetDir, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(targetDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes target directory: %s", name)
	}
	return target, nil
}

// commonTopLevel returns the single top-level directory shared by all
// entries, or "" when the archive is flat (the Arduino CLI archives
// place the binary at the top level).
func commonTopLevel(names []string) string {
	top := ""
	for _, name := range names {
		trimmed := strings.TrimPrefix(filepath.ToSlash(name), "./")
		if trimmed == "" {
			continue
		}
		if !strings.Contains(trimmed, "/") {
			// A top-level file, not a directory
			return ""
		}
		first := strings.SplitN(trimmed, "/", 2)[0]
		if top == "" {
			top = first
		} else if top != first {
			return ""
		}
	}
	return top
}
