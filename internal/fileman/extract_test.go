package fileman

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

func makeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	w := zip.NewWriter(file)
	for name, contents := range entries {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := entry.Write([]byte(contents)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func makeTarGz(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	tw := tar.NewWriter(gz)
	for name, contents := range entries {
		if err := tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o755,
			Size: int64(len(contents)),
		}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(contents)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestExtractZip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "cli.zip")
	makeZip(t, archive, map[string]string{
		"arduino-cli.exe": "binary",
		"LICENSE.txt":     "license",
	})

	target := filepath.Join(dir, "out")
	extracted, err := Extract(archive, target)
	if err != nil {
		t.Fatal(err)
	}
	// Flat archive: contents land directly in the target
	if extracted != target {
		t.Errorf("Expected %s, got %s", target, extracted)
	}
	if _, err := os.Stat(filepath.Join(target, "arduino-cli.exe")); err != nil {
		t.Error("arduino-cli.exe missing after extraction")
	}
}

func TestExtractTarGzWithTopLevelDir(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "source.tar.gz")
	makeTarGz(t, archive, map[string]string{
		"CommandStation-EX/config.example.h": "#define X",
		"CommandStation-EX/src/main.cpp":     "int main(){}",
	})

	target := filepath.Join(dir, "out")
	extracted, err := Extract(archive, target)
	if err != nil {
		t.Fatal(err)
	}
	if extracted != filepath.Join(target, "CommandStation-EX") {
		t.Errorf("Expected top-level dir path, got %s", extracted)
	}
	if _, err := os.Stat(filepath.Join(extracted, "src", "main.cpp")); err != nil {
		t.Error("nested file missing after extraction")
	}
}

func TestExtractRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.tar.gz")
	makeTarGz(t, archive, map[string]string{
		"../escape.txt": "nope",
	})

	if _, err := Extract(archive, filepath.Join(dir, "out")); err == nil {
		t.Fatal("Expected error for path traversal entry")
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "cli.rar")
	if err := os.WriteFile(archive, []byte("not an archive"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Extract(archive, dir); err == nil {
		t.Fatal("Expected error for unsupported format")
	}
}
