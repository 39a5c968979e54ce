package fileman

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/DCC-EX/EX-Installer-sub000/internal/logging"
	"github.com/DCC-EX/EX-Installer-sub000/internal/tasks"
)

var downloadClient = &http.Client{Timeout: 5 * time.Minute}

// Download fetches url into target, returning the target path. Any
// non-200 response is an error carrying the status and body text.
func Download(url, target string) (string, error) {
	logging.Info("downloading", zap.String("url", url), zap.String("target", target))

	resp, err := downloadClient.Get(url)
	if err != nil {
		return "", fmt.Errorf("download of %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("downloading %s failed with status code %d: %s",
			url, resp.StatusCode, string(body))
	}

	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("could not create %s: %w", target, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return "", fmt.Errorf("download of %s failed: %w", url, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("could not finish writing %s: %w", target, err)
	}

	return target, nil
}

// RunDownload performs Download on a worker, serialized with all other
// downloads. The terminal success envelope carries the target path.
func RunDownload(url, target string) *tasks.Runner {
	return tasks.Run(tasks.ClassDownload, "Downloading "+url, func() (any, error) {
		return Download(url, target)
	})
}
