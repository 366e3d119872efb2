package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// Model acquisition strategies.
const (
	AcquireLocal    = "local"
	AcquireDownload = "download"
)

// acquire returns the path of a present classifier model file, fetching it
// first when the strategy allows.
func acquire(ctx context.Context, cfg Config, log logrus.FieldLogger) (string, error) {
	if fileExists(cfg.ModelPath) {
		return cfg.ModelPath, nil
	}
	if cfg.Acquire != AcquireDownload || cfg.ModelURL == "" {
		return "", fmt.Errorf("model file %s not found", cfg.ModelPath)
	}

	log.WithFields(logrus.Fields{"path": cfg.ModelPath, "url": cfg.ModelURL}).Info("Downloading classifier model")

	attempts := cfg.DownloadAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(attempts-1))
	if err := download(ctx, http.DefaultClient, cfg.ModelURL, cfg.ModelPath, cfg.DownloadTimeout, b); err != nil {
		return "", fmt.Errorf("download %s: %w", cfg.ModelURL, err)
	}

	log.WithField("path", cfg.ModelPath).Info("Download complete")
	return cfg.ModelPath, nil
}

// download fetches url into dest, retrying transient failures per b.
// Client errors (4xx) are not retried.
func download(ctx context.Context, client *http.Client, url, dest string, timeout time.Duration, b backoff.BackOff) error {
	op := func() error {
		err := fetchOnce(ctx, client, url, dest, timeout)
		var se *statusError
		if errors.As(err, &se) && se.code >= 400 && se.code < 500 {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}

type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.status)
}

// fetchOnce streams the body into a temp file next to dest and renames it
// into place, so a failed transfer never leaves a truncated model behind.
func fetchOnce(ctx context.Context, client *http.Client, url, dest string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode, status: resp.Status}
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return backoff.Permanent(fmt.Errorf("create model dir: %w", err))
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".*.part")
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create temp file: %w", err))
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	if n == 0 {
		return errors.New("empty response body")
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return backoff.Permanent(fmt.Errorf("move model into place: %w", err))
	}
	return nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
