package dataimporter

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

const downloadRetries = 5

// newBackOff is the retry schedule for downloads.
var newBackOff = func() backoff.BackOff {
	return backoff.NewExponentialBackOff()
}

func isValidUrl(toTest string) bool {
	_, err := url.ParseRequestURI(toTest)
	if err != nil {
		return false
	}

	u, err := url.Parse(toTest)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return true
}

// tempDownloadFile fetches source into a temporary file, retrying failed
// connections and server errors. It returns the file path and the extension
// advertised by the server or the URL.
func tempDownloadFile(ctx context.Context, source string) (string, string, error) {
	var path string
	var fileExtension string

	download := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", "curl/7.54.1")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("downloading %s: %s", source, resp.Status)
		} else if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("downloading %s: %s", source, resp.Status))
		}

		fileExtension = filepath.Ext(req.URL.Path)
		_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
		if err == nil && params["filename"] != "" {
			fileExtension = filepath.Ext(params["filename"])
		}

		tmpFile, err := os.CreateTemp(os.TempDir(), "populate-data-importer-*"+fileExtension)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer tmpFile.Close()

		if _, err := io.Copy(tmpFile, resp.Body); err != nil {
			os.Remove(tmpFile.Name())
			return err
		}

		path = tmpFile.Name()

		return nil
	}

	retry := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), downloadRetries), ctx)
	err := backoff.RetryNotify(download, retry, func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("source", source).Msgf("Download failed, retrying in %s", wait)
	})
	if err != nil {
		return "", "", err
	}

	return path, fileExtension, nil
}
