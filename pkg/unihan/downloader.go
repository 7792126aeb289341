package unihan

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"time"
)

const (
	// DefaultArchiveURL is the Unicode Consortium's latest Unihan database.
	DefaultArchiveURL = "https://www.unicode.org/Public/UCD/latest/ucd/Unihan.zip"
	readingsFileName  = "Unihan_Readings.txt"

	maxArchiveSize = 64 * 1024 * 1024
)

// EnsureReadings checks if the readings file exists at dest.
// If not, it downloads the Unihan archive and extracts Unihan_Readings.txt.
func EnsureReadings(ctx context.Context, dest string) error {
	client := &http.Client{Timeout: 5 * time.Minute}
	return ensureReadings(ctx, client, DefaultArchiveURL, dest, log.Default())
}

func ensureReadings(ctx context.Context, client *http.Client, url, dest string, logger *log.Logger) error {
	if _, err := os.Stat(dest); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	logger.Printf("Unihan readings not found at %s. Downloading %s...", dest, url)
	return downloadAndExtract(ctx, client, url, dest)
}

func downloadAndExtract(ctx context.Context, client *http.Client, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "rarechars-cli")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	// zip needs random access, so spool the archive to a temp file first.
	tmp, err := os.CreateTemp("", "unihan-*.zip")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxArchiveSize+1))
	if err != nil {
		return fmt.Errorf("failed to download archive: %w", err)
	}
	if n > maxArchiveSize {
		return fmt.Errorf("archive exceeded maximum size of %d bytes", maxArchiveSize)
	}

	zr, err := zip.NewReader(tmp, n)
	if err != nil {
		return fmt.Errorf("failed to open zip archive: %w", err)
	}
	for _, f := range zr.File {
		if path.Base(f.Name) != readingsFileName {
			continue
		}
		return extractFile(f, dest)
	}
	return fmt.Errorf("no %s found in downloaded archive", readingsFileName)
}

func extractFile(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s in archive: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return out.Close()
}
