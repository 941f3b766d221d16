package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/rangedl/internal/utils"
)

var ytdlpReleaseURL = "https://github.com/yt-dlp/yt-dlp/releases/latest/download/%s"

// EnsureYtdlp returns the first yt-dlp found in the configured path, $PATH,
// next to the running executable or a previous download in cacheDir, and
// downloads a release binary into cacheDir otherwise.
func EnsureYtdlp(ctx context.Context, configuredPath, cacheDir string) (string, error) {
	if configuredPath != "" {
		if _, err := os.Stat(configuredPath); err != nil {
			return "", fmt.Errorf("configured yt-dlp not usable: %v", err)
		}
		return configuredPath, nil
	}
	if path, err := exec.LookPath("yt-dlp"); err == nil {
		return path, nil
	}
	if execPath, err := os.Executable(); err == nil {
		ytdlpPath := filepath.Join(filepath.Dir(execPath), binaryName())
		if _, err := os.Stat(ytdlpPath); err == nil {
			return ytdlpPath, nil
		}
	}
	if cacheDir == "" {
		cacheDir = utils.TempDirName
	}
	cached := filepath.Join(cacheDir, binaryName())
	if _, err := os.Stat(cached); err == nil {
		return cached, nil
	}
	return downloadYtdlp(ctx, cacheDir)
}

func binaryName() string {
	if runtime.GOOS == "windows" {
		return "yt-dlp.exe"
	}
	return "yt-dlp"
}

func releaseAsset(goos, goarch string) (string, error) {
	switch {
	case goos == "windows" && goarch == "amd64":
		return "yt-dlp.exe", nil
	case goos == "windows" && goarch == "arm64":
		return "yt-dlp_arm64.exe", nil
	case goos == "linux" && goarch == "amd64":
		return "yt-dlp_linux", nil
	case goos == "linux" && goarch == "arm64":
		return "yt-dlp_linux_aarch64", nil
	case goos == "darwin":
		return "yt-dlp_macos", nil
	default:
		return "", fmt.Errorf("unsupported OS/arch: %s/%s", goos, goarch)
	}
}

func downloadYtdlp(ctx context.Context, cacheDir string) (string, error) {
	asset, err := releaseAsset(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("error creating cache directory: %v", err)
	}
	filePath := filepath.Join(cacheDir, binaryName())
	// the binary only appears under its final name once complete
	partPath := filePath + ".part"
	log.Info().Str("op", "resolver/helpers").Msgf("downloading yt-dlp into %s", filePath)
	if err := downloadFile(ctx, fmt.Sprintf(ytdlpReleaseURL, asset), partPath); err != nil {
		os.Remove(partPath)
		return "", err
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(partPath, 0755); err != nil {
			os.Remove(partPath)
			return "", fmt.Errorf("error setting permissions: %v", err)
		}
	}
	if err := os.Rename(partPath, filePath); err != nil {
		os.Remove(partPath)
		return "", fmt.Errorf("error installing yt-dlp: %v", err)
	}
	return filePath, nil
}

func downloadFile(ctx context.Context, url, filePath string) error {
	client := utils.NewRangeHTTPClient(utils.HTTPClientConfig{})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}
	out, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	written, err := io.Copy(out, resp.Body)
	if err != nil {
		out.Close()
		return err
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		out.Close()
		return fmt.Errorf("short download: got %d of %d bytes", written, resp.ContentLength)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
