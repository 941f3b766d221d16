package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/tanq16/rangedl/internal/utils"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestYtdlpResolverFirstLine(t *testing.T) {
	script := writeScript(t, `echo "$@" > "$(dirname "$0")/args"
echo ""
echo "https://cdn.example.com/video.mp4?sig=abc"
echo "https://cdn.example.com/audio.m4a"`)
	r := &YtdlpResolver{Path: script}

	got, err := r.Resolve(context.Background(), "https://www.youtube.com/watch?v=xyz")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "https://cdn.example.com/video.mp4?sig=abc" {
		t.Errorf("Resolve = %q", got)
	}
	args, err := os.ReadFile(filepath.Join(filepath.Dir(script), "args"))
	if err != nil {
		t.Fatal(err)
	}
	want := "-f 18 -g --no-warnings --no-playlist https://www.youtube.com/watch?v=xyz"
	if strings.TrimSpace(string(args)) != want {
		t.Errorf("yt-dlp args = %q, want %q", strings.TrimSpace(string(args)), want)
	}
}

func TestYtdlpResolverFailures(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"empty output", `exit 0`},
		{"blank lines only", `printf "\n  \n"`},
		{"non-zero exit", `echo "ERROR: video unavailable" >&2; exit 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &YtdlpResolver{Path: writeScript(t, tt.script), Format: "22"}
			_, err := r.Resolve(context.Background(), "https://example.com/watch")
			if !errors.Is(err, utils.ErrResolutionFailed) {
				t.Errorf("err = %v, want ErrResolutionFailed", err)
			}
		})
	}
}

func TestYtdlpResolverMissingBinary(t *testing.T) {
	r := &YtdlpResolver{Path: filepath.Join(t.TempDir(), "missing")}
	_, err := r.Resolve(context.Background(), "https://example.com/watch")
	if !errors.Is(err, utils.ErrResolutionFailed) {
		t.Errorf("err = %v, want ErrResolutionFailed", err)
	}
}

func TestYtdlpResolverEmptyURL(t *testing.T) {
	r := &YtdlpResolver{Path: "yt-dlp"}
	if _, err := r.Resolve(context.Background(), "  "); !errors.Is(err, utils.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestDirectResolver(t *testing.T) {
	link := "https://example.com/file.bin"
	got, err := Direct{}.Resolve(context.Background(), link)
	if err != nil || got != link {
		t.Errorf("Direct.Resolve = %q, %v", got, err)
	}
}

func TestEnsureYtdlpConfiguredPath(t *testing.T) {
	script := writeScript(t, "exit 0")
	got, err := EnsureYtdlp(context.Background(), script, t.TempDir())
	if err != nil || got != script {
		t.Errorf("EnsureYtdlp = %q, %v", got, err)
	}
	if _, err := EnsureYtdlp(context.Background(), filepath.Join(t.TempDir(), "nope"), ""); err == nil {
		t.Error("expected an error for a missing configured path")
	}
}

func TestEnsureYtdlpDownloads(t *testing.T) {
	if _, err := releaseAsset(runtime.GOOS, runtime.GOARCH); err != nil {
		t.Skip(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("#!/bin/sh\necho ok\n"))
	}))
	defer srv.Close()
	orig := ytdlpReleaseURL
	ytdlpReleaseURL = srv.URL + "/%s"
	defer func() { ytdlpReleaseURL = orig }()
	t.Setenv("PATH", "")

	tempDir := filepath.Join(t.TempDir(), "cache")
	got, err := EnsureYtdlp(context.Background(), "", tempDir)
	if err != nil {
		t.Fatalf("EnsureYtdlp: %v", err)
	}
	if got != filepath.Join(tempDir, binaryName()) {
		t.Errorf("EnsureYtdlp = %q", got)
	}
	info, err := os.Stat(got)
	if err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0100 == 0 {
		t.Errorf("downloaded binary is not executable: %v", info.Mode())
	}
}

func TestEnsureYtdlpInterruptedDownload(t *testing.T) {
	if _, err := releaseAsset(runtime.GOOS, runtime.GOARCH); err != nil {
		t.Skip(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.Write([]byte("#!/bin/sh\n"))
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}))
	defer srv.Close()
	orig := ytdlpReleaseURL
	ytdlpReleaseURL = srv.URL + "/%s"
	defer func() { ytdlpReleaseURL = orig }()
	t.Setenv("PATH", "")

	tempDir := t.TempDir()
	if _, err := EnsureYtdlp(context.Background(), "", tempDir); err == nil {
		t.Fatal("expected an error for a truncated download")
	}
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("truncated download left files behind: %v", entries)
	}
}
