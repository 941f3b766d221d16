package scheduler

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tanq16/rangedl/internal/utils"
)

func TestRunBatch(t *testing.T) {
	srv := newServer(t, testData(3000), serverOptions{zeroLength: false})
	bad := newServer(t, testData(10), serverOptions{zeroLength: true})
	dir := t.TempDir()
	jobs := []utils.DownloadJob{
		{SourceURL: srv.URL + "/a.bin", OutputPath: filepath.Join(dir, "a.bin")},
		{SourceURL: bad.URL + "/b.bin", OutputPath: filepath.Join(dir, "b.bin")},
		{SourceURL: srv.URL + "/c.bin", OutputPath: filepath.Join(dir, "c.bin")},
	}
	var screen bytes.Buffer
	results, err := Run(context.Background(), jobs, Deps{
		Client:   utils.NewRangeHTTPClient(utils.HTTPClientConfig{}),
		DiskFree: noDisk,
	}, &screen)
	if err == nil {
		t.Fatal("expected an error when one job fails")
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Err != nil || results[2].Err != nil || results[1].Err == nil {
		t.Errorf("unexpected outcomes: %v / %v / %v", results[0].Err, results[1].Err, results[2].Err)
	}
	out := screen.String()
	for _, want := range []string{"Completed 2 of 3", "Failed 1 of 3", "SizeUnknown during SizeProbing"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRunBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	jobs := []utils.DownloadJob{{SourceURL: "https://example.com/a.bin"}}
	var screen bytes.Buffer
	results, err := Run(ctx, jobs, Deps{}, &screen)
	if err == nil || len(results) != 0 {
		t.Errorf("Run on cancelled context = %d results, %v", len(results), err)
	}
	if !strings.Contains(screen.String(), "skipped") {
		t.Errorf("summary does not list skipped job:\n%s", screen.String())
	}
}
