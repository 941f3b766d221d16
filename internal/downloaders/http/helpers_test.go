package rangehttp

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

type serverOptions struct {
	ignoreRange bool  // answer every GET with 200 and the full body
	abortAt     int64 // when > 0, requests covering this offset die after sending part of the body
	noLength    bool  // HEAD omits Content-Length
}

func testData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func newRangeServer(t *testing.T, data []byte, opts serverOptions) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			if !opts.noLength {
				w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			}
			w.Header().Set("Accept-Ranges", "bytes")
			return
		}
		rangeHeader := r.Header.Get("Range")
		if rangeHeader == "" || opts.ignoreRange {
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			w.Write(data)
			return
		}
		rangeSpec := strings.TrimPrefix(rangeHeader, "bytes=")
		parts := strings.Split(rangeSpec, "-")
		start, _ := strconv.ParseInt(parts[0], 10, 64)
		end, _ := strconv.ParseInt(parts[1], 10, 64)
		if end >= int64(len(data)) {
			end = int64(len(data)) - 1
		}
		w.Header().Set("Content-Range", "bytes "+strconv.FormatInt(start, 10)+"-"+strconv.FormatInt(end, 10)+"/"+strconv.Itoa(len(data)))
		w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
		w.WriteHeader(http.StatusPartialContent)
		if opts.abortAt > 0 && start <= opts.abortAt && opts.abortAt <= end {
			w.Write(data[start:opts.abortAt])
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
			panic(http.ErrAbortHandler)
		}
		w.Write(data[start : end+1])
	}))
	t.Cleanup(server.Close)
	return server
}
