package rangehttp

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/rangedl/internal/utils"
)

type FileInfo struct {
	Size          int64
	AcceptsRanges bool
	FileName      string
	FinalURL      string
}

var filenameRegex = regexp.MustCompile(`[^a-zA-Z0-9_\-\. ]+`)

// ProbeSize issues a HEAD request (redirects followed) and reports the
// resource length. A missing or non-positive length is ErrSizeUnknown.
func ProbeSize(ctx context.Context, client utils.HTTPDoer, link string) (FileInfo, error) {
	var info FileInfo
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		return info, fmt.Errorf("%w: error creating request: %v", utils.ErrSizeUnknown, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return info, fmt.Errorf("%w: %v", utils.ErrSizeUnknown, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return info, fmt.Errorf("%w: server returned %d", utils.ErrSizeUnknown, resp.StatusCode)
	}
	if resp.Request != nil && resp.Request.URL != nil {
		info.FinalURL = resp.Request.URL.String()
	}
	info.FileName = fileNameFromDisposition(resp.Header.Get("Content-Disposition"))
	info.AcceptsRanges = strings.EqualFold(resp.Header.Get("Accept-Ranges"), "bytes")
	if !info.AcceptsRanges {
		log.Warn().Str("op", "http/initial").Msgf("server does not advertise byte ranges for %s", link)
	}
	if resp.ContentLength <= 0 {
		return info, fmt.Errorf("%w: no usable Content-Length (got %d)", utils.ErrSizeUnknown, resp.ContentLength)
	}
	info.Size = resp.ContentLength
	log.Debug().Str("op", "http/initial").Int64("size", info.Size).Str("final", info.FinalURL).Msg("size probe complete")
	return info, nil
}

func fileNameFromDisposition(contentDisposition string) string {
	if contentDisposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentDisposition)
	if err != nil {
		return ""
	}
	if fn, ok := params["filename"]; ok && fn != "" {
		return filenameRegex.ReplaceAllString(fn, "_")
	}
	if fn, ok := params["filename*"]; ok && strings.HasPrefix(fn, "UTF-8''") {
		unescaped, _ := url.PathUnescape(strings.TrimPrefix(fn, "UTF-8''"))
		return filenameRegex.ReplaceAllString(unescaped, "_")
	}
	return ""
}
