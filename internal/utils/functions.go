package utils

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

func GetRandomUserAgent() string {
	return userAgents[time.Now().UnixNano()%int64(len(userAgents))]
}

func RenewOutputPath(outputPath string) string {
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	index := 1
	for {
		outputPath = filepath.Join(dir, fmt.Sprintf("%s-(%d)%s", name, index, ext))
		if _, err := os.Stat(outputPath); os.IsNotExist(err) {
			return outputPath
		}
		index++
	}
}

func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}

// OutputNameFromURL returns the last path element when it looks like a file
// name, or an empty string.
func OutputNameFromURL(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}
	base := path.Base(parsed.Path)
	if base == "." || base == "/" || path.Ext(base) == "" {
		return ""
	}
	return base
}

func TempDir(outputPath string) string {
	return filepath.Join(filepath.Dir(outputPath), TempDirName)
}

// SegmentPath names the part file of one worker: a fixed prefix derived from
// the output name plus the worker index.
func SegmentPath(outputPath string, index int) string {
	return filepath.Join(TempDir(outputPath), fmt.Sprintf("%s.part%d", filepath.Base(outputPath), index))
}

func MergeTempPath(outputPath, jobID string) string {
	return filepath.Join(filepath.Dir(outputPath), fmt.Sprintf(".%s.%s.tmp", filepath.Base(outputPath), jobID))
}

// Clean removes leftover segments of outputPath, or of every output when
// outputPath is a directory, along with stale merge files.
func Clean(outputPath string) error {
	dir := outputPath
	prefix := ""
	if info, err := os.Stat(outputPath); err != nil || !info.IsDir() {
		dir = filepath.Dir(outputPath)
		prefix = filepath.Base(outputPath)
	}
	tempDir := filepath.Join(dir, TempDirName)
	if files, err := os.ReadDir(tempDir); err == nil {
		for _, file := range files {
			if prefix != "" && !strings.HasPrefix(file.Name(), prefix+".part") {
				continue
			}
			if !ChunkIDRegex.MatchString(file.Name()) {
				continue
			}
			if err := os.Remove(filepath.Join(tempDir, file.Name())); err != nil {
				return err
			}
			log.Debug().Str("op", "utils/functions").Msgf("removed segment %s", file.Name())
		}
		remaining, err := os.ReadDir(tempDir)
		if err == nil && len(remaining) == 0 {
			if err := os.Remove(tempDir); err != nil {
				return err
			}
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	stale, err := filepath.Glob(filepath.Join(dir, "."+prefix+"*.tmp"))
	if err != nil {
		return err
	}
	for _, file := range stale {
		if !MergeTempRegex.MatchString(filepath.Base(file)) {
			continue
		}
		if err := os.Remove(file); err != nil {
			return err
		}
		log.Debug().Str("op", "utils/functions").Msgf("removed merge leftover %s", filepath.Base(file))
	}
	return nil
}
