package api

import (
	"path/filepath"
	"strings"
)

// allowedMIMETypes lists the source media types the pipeline accepts.
// Unknown clients often send octet-stream for video files, so it stays
// on the list; the encoder rejects anything it cannot decode.
var allowedMIMETypes = map[string]bool{
	"video/mp4":        true,
	"video/webm":       true,
	"video/quicktime":  true,
	"video/x-msvideo":  true,
	"video/x-matroska": true,
	"video/ogg":        true,
	"video/mpeg":       true,
	"video/mp2t":       true,

	"audio/mpeg":  true,
	"audio/wav":   true,
	"audio/ogg":   true,
	"audio/flac":  true,
	"audio/aac":   true,
	"audio/x-m4a": true,

	"application/octet-stream": true,
}

// IsAllowedMIMEType reports whether a declared content type may be
// ingested. Parameters such as charset are ignored.
func IsAllowedMIMEType(mimeType string) bool {
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = mimeType[:idx]
	}
	return allowedMIMETypes[strings.ToLower(strings.TrimSpace(mimeType))]
}

// SanitizeFilename strips path components and control characters from a
// client-supplied filename. The result is safe to embed in a storage key.
func SanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	if idx := strings.LastIndex(filename, "\\"); idx != -1 {
		filename = filename[idx+1:]
	}

	var b strings.Builder
	for _, r := range filename {
		switch {
		case r < 32 || r == 127:
		case strings.ContainsRune(`/\:*?"<>|`, r):
		default:
			b.WriteRune(r)
		}
	}

	result := strings.Trim(b.String(), ". ")
	if result == "" {
		return "unnamed_media"
	}

	if len(result) > 255 {
		ext := filepath.Ext(result)
		name := strings.TrimSuffix(result, ext)
		if max := 255 - len(ext); max > 0 && len(name) > max {
			name = name[:max]
		}
		result = name + ext
	}

	return result
}
