package storage

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

const MB = 1024 * 1024

// ErrTypeNotAllowed is returned when a file does not match the accept list
var ErrTypeNotAllowed = errors.New("file type not allowed")

// SizeError reports a file over its ceiling
type SizeError struct {
	Name  string
	Size  int64
	Limit int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("file %q is %d bytes, exceeds maximum %d bytes (%.0f MB)",
		e.Name, e.Size, e.Limit, float64(e.Limit)/MB)
}

// FilePolicy represents upload constraints for one file control
type FilePolicy struct {
	MaxBytes   int64            `json:"maxBytes,omitempty"`
	Family     map[string]int64 `json:"family,omitempty"` // "video" -> ceiling
	MimeTypes  []string         `json:"mime,omitempty"`
	Extensions []string         `json:"extensions,omitempty"`
}

// ParseAccept turns an HTML accept attribute ("image/*,.pdf") into a policy
// with the given default ceiling.
func ParseAccept(accept string, maxBytes int64) *FilePolicy {
	fp := &FilePolicy{MaxBytes: maxBytes}
	for _, part := range strings.Split(accept, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		switch {
		case part == "":
		case strings.HasPrefix(part, "."):
			fp.Extensions = append(fp.Extensions, strings.TrimPrefix(part, "."))
		default:
			fp.MimeTypes = append(fp.MimeTypes, part)
		}
	}
	return fp
}

// Limit returns the size ceiling that applies to contentType
func (fp *FilePolicy) Limit(contentType string) int64 {
	if fp == nil {
		return 0
	}
	family, _, _ := strings.Cut(mediaType(contentType), "/")
	if limit, ok := fp.Family[family]; ok {
		return limit
	}
	return fp.MaxBytes
}

// ValidateFile validates a file against the policy
func (fp *FilePolicy) ValidateFile(fileName, contentType string, fileSizeBytes int64) error {
	if fp == nil {
		return nil
	}

	if limit := fp.Limit(contentType); limit > 0 && fileSizeBytes > limit {
		return &SizeError{Name: fileName, Size: fileSizeBytes, Limit: limit}
	}

	// An accept list matches on either MIME pattern or extension
	if len(fp.MimeTypes) == 0 && len(fp.Extensions) == 0 {
		return nil
	}
	if fp.matchesMimeType(contentType) || fp.matchesExtension(fileName) {
		return nil
	}
	return fmt.Errorf("%w: %s (%s)", ErrTypeNotAllowed, fileName, contentType)
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(contentType)
	}
	return mt
}

func (fp *FilePolicy) matchesMimeType(contentType string) bool {
	mt := mediaType(contentType)
	for _, allowed := range fp.MimeTypes {
		if prefix, ok := strings.CutSuffix(allowed, "/*"); ok {
			if strings.HasPrefix(mt, prefix+"/") {
				return true
			}
		} else if mt == allowed {
			return true
		}
	}
	return false
}

func (fp *FilePolicy) matchesExtension(fileName string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range fp.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
