// Package validation rejects malformed uploads before anything touches disk.
package validation

import (
	"mime/multipart"
	"path/filepath"
	"strings"
)

const (
	MinFiles    = 1
	MaxFiles    = 5
	MaxFileSize = 20 << 20 // 20 MiB per file
)

var allowedExts = map[string]bool{"jpg": true, "jpeg": true, "png": true, "webp": true}

type Code string

const (
	TooManyFiles    Code = "too_many_files"
	InvalidFileType Code = "invalid_file_type"
	FileTooLarge    Code = "file_too_large"
)

// ValidationError is returned for uploads the client must fix and resubmit.
type ValidationError struct {
	Code     Code
	Filename string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Filename != "" {
		return e.Message + " (" + e.Filename + ")"
	}
	return e.Message
}

type Upload struct {
	Filename string
	Size     int64
}

// FromFileHeaders adapts parsed multipart parts.
func FromFileHeaders(files []*multipart.FileHeader) []Upload {
	out := make([]Upload, 0, len(files))
	for _, fh := range files {
		out = append(out, Upload{Filename: fh.Filename, Size: fh.Size})
	}
	return out
}

// ValidateUploads reports the first violation: count, then per file type and size.
func ValidateUploads(files []Upload) error {
	if len(files) < MinFiles || len(files) > MaxFiles {
		return &ValidationError{Code: TooManyFiles, Message: "Invalid file count."}
	}
	for _, f := range files {
		if !AllowedExtension(f.Filename) {
			return &ValidationError{Code: InvalidFileType, Filename: f.Filename, Message: "Invalid file type."}
		}
		if f.Size > MaxFileSize {
			return &ValidationError{Code: FileTooLarge, Filename: f.Filename, Message: "File too large."}
		}
	}
	return nil
}

func AllowedExtension(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return allowedExts[ext]
}
