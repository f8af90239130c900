package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

type Kind string

const (
	KindUploads Kind = "uploads"
	KindImages  Kind = "images"
	KindVideos  Kind = "videos"
)

var Kinds = []Kind{KindUploads, KindImages, KindVideos}

var jobIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// NewJobID returns 128 random bits as 32 lowercase hex characters.
func NewJobID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")
}

// ValidJobID reports whether id is safe to use as a single path segment.
func ValidJobID(id string) bool {
	return jobIDPattern.MatchString(id)
}

// JobDir is <root>/<kind>/<job_id>. No side effects.
func JobDir(root string, kind Kind, jobID string) string {
	return filepath.Join(root, string(kind), jobID)
}

// EnsureStorageDirs creates the kind directories; existing ones are left alone.
func EnsureStorageDirs(root string) error {
	for _, k := range Kinds {
		if err := os.MkdirAll(filepath.Join(root, string(k)), 0o755); err != nil {
			return fmt.Errorf("storage: ensure %s dir: %w", k, err)
		}
	}
	return nil
}

// SanitizeFilename keeps only the base name so a client can't write outside the job dir.
func SanitizeFilename(name string) (string, error) {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	base := filepath.Base(name)
	if base == "" || base == "." || base == ".." || base == "/" {
		return "", fmt.Errorf("storage: invalid filename %q", name)
	}
	return base, nil
}
