package storage

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("storage: not found")

// StaticPrefix is where the storage root is served over HTTP.
const StaticPrefix = "/static"

// Store writes job media under a storage root and builds URLs for it.
type Store struct {
	root          string
	publicBaseURL string
}

func NewStore(root, publicBaseURL string) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage: root is required")
	}
	if err := EnsureStorageDirs(root); err != nil {
		return nil, err
	}
	return &Store{root: root, publicBaseURL: strings.TrimSuffix(publicBaseURL, "/")}, nil
}

func (s *Store) Root() string { return s.root }

// EnsureJobDir creates <kind>/<job_id> including parents.
func (s *Store) EnsureJobDir(kind Kind, jobID string) (string, error) {
	if !ValidJobID(jobID) {
		return "", fmt.Errorf("storage: invalid job id %q", jobID)
	}
	dir := JobDir(s.root, kind, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure job dir: %w", err)
	}
	return dir, nil
}

// Write stores data as <kind>/<job_id>/<base name> and returns the key.
func (s *Store) Write(kind Kind, jobID, filename string, data []byte) (string, error) {
	dir, name, err := s.prepare(kind, jobID, filename)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return Key(kind, jobID, name), nil
}

// Save streams r into <kind>/<job_id>/<base name> and returns the key and local path.
func (s *Store) Save(kind Kind, jobID, filename string, r io.Reader) (key, localPath string, err error) {
	dir, name, err := s.prepare(kind, jobID, filename)
	if err != nil {
		return "", "", err
	}
	localPath = filepath.Join(dir, name)
	f, err := os.Create(localPath)
	if err != nil {
		return "", "", fmt.Errorf("storage: create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", "", fmt.Errorf("storage: copy file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", "", fmt.Errorf("storage: close file: %w", err)
	}
	return Key(kind, jobID, name), localPath, nil
}

func (s *Store) prepare(kind Kind, jobID, filename string) (dir, name string, err error) {
	name, err = SanitizeFilename(filename)
	if err != nil {
		return "", "", err
	}
	dir, err = s.EnsureJobDir(kind, jobID)
	if err != nil {
		return "", "", err
	}
	return dir, name, nil
}

// Key is the slash separated path of a file relative to the storage root.
func Key(kind Kind, jobID, name string) string {
	return path.Join(string(kind), jobID, name)
}

// URL returns the served URL for key: /static/<key>, prefixed with the public base URL when set.
func (s *Store) URL(key string) string {
	u := StaticPrefix + "/" + strings.TrimPrefix(key, "/")
	if s.publicBaseURL != "" {
		return s.publicBaseURL + u
	}
	return u
}

// Resolve maps a client reference (URL, static path or bare name) to an existing
// file under <kind>/<job_id>. Only the base name of the reference is used.
func (s *Store) Resolve(kind Kind, jobID, ref string) (string, error) {
	if !ValidJobID(jobID) {
		return "", ErrNotFound
	}
	p := ref
	if u, err := url.Parse(ref); err == nil {
		p = u.Path
	}
	name, err := SanitizeFilename(p)
	if err != nil {
		return "", ErrNotFound
	}
	local := filepath.Join(JobDir(s.root, kind, jobID), name)
	info, err := os.Stat(local)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("storage: stat %s: %w", name, err)
	}
	if info.IsDir() {
		return "", ErrNotFound
	}
	return local, nil
}
