// Package generation turns local source images into generated media through
// an external model service.
package generation

import (
	"context"
	"errors"
)

// Backend is the external service: it hosts input files and runs models.
type Backend interface {
	// UploadFile makes a local file reachable by the service and returns its URL.
	UploadFile(ctx context.Context, path string) (string, error)
	// Run invokes modelID with payload and returns the decoded JSON response.
	Run(ctx context.Context, modelID string, payload map[string]any) (map[string]any, error)
}

var (
	// ErrGeneration wraps every failure talking to the service or fetching its output.
	ErrGeneration = errors.New("generation failed")
	ErrNoVideoURL = errors.New("no video url found")
)

// File is one generated output, written verbatim to disk by the caller.
type File struct {
	Name string
	Data []byte
}
