// Package fal talks to fal.ai: file uploads to fal storage and synchronous
// model runs on fal.run.
package fal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"resty.dev/v3"
)

const (
	DefaultRunURL     = "https://fal.run"
	DefaultStorageURL = "https://rest.alpha.fal.ai"
)

type Options struct {
	APIKey     string
	RunURL     string
	StorageURL string
	Timeout    time.Duration
}

type Client struct {
	http       *resty.Client
	key        string
	runURL     string
	storageURL string
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("fal: api key is required")
	}
	if opts.RunURL == "" {
		opts.RunURL = DefaultRunURL
	}
	if opts.StorageURL == "" {
		opts.StorageURL = DefaultStorageURL
	}
	hc := resty.New()
	if opts.Timeout > 0 {
		hc.SetTimeout(opts.Timeout)
	}
	return &Client{
		http:       hc,
		key:        opts.APIKey,
		runURL:     strings.TrimSuffix(opts.RunURL, "/"),
		storageURL: strings.TrimSuffix(opts.StorageURL, "/"),
	}, nil
}

func (c *Client) Close() error {
	return c.http.Close()
}

type initiateUploadRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

type initiateUploadResponse struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
}

// UploadFile pushes a local file to fal storage and returns its public URL.
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("fal: read %s: %w", path, err)
	}
	contentType := mimetype.Detect(data).String()

	resp, err := c.authed(ctx).
		SetBody(initiateUploadRequest{FileName: filepath.Base(path), ContentType: contentType}).
		Post(c.storageURL + "/storage/upload/initiate")
	if err != nil {
		return "", fmt.Errorf("fal: initiate upload: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("fal: initiate upload: status %d", resp.StatusCode())
	}
	var initiated initiateUploadResponse
	if err := json.Unmarshal(resp.Bytes(), &initiated); err != nil {
		return "", fmt.Errorf("fal: decode initiate upload: %w", err)
	}
	if initiated.UploadURL == "" || initiated.FileURL == "" {
		return "", errors.New("fal: initiate upload returned no urls")
	}

	put, err := c.http.R().
		WithContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(data).
		Put(initiated.UploadURL)
	if err != nil {
		return "", fmt.Errorf("fal: upload %s: %w", path, err)
	}
	if put.IsError() {
		return "", fmt.Errorf("fal: upload %s: status %d", path, put.StatusCode())
	}
	return initiated.FileURL, nil
}

// Run calls the model synchronously and returns its JSON object response.
func (c *Client) Run(ctx context.Context, modelID string, payload map[string]any) (map[string]any, error) {
	modelID = strings.Trim(modelID, "/")
	if modelID == "" {
		return nil, errors.New("fal: model id is required")
	}
	resp, err := c.authed(ctx).SetBody(payload).Post(c.runURL + "/" + modelID)
	if err != nil {
		return nil, fmt.Errorf("fal: run %s: %w", modelID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fal: run %s: status %d", modelID, resp.StatusCode())
	}
	var out map[string]any
	if err := json.Unmarshal(resp.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("fal: decode %s response: %w", modelID, err)
	}
	return out, nil
}

func (c *Client) authed(ctx context.Context) *resty.Request {
	return c.http.R().
		WithContext(ctx).
		SetHeader("Authorization", "Key "+c.key).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}
