package generation

import (
	"context"
	"fmt"
	"time"

	"resty.dev/v3"
)

// Client runs the image and video models against a Backend and downloads
// what they produce. It keeps no state between calls.
type Client struct {
	backend    Backend
	imageModel string
	videoModel string
	http       *resty.Client
}

type Options struct {
	ImageModelID string
	VideoModelID string
	// Timeout bounds each download; 0 leaves it to the request context.
	Timeout time.Duration
	// HTTPClient overrides the download client.
	HTTPClient *resty.Client
}

func NewClient(backend Backend, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = resty.New()
		if opts.Timeout > 0 {
			hc.SetTimeout(opts.Timeout)
		}
	}
	return &Client{backend: backend, imageModel: opts.ImageModelID, videoModel: opts.VideoModelID, http: hc}
}

// BuildImagePayload is the image model input without image_urls.
func BuildImagePayload(prompt string, count int, aspectRatio string) map[string]any {
	return map[string]any{"prompt": prompt, "num_images": count, "aspect_ratio": aspectRatio}
}

// GenerateImages uploads imagePaths, runs the image model and returns the
// outputs named image-<n>.png in response order. Any failure fails the whole call.
func (c *Client) GenerateImages(ctx context.Context, prompt string, count int, aspectRatio string, imagePaths []string) ([]File, error) {
	imageURLs := make([]string, 0, len(imagePaths))
	for _, p := range imagePaths {
		u, err := c.backend.UploadFile(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("%w: upload %s: %v", ErrGeneration, p, err)
		}
		imageURLs = append(imageURLs, u)
	}
	payload := BuildImagePayload(prompt, count, aspectRatio)
	payload["image_urls"] = imageURLs

	resp, err := c.backend.Run(ctx, c.imageModel, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: run %s: %v", ErrGeneration, c.imageModel, err)
	}
	urls := DecodeImageURLs(resp)
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no image urls in response", ErrGeneration)
	}

	files := make([]File, 0, len(urls))
	for i, u := range urls {
		data, err := c.download(ctx, u)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Name: fmt.Sprintf("image-%d.png", i+1), Data: data})
	}
	return files, nil
}

// GenerateVideo animates a single image and returns it as video.mp4.
func (c *Client) GenerateVideo(ctx context.Context, imagePath, aspectRatio string) (File, error) {
	imageURL, err := c.backend.UploadFile(ctx, imagePath)
	if err != nil {
		return File{}, fmt.Errorf("%w: upload %s: %v", ErrGeneration, imagePath, err)
	}
	payload := map[string]any{"image_url": imageURL, "aspect_ratio": aspectRatio}

	resp, err := c.backend.Run(ctx, c.videoModel, payload)
	if err != nil {
		return File{}, fmt.Errorf("%w: run %s: %v", ErrGeneration, c.videoModel, err)
	}
	videoURL, err := DecodeVideoURL(resp)
	if err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	data, err := c.download(ctx, videoURL)
	if err != nil {
		return File{}, err
	}
	return File{Name: "video.mp4", Data: data}, nil
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.http.R().WithContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: download %s: %v", ErrGeneration, url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: download %s: status %d", ErrGeneration, url, resp.StatusCode())
	}
	return resp.Bytes(), nil
}
