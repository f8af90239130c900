package replicate

import (
	"context"
	"errors"
	"fmt"
	"os"

	repgo "github.com/replicate/replicate-go"
)

type Client struct {
	client *repgo.Client
}

// New builds a client for token; extra options (base URL, HTTP client) are
// passed through to replicate-go.
func New(token string, opts ...repgo.ClientOption) (*Client, error) {
	if token == "" {
		token = os.Getenv("REPLICATE_API_TOKEN")
	}
	cl, err := repgo.NewClient(append([]repgo.ClientOption{repgo.WithToken(token)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Client{client: cl}, nil
}

// UploadFile stores a local file with Replicate's files API; models accept the returned URL as input.
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	f, err := c.client.CreateFileFromPath(ctx, path, nil)
	if err != nil {
		return "", fmt.Errorf("replicate: upload %s: %w", path, err)
	}
	if u := f.URLs["get"]; u != "" {
		return u, nil
	}
	return "", errors.New("replicate: uploaded file has no url")
}

// Run runs a model and waits until done. identifier e.g. "bytedance/seedream-4"
func (c *Client) Run(ctx context.Context, identifier string, payload map[string]any) (map[string]any, error) {
	out, err := c.client.RunWithOptions(ctx, identifier, repgo.PredictionInput(payload), nil, repgo.WithBlockUntilDone())
	if err != nil {
		return nil, fmt.Errorf("replicate: run %s: %w", identifier, err)
	}
	return NormalizeOutput(out), nil
}

// NormalizeOutput wraps bare outputs as {"output": v}. Most image models
// return a URL array, most video models a single URL string.
func NormalizeOutput(out repgo.PredictionOutput) map[string]any {
	switch v := out.(type) {
	case map[string]any:
		return v
	case nil:
		return map[string]any{}
	default:
		return map[string]any{"output": v}
	}
}
