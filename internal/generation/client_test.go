package generation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	uploadErr error
	runErr    error
	resp      map[string]any

	uploaded []string
	model    string
	payload  map[string]any
}

func (f *fakeBackend) UploadFile(ctx context.Context, path string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploaded = append(f.uploaded, path)
	return "https://files.test/" + path, nil
}

func (f *fakeBackend) Run(ctx context.Context, modelID string, payload map[string]any) (map[string]any, error) {
	f.model = modelID
	f.payload = payload
	if f.runErr != nil {
		return nil, f.runErr
	}
	return f.resp, nil
}

func mediaServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/missing"):
			http.NotFound(w, r)
		default:
			w.Write([]byte("bytes:" + r.URL.Path))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(b Backend) *Client {
	return NewClient(b, Options{ImageModelID: "image-model", VideoModelID: "video-model"})
}

func TestBuildImagePayload(t *testing.T) {
	payload := BuildImagePayload("hello", 4, "16:9")
	assert.Equal(t, "hello", payload["prompt"])
	assert.Equal(t, 4, payload["num_images"])
	assert.Equal(t, "16:9", payload["aspect_ratio"])
	assert.NotContains(t, payload, "image_urls")
}

func TestGenerateImages(t *testing.T) {
	srv := mediaServer(t)
	backend := &fakeBackend{resp: map[string]any{
		"images": []any{
			map[string]any{"url": srv.URL + "/out/a.png"},
			srv.URL + "/out/b.png",
		},
	}}
	client := newTestClient(backend)

	files, err := client.GenerateImages(context.Background(), "cinematic", 2, "9:16", []string{"/tmp/a.jpg", "/tmp/b.png"})
	require.NoError(t, err)

	assert.Equal(t, []string{"/tmp/a.jpg", "/tmp/b.png"}, backend.uploaded)
	assert.Equal(t, "image-model", backend.model)
	assert.Equal(t, "cinematic", backend.payload["prompt"])
	assert.Equal(t, 2, backend.payload["num_images"])
	assert.Equal(t, "9:16", backend.payload["aspect_ratio"])
	assert.Equal(t, []string{"https://files.test//tmp/a.jpg", "https://files.test//tmp/b.png"}, backend.payload["image_urls"])

	require.Len(t, files, 2)
	assert.Equal(t, File{Name: "image-1.png", Data: []byte("bytes:/out/a.png")}, files[0])
	assert.Equal(t, File{Name: "image-2.png", Data: []byte("bytes:/out/b.png")}, files[1])
}

func TestGenerateImagesFailures(t *testing.T) {
	srv := mediaServer(t)
	boom := errors.New("boom")
	cases := map[string]*fakeBackend{
		"upload":   {uploadErr: boom},
		"run":      {runErr: boom},
		"no urls":  {resp: map[string]any{"images": []any{}}},
		"download": {resp: map[string]any{"images": []any{srv.URL + "/ok.png", srv.URL + "/missing.png"}}},
	}
	for name, backend := range cases {
		t.Run(name, func(t *testing.T) {
			files, err := newTestClient(backend).GenerateImages(context.Background(), "p", 1, "16:9", []string{"a.jpg"})
			assert.ErrorIs(t, err, ErrGeneration)
			assert.Nil(t, files)
		})
	}
}

func TestGenerateVideo(t *testing.T) {
	srv := mediaServer(t)
	backend := &fakeBackend{resp: map[string]any{"video": map[string]any{"url": srv.URL + "/out/clip.mp4"}}}

	file, err := newTestClient(backend).GenerateVideo(context.Background(), "/data/image-1.png", "16:9")
	require.NoError(t, err)

	assert.Equal(t, "video-model", backend.model)
	assert.Equal(t, map[string]any{"image_url": "https://files.test//data/image-1.png", "aspect_ratio": "16:9"}, backend.payload)
	assert.Equal(t, File{Name: "video.mp4", Data: []byte("bytes:/out/clip.mp4")}, file)
}

func TestGenerateVideoNoURL(t *testing.T) {
	backend := &fakeBackend{resp: map[string]any{"status": "done"}}
	_, err := newTestClient(backend).GenerateVideo(context.Background(), "a.png", "16:9")
	assert.ErrorIs(t, err, ErrGeneration)
	assert.ErrorIs(t, err, ErrNoVideoURL)
}

func TestGenerateVideoFailures(t *testing.T) {
	srv := mediaServer(t)
	boom := errors.New("boom")
	for name, backend := range map[string]*fakeBackend{
		"upload":   {uploadErr: boom},
		"run":      {runErr: boom},
		"download": {resp: map[string]any{"url": srv.URL + "/missing.mp4"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := newTestClient(backend).GenerateVideo(context.Background(), "a.png", "16:9")
			assert.ErrorIs(t, err, ErrGeneration)
		})
	}
}
