package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeImageAPI struct {
	urls    []string
	err     error
	lastReq openai.ImageRequest
}

func (a *fakeImageAPI) CreateImage(_ context.Context, req openai.ImageRequest) (openai.ImageResponse, error) {
	a.lastReq = req
	if a.err != nil {
		return openai.ImageResponse{}, a.err
	}
	resp := openai.ImageResponse{}
	for _, url := range a.urls {
		resp.Data = append(resp.Data, openai.ImageResponseDataInner{URL: url})
	}
	return resp, nil
}

func TestImageServiceGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	api := &fakeImageAPI{urls: []string{server.URL + "/image.png"}}
	service := &ImageService{
		logger:     zaptest.NewLogger(t),
		client:     api,
		model:      "dall-e-3",
		dataDir:    t.TempDir(),
		httpClient: server.Client(),
	}

	paths, err := service.Generate(context.Background(), "a lighthouse at dusk")
	require.NoError(t, err)
	require.Len(t, paths, 1)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	assert.Equal(t, "a lighthouse at dusk", api.lastReq.Prompt)
	assert.Equal(t, "dall-e-3", api.lastReq.Model)
	assert.Equal(t, 1, api.lastReq.N)
	assert.Equal(t, openai.CreateImageSize1024x1024, api.lastReq.Size)
}

func TestImageServiceGenerateAPIError(t *testing.T) {
	service := &ImageService{
		logger:     zaptest.NewLogger(t),
		client:     &fakeImageAPI{err: errors.New("rate limited")},
		model:      "dall-e-3",
		dataDir:    t.TempDir(),
		httpClient: http.DefaultClient,
	}

	_, err := service.Generate(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image generation failed")
}

func TestImageServiceDownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	service := &ImageService{
		logger:     zaptest.NewLogger(t),
		client:     &fakeImageAPI{urls: []string{server.URL + "/gone.png"}},
		model:      "dall-e-3",
		dataDir:    t.TempDir(),
		httpClient: server.Client(),
	}

	_, err := service.Generate(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
