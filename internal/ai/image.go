package ai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/knockerbot/knocker/internal/config"
)

// imageAPI is the slice of the OpenAI client the image service uses.
type imageAPI interface {
	CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error)
}

// ImageService generates images from a prompt and saves them under the
// configured data directory.
type ImageService struct {
	logger *zap.Logger
	client imageAPI

	model   string
	dataDir string

	// httpClient fetches the generated image URLs; overridden in tests.
	httpClient *http.Client
}

// NewImageService creates an ImageService backed by the given client.
func NewImageService(logger *zap.Logger, cfg *config.Config, client imageAPI) *ImageService {
	return &ImageService{
		logger:     logger.Named("image"),
		client:     client,
		model:      cfg.OpenAI.ImageModel,
		dataDir:    cfg.Data.Dir,
		httpClient: http.DefaultClient,
	}
}

// Generate requests one image for the prompt and returns the paths of the
// files saved under the data directory.
func (s *ImageService) Generate(ctx context.Context, query string) ([]string, error) {
	resp, err := s.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         query,
		Model:          s.model,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	paths := make([]string, 0, len(resp.Data))
	for i, img := range resp.Data {
		path := filepath.Join(s.dataDir, fmt.Sprintf("image-%d-%d.png", time.Now().UnixNano(), i))
		if err := s.download(ctx, img.URL, path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	s.logger.Info("Images generated",
		zap.String("model", s.model),
		zap.Int("count", len(paths)))

	return paths, nil
}

func (s *ImageService) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build image download request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download generated image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("failed to save image file: %w", err)
	}

	return nil
}
