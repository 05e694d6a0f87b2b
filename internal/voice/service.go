// Package voice exposes the analysis service's endpoints as typed
// operations on top of the resilient request layer.
package voice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/vocalyze/client-go/internal/core/domain"
	"github.com/vocalyze/client-go/internal/infra/api"
)

// Service wraps an api.Client with the service's endpoint surface.
type Service struct {
	client *api.Client
}

// New creates a Service on top of client.
func New(client *api.Client) *Service {
	return &Service{client: client}
}

// Health calls the health endpoint through the regular retried path.
func (s *Service) Health(ctx context.Context) (*domain.HealthResponse, error) {
	env, err := s.client.Get(ctx, api.HealthPath)
	if err != nil {
		return nil, err
	}

	var out domain.HealthResponse
	if err := env.DecodeJSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProcessAudio uploads an audio clip for transcription and emotion
// analysis. Progress is reported via onProgress (nil to skip).
func (s *Service) ProcessAudio(
	ctx context.Context,
	file api.UploadFile,
	language string,
	onProgress func(int),
) (*domain.AnalysisResult, error) {
	fields := map[string]string{}
	if language != "" {
		fields["language"] = language
	}

	env, err := s.client.Upload(ctx, "/process-audio", file, fields, onProgress)
	if err != nil {
		return nil, err
	}

	var out domain.AnalysisResult
	if err := env.DecodeJSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAudio returns the audio files stored on the service.
func (s *Service) ListAudio(ctx context.Context) ([]domain.AudioFile, error) {
	env, err := s.client.Get(ctx, "/api/audio")
	if err != nil {
		return nil, err
	}

	var out domain.AudioFileList
	if err := env.DecodeJSON(&out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// DownloadAudio streams a stored audio file into w and returns the number
// of bytes written.
func (s *Service) DownloadAudio(ctx context.Context, fileID string, w io.Writer) (int64, error) {
	env, err := s.client.Get(ctx, "/api/audio/"+url.PathEscape(fileID)+"/download")
	if err != nil {
		return 0, err
	}

	n, err := w.Write(env.Body)
	if err != nil {
		return int64(n), fmt.Errorf("write audio file: %w", err)
	}
	return int64(n), nil
}

// DeleteAudio removes a stored audio file.
func (s *Service) DeleteAudio(ctx context.Context, fileID string) (*domain.DeleteResult, error) {
	env, err := s.client.Delete(ctx, "/api/audio/"+url.PathEscape(fileID))
	if err != nil {
		return nil, err
	}

	var out domain.DeleteResult
	if err := env.DecodeJSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Preflight issues an OPTIONS request against path and returns the
// allowed methods, for connectivity diagnostics.
func (s *Service) Preflight(ctx context.Context, path string) (http.Header, error) {
	env, err := s.client.Options(ctx, path)
	if err != nil {
		return nil, err
	}
	return env.Header, nil
}
