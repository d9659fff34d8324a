// Package emotion talks to the external facial-emotion inference service
// and owns the analysis task queue. The service is an opaque upstream: it
// receives an image and responds with a seven-emotion percentage map. When
// it is unreachable, slow, or misbehaving, a clearly-marked simulated
// vector is substituted so the quiz flow never blocks on it.
package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/metamind/quiz/internal/confidence"
)

// DefaultTimeout bounds one analysis request to the inference service.
const DefaultTimeout = 10 * time.Second

// Service calls the remote emotion inference endpoint.
type Service struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewService creates a client for the inference service at baseURL.
// An empty baseURL disables remote calls; Analyze then always fails and
// callers fall back to simulation.
func NewService(baseURL string, timeout time.Duration) *Service {
	return &Service{
		baseURL: baseURL,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// analyzeResponse is the upstream response shape. The service also returns
// its own confidence score and breakdown, but only the raw emotion map is
// trusted: scoring is recomputed locally with the configured strategy.
type analyzeResponse struct {
	Emotions map[string]float64 `json:"emotions"`
	Error    string             `json:"error"`
}

// Analyze sends the image to the inference service and returns the emotion
// vector. Non-response beyond the timeout is an error, not a hang.
func (s *Service) Analyze(ctx context.Context, image []byte) (confidence.Vector, error) {
	if s.baseURL == "" {
		return confidence.Vector{}, fmt.Errorf("no emotion service configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "capture.jpg")
	if err != nil {
		return confidence.Vector{}, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := fw.Write(image); err != nil {
		return confidence.Vector{}, fmt.Errorf("build multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return confidence.Vector{}, fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/analyze", &body)
	if err != nil {
		return confidence.Vector{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return confidence.Vector{}, fmt.Errorf("emotion service call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return confidence.Vector{}, fmt.Errorf("emotion service status %d: %s", resp.StatusCode, msg)
	}

	var parsed analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return confidence.Vector{}, fmt.Errorf("decode emotion response: %w", err)
	}
	if parsed.Error != "" {
		return confidence.Vector{}, fmt.Errorf("emotion service error: %s", parsed.Error)
	}
	if len(parsed.Emotions) == 0 {
		return confidence.Vector{}, fmt.Errorf("emotion service returned no emotions")
	}

	return confidence.FromMap(parsed.Emotions), nil
}

// AnalyzeOrSimulate analyzes the image, substituting a simulated vector on
// any failure. The bool reports whether the vector is simulated. The core
// scorers treat simulated and real vectors identically.
func (s *Service) AnalyzeOrSimulate(ctx context.Context, image []byte) (confidence.Vector, bool) {
	v, err := s.Analyze(ctx, image)
	if err != nil {
		slog.Warn("emotion analysis failed, using simulated vector", "error", err)
		return Simulate(), true
	}
	return v, false
}

// Simulate produces a plausible development-fallback vector: mostly
// neutral with a moderate happy component, normalized to sum to 100.
func Simulate() confidence.Vector {
	v := confidence.Vector{
		Angry:    rand.Float64() * 5,
		Disgust:  rand.Float64() * 3,
		Fear:     rand.Float64() * 8,
		Happy:    20 + rand.Float64()*30,
		Sad:      rand.Float64() * 5,
		Surprise: rand.Float64() * 10,
		Neutral:  40 + rand.Float64()*20,
	}
	total := v.Sum()
	v.Angry = v.Angry / total * 100
	v.Disgust = v.Disgust / total * 100
	v.Fear = v.Fear / total * 100
	v.Happy = v.Happy / total * 100
	v.Sad = v.Sad / total * 100
	v.Surprise = v.Surprise / total * 100
	v.Neutral = v.Neutral / total * 100
	return v
}
