package faces

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DetectionClient defines the interface to the external face-detection
// service. The pipeline never handles more than one face per image:
// implementations return (nil, nil) both when no face is found and when more
// than one face is found, since a multi-face image carries no usable face.
type DetectionClient interface {
	// DetectSingleFace runs detection with landmarks on a base64-encoded
	// image.
	DetectSingleFace(ctx context.Context, imageBase64 string) (*Detection, error)

	// HealthCheck verifies the detection service is available.
	HealthCheck() error
}

// HTTPDetectionClient implements DetectionClient against the landmark
// detection sidecar's REST API.
type HTTPDetectionClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPDetectionClient creates a new instance of HTTPDetectionClient.
func NewHTTPDetectionClient(baseURL string) *HTTPDetectionClient {
	return &HTTPDetectionClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type detectRequest struct {
	Image         string `json:"image"`
	WithLandmarks bool   `json:"with_landmarks"`
}

type detectResponse struct {
	Faces []struct {
		Box       Box         `json:"box"`
		Landmarks [][]float64 `json:"landmarks"`
	} `json:"faces"`
}

// DetectSingleFace posts the image to the detection service and returns the
// single detected face, or nil when zero or multiple faces came back.
func (c *HTTPDetectionClient) DetectSingleFace(ctx context.Context, imageBase64 string) (*Detection, error) {
	url := fmt.Sprintf("%s/api/detect", c.baseURL)

	jsonData, err := json.Marshal(detectRequest{Image: imageBase64, WithLandmarks: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal detect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create detect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute detect request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("face detection failed with status %d: %s", resp.StatusCode, string(body))
	}

	var detectResp detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&detectResp); err != nil {
		return nil, fmt.Errorf("failed to decode detect response: %w", err)
	}

	if len(detectResp.Faces) != 1 {
		slog.Debug("No single usable face in image", "face_count", len(detectResp.Faces))
		return nil, nil
	}

	face := detectResp.Faces[0]
	detection := &Detection{
		Box:       face.Box,
		Landmarks: make([]Point, 0, len(face.Landmarks)),
	}
	for _, p := range face.Landmarks {
		if len(p) != 2 {
			return nil, fmt.Errorf("malformed landmark point in detect response")
		}
		detection.Landmarks = append(detection.Landmarks, Point{X: p[0], Y: p[1]})
	}
	if err := detection.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection from service: %w", err)
	}

	slog.Debug("Face detected", "box", detection.Box)
	return detection, nil
}

// HealthCheck verifies the detection service is available.
func (c *HTTPDetectionClient) HealthCheck() error {
	url := fmt.Sprintf("%s/api/healthz", c.baseURL)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute health check request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("health check failed with status %d: %s", resp.StatusCode, string(body))
	}

	slog.Info("Face detection service health check passed")
	return nil
}
