package faces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func landmarkGrid() [][]float64 {
	landmarks := make([][]float64, LandmarkCount)
	for i := range landmarks {
		landmarks[i] = []float64{float64(10 + i), float64(20 + i)}
	}
	return landmarks
}

func detectServer(t *testing.T, faces []map[string]interface{}) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/detect" {
			t.Errorf("Expected path /api/detect, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST method, got %s", r.Method)
		}

		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		if req["with_landmarks"] != true {
			t.Error("Expected with_landmarks to be true")
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{"faces": faces})
	}))
}

func TestHTTPDetectionClient_DetectSingleFace_Success(t *testing.T) {
	server := detectServer(t, []map[string]interface{}{
		{
			"box":       map[string]float64{"x": 100, "y": 50, "width": 80, "height": 90},
			"landmarks": landmarkGrid(),
		},
	})
	defer server.Close()

	client := NewHTTPDetectionClient(server.URL)
	detection, err := client.DetectSingleFace(context.Background(), "imagebase64")

	if err != nil {
		t.Errorf("DetectSingleFace failed: %v", err)
	}
	if detection == nil {
		t.Fatal("Expected a detection, got nil")
	}
	if detection.Box.X != 100 || detection.Box.Width != 80 {
		t.Errorf("Unexpected box: %+v", detection.Box)
	}
	if len(detection.Landmarks) != LandmarkCount {
		t.Errorf("Expected %d landmarks, got %d", LandmarkCount, len(detection.Landmarks))
	}
	if detection.Landmarks[0].X != 10 || detection.Landmarks[0].Y != 20 {
		t.Errorf("Unexpected first landmark: %+v", detection.Landmarks[0])
	}
}

func TestHTTPDetectionClient_DetectSingleFace_NoFace(t *testing.T) {
	server := detectServer(t, []map[string]interface{}{})
	defer server.Close()

	client := NewHTTPDetectionClient(server.URL)
	detection, err := client.DetectSingleFace(context.Background(), "imagebase64")

	if err != nil {
		t.Errorf("DetectSingleFace failed: %v", err)
	}
	if detection != nil {
		t.Errorf("Expected nil detection for zero faces, got %+v", detection)
	}
}

func TestHTTPDetectionClient_DetectSingleFace_MultipleFaces(t *testing.T) {
	face := map[string]interface{}{
		"box":       map[string]float64{"x": 0, "y": 0, "width": 10, "height": 10},
		"landmarks": landmarkGrid(),
	}
	server := detectServer(t, []map[string]interface{}{face, face})
	defer server.Close()

	client := NewHTTPDetectionClient(server.URL)
	detection, err := client.DetectSingleFace(context.Background(), "imagebase64")

	if err != nil {
		t.Errorf("DetectSingleFace failed: %v", err)
	}
	if detection != nil {
		t.Errorf("Expected nil detection for multiple faces, got %+v", detection)
	}
}

func TestHTTPDetectionClient_DetectSingleFace_ShortLandmarkSet(t *testing.T) {
	server := detectServer(t, []map[string]interface{}{
		{
			"box":       map[string]float64{"x": 0, "y": 0, "width": 10, "height": 10},
			"landmarks": landmarkGrid()[:5],
		},
	})
	defer server.Close()

	client := NewHTTPDetectionClient(server.URL)
	_, err := client.DetectSingleFace(context.Background(), "imagebase64")

	if err == nil {
		t.Error("Expected error for short landmark set, got nil")
	}
}

func TestHTTPDetectionClient_DetectSingleFace_MalformedLandmark(t *testing.T) {
	landmarks := landmarkGrid()
	landmarks[3] = []float64{1, 2, 3}

	server := detectServer(t, []map[string]interface{}{
		{
			"box":       map[string]float64{"x": 0, "y": 0, "width": 10, "height": 10},
			"landmarks": landmarks,
		},
	})
	defer server.Close()

	client := NewHTTPDetectionClient(server.URL)
	_, err := client.DetectSingleFace(context.Background(), "imagebase64")

	if err == nil {
		t.Error("Expected error for malformed landmark point, got nil")
	}
}

func TestHTTPDetectionClient_DetectSingleFace_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("detector crashed"))
	}))
	defer server.Close()

	client := NewHTTPDetectionClient(server.URL)
	_, err := client.DetectSingleFace(context.Background(), "imagebase64")

	if err == nil {
		t.Error("Expected error for 500 response, got nil")
	}
}

func TestHTTPDetectionClient_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/healthz" {
			t.Errorf("Expected path /api/healthz, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := NewHTTPDetectionClient(server.URL)
	if err := client.HealthCheck(); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}

func TestHTTPDetectionClient_HealthCheck_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPDetectionClient(server.URL)
	if err := client.HealthCheck(); err == nil {
		t.Error("Expected error for unavailable service, got nil")
	}
}
