package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"go-ekyc-gateway/document"
	"go-ekyc-gateway/faces"
	"go-ekyc-gateway/metrics"
	"go-ekyc-gateway/models"
	"go-ekyc-gateway/pipeline"
	"go-ekyc-gateway/storage"

	"github.com/stretchr/testify/require"
)

var testConfig = ServerConfig{
	Host:           "localhost",
	Port:           8081,
	UseTls:         false,
	TlsCertPath:    "",
	TlsPrivKeyPath: "",
}

// The prometheus default registry rejects duplicate registration, so the
// metrics are created once and shared between server tests.
var testMetrics = metrics.New()

func startTestServer(t *testing.T, tokenStorage TokenStorage, p SubmissionPipeline, store storage.SubmissionStore) *Server {
	t.Helper()

	testState := &ServerState{
		tokenStorage: tokenStorage,
		pipeline:     p,
		store:        store,
		jwtCreator:   fakeJwtCreator{jwt: "test-jwt"},
		metrics:      testMetrics,
	}

	srv, err := NewServer(testState, testConfig)
	require.NoError(t, err)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("server error: %v", err)
		}
	}()

	waitUntilHealthy(t, "http://localhost:8081/")
	t.Cleanup(func() {
		if err := srv.Stop(); err != nil {
			t.Logf("error shutting down server: %v", err)
		}
	})
	return srv
}

func waitUntilHealthy(t *testing.T, url string) {
	t.Helper()
	const maxAttempts = 50
	for i := 0; i < maxAttempts; i++ {
		if resp, err := http.Get(url); err == nil {
			_ = resp.Body.Close()
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("server did not start in time")
}

func postJSON[T any](t *testing.T, url string, payload any) (*http.Response, []byte, *T) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(b)
	}
	resp, err := http.Post(url, "application/json", body)
	require.NoError(t, err)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded *T
	var v T
	_ = json.Unmarshal(respBody, &v)
	decoded = &v

	return resp, respBody, decoded
}

func mustStatus(t *testing.T, resp *http.Response, want int, body []byte) {
	t.Helper()
	require.Equalf(t, want, resp.StatusCode, "body: %s", body)
}

// start-session bootstrap
func startSession(t *testing.T) (sessionID, nonce string) {
	t.Helper()
	type startResp struct {
		SessionID string `json:"session_id"`
		Nonce     string `json:"nonce"`
	}
	resp, body, sr := postJSON[startResp](t, "http://localhost:8081/api/start-session", nil)
	mustStatus(t, resp, http.StatusOK, body)
	require.NotEmpty(t, sr.SessionID)
	require.NotEmpty(t, sr.Nonce)
	return sr.SessionID, sr.Nonce
}

func newSubmissionReq(sessionId, nonce string) models.SubmissionRequest {
	img := base64.StdEncoding.EncodeToString([]byte("not really an image"))
	return models.SubmissionRequest{
		SessionId:   sessionId,
		Nonce:       nonce,
		FrontImage:  img,
		BackImage:   img,
		SelfieImage: img,
	}
}

func acceptedRecord() *pipeline.Record {
	return &pipeline.Record{
		ID: "11111111-2222-4333-8444-555555555555",
		Fields: document.FieldSet{
			DocumentType:   document.IdCard,
			FamilyName:     "DUPONT",
			GivenName:      "MARIE",
			IdentityNumber: "123456789012345678",
			CardNumber:     "987654321",
			BirthDate:      "1990-06-15",
			ExpiryDate:     "2030-06-15",
		},
		Liveness: faces.LivenessResult{Verdict: faces.VerdictOpen},
	}
}

// test doubles

type fakeJwtCreator struct{ jwt string }

func (f fakeJwtCreator) CreateReceiptJwt(_ *pipeline.Record) (string, error) {
	return f.jwt, nil
}

// fakePipeline returns a canned outcome and remembers what it was asked to run.
type fakePipeline struct {
	record    *pipeline.Record
	rejection *pipeline.Rejection
	err       error

	lastSubmission *pipeline.Submission
}

func (f *fakePipeline) Run(_ context.Context, sub pipeline.Submission) (*pipeline.Record, *pipeline.Rejection, error) {
	f.lastSubmission = &sub
	return f.record, f.rejection, f.err
}
