package main

import (
	"fmt"
	"net/http"
	"testing"

	"go-ekyc-gateway/models"
	"go-ekyc-gateway/pipeline"
	"go-ekyc-gateway/storage"

	"github.com/stretchr/testify/require"
)

func TestSubmitIdCard_Success_RemovesSession(t *testing.T) {
	tokenStorage := NewInMemoryTokenStorage()
	store := storage.NewInMemorySubmissionStore()
	startTestServer(t, tokenStorage, &fakePipeline{record: acceptedRecord()}, store)

	session, nonce := startSession(t)
	req := newSubmissionReq(session, nonce)

	resp, body, decoded := postJSON[models.SubmissionResponse](t, "http://localhost:8081/api/submit-id-card", req)
	mustStatus(t, resp, http.StatusOK, body)

	require.Equal(t, "test-jwt", decoded.Jwt)
	require.Equal(t, acceptedRecord().ID, decoded.SubmissionId)
	require.Equal(t, "DUPONT", decoded.Fields.FamilyName)
	require.Equal(t, "id_card", decoded.Fields.DocumentType)

	got, err := tokenStorage.RetrieveToken(session)
	require.Error(t, err)     // removed
	require.Equal(t, "", got) // no token left

	stored, err := store.GetSubmission(t.Context(), acceptedRecord().ID)
	require.NoError(t, err)
	require.Equal(t, "DUPONT", stored.FamilyName)
}

func TestSubmitIdCard_Fail_BadNonce(t *testing.T) {
	tokenStorage := NewInMemoryTokenStorage()
	startTestServer(t, tokenStorage, &fakePipeline{record: acceptedRecord()}, storage.NewInMemorySubmissionStore())

	session := GenerateSessionId()
	nonce, _ := GenerateNonce(8)
	require.NoError(t, tokenStorage.StoreToken(session, nonce))

	req := newSubmissionReq(session, "bad-nonce")
	resp, body, _ := postJSON[map[string]any](t, "http://localhost:8081/api/submit-id-card", req)
	mustStatus(t, resp, http.StatusBadRequest, body)
}

func TestSubmitIdCard_Fail_SessionReuse(t *testing.T) {
	tokenStorage := NewInMemoryTokenStorage()
	store := storage.NewInMemorySubmissionStore()
	fake := &fakePipeline{record: acceptedRecord()}
	startTestServer(t, tokenStorage, fake, store)

	session, nonce := startSession(t)
	req := newSubmissionReq(session, nonce)

	resp1, body1, _ := postJSON[map[string]any](t, "http://localhost:8081/api/submit-id-card", req)
	mustStatus(t, resp1, http.StatusOK, body1)

	// the second submit would collide on the record's id anyway, so give the
	// fake a fresh outcome and rely purely on the consumed session
	fake.record = &pipeline.Record{ID: "66666666-7777-4888-8999-000000000000", Fields: acceptedRecord().Fields}

	resp2, body2, _ := postJSON[map[string]any](t, "http://localhost:8081/api/submit-id-card", req)
	mustStatus(t, resp2, http.StatusBadRequest, body2)
}

func TestSubmit_Rejection_ClosedEyes(t *testing.T) {
	tokenStorage := NewInMemoryTokenStorage()
	store := storage.NewInMemorySubmissionStore()
	rejection := &pipeline.Rejection{Code: pipeline.CodeEyesClosed, Side: pipeline.SideSelfie}
	startTestServer(t, tokenStorage, &fakePipeline{rejection: rejection}, store)

	session, nonce := startSession(t)
	req := newSubmissionReq(session, nonce)

	resp, body, decoded := postJSON[models.RejectionResponse](t, "http://localhost:8081/api/submit-passport", req)
	mustStatus(t, resp, http.StatusUnprocessableEntity, body)
	require.Equal(t, "eyes_closed", decoded.Reason)
	require.Equal(t, "selfie", decoded.Side)

	// nothing persisted for a rejected submission
	_, err := store.GetSubmission(t.Context(), acceptedRecord().ID)
	require.Error(t, err)
}

func TestSubmit_Rejection_MissingFields(t *testing.T) {
	tokenStorage := NewInMemoryTokenStorage()
	rejection := &pipeline.Rejection{
		Code:          pipeline.CodeIncompleteSubmission,
		MissingFields: []string{"familyName", "birthDate"},
	}
	startTestServer(t, tokenStorage, &fakePipeline{rejection: rejection}, storage.NewInMemorySubmissionStore())

	session, nonce := startSession(t)
	req := newSubmissionReq(session, nonce)

	resp, body, decoded := postJSON[models.RejectionResponse](t, "http://localhost:8081/api/submit-driving-licence", req)
	mustStatus(t, resp, http.StatusUnprocessableEntity, body)
	require.Equal(t, "incomplete_submission", decoded.Reason)
	require.Equal(t, []string{"familyName", "birthDate"}, decoded.MissingFields)
}

func TestSubmit_PipelineError(t *testing.T) {
	tokenStorage := NewInMemoryTokenStorage()
	startTestServer(t, tokenStorage, &fakePipeline{err: fmt.Errorf("ocr backend down")}, storage.NewInMemorySubmissionStore())

	session, nonce := startSession(t)
	req := newSubmissionReq(session, nonce)

	resp, body, _ := postJSON[map[string]any](t, "http://localhost:8081/api/submit-id-card", req)
	mustStatus(t, resp, http.StatusInternalServerError, body)
}

func TestSubmit_Fail_InvalidBase64Image(t *testing.T) {
	tokenStorage := NewInMemoryTokenStorage()
	startTestServer(t, tokenStorage, &fakePipeline{record: acceptedRecord()}, storage.NewInMemorySubmissionStore())

	session, nonce := startSession(t)
	req := newSubmissionReq(session, nonce)
	req.FrontImage = "%%% not base64 %%%"

	resp, body, _ := postJSON[map[string]any](t, "http://localhost:8081/api/submit-id-card", req)
	mustStatus(t, resp, http.StatusBadRequest, body)
}

func TestSubmit_Fail_GetOnPostEndpoint(t *testing.T) {
	tokenStorage := NewInMemoryTokenStorage()
	startTestServer(t, tokenStorage, &fakePipeline{record: acceptedRecord()}, storage.NewInMemorySubmissionStore())

	resp, err := http.Get("http://localhost:8081/api/submit-id-card")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestSubmit_PassesDecodedImagesToPipeline(t *testing.T) {
	tokenStorage := NewInMemoryTokenStorage()
	fake := &fakePipeline{record: acceptedRecord()}
	startTestServer(t, tokenStorage, fake, storage.NewInMemorySubmissionStore())

	session, nonce := startSession(t)
	req := newSubmissionReq(session, nonce)

	resp, body, _ := postJSON[map[string]any](t, "http://localhost:8081/api/submit-driving-licence", req)
	mustStatus(t, resp, http.StatusOK, body)

	require.NotNil(t, fake.lastSubmission)
	require.Equal(t, "driving_licence", string(fake.lastSubmission.DocumentType))
	require.Equal(t, []byte("not really an image"), fake.lastSubmission.FrontImage)
	require.Equal(t, []byte("not really an image"), fake.lastSubmission.SelfieImage)
}
