package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go-ekyc-gateway/document"
	"go-ekyc-gateway/images"
	"go-ekyc-gateway/metrics"
	"go-ekyc-gateway/models"
	"go-ekyc-gateway/pipeline"
	"go-ekyc-gateway/storage"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const ErrorInternal = "error:internal"
const ERR_MARSHAL = "failed to marshal response message"
const ERR_TOKEN_REMOVAL = "failed to remove token from storage"
const ERR_TOKEN_RETRIEVAL = "failed to get nonce from storage"
const ERR_INVALID_NONCE_SESSION = "invalid session or nonce"
const ERR_PIPELINE = "submission processing failed"
const ERR_PERSISTENCE = "failed to store submission"
const ERR_JWT_CREATION = "failed to create receipt jwt"

type ServerConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	UseTls         bool   `json:"use_tls,omitempty"`
	TlsPrivKeyPath string `json:"tls_priv_key_path,omitempty"`
	TlsCertPath    string `json:"tls_cert_path,omitempty"`
}

type ServerState struct {
	tokenStorage TokenStorage
	pipeline     SubmissionPipeline
	store        storage.SubmissionStore
	jwtCreator   JwtCreator
	metrics      *metrics.Metrics
}

type SpaHandler struct {
	staticPath string
	indexPath  string
}

type Server struct {
	server *http.Server
	config ServerConfig
}

func (s *Server) ListenAndServe() error {
	if s.config.UseTls {
		slog.Info("Starting server with TLS", "host", s.config.Host, "port", s.config.Port, "cert", s.config.TlsCertPath, "key", s.config.TlsPrivKeyPath)
		return s.server.ListenAndServeTLS(s.config.TlsCertPath, s.config.TlsPrivKeyPath)
	} else {
		slog.Info("Starting server without TLS", "host", s.config.Host, "port", s.config.Port)
		return s.server.ListenAndServe()
	}
}

func (s *Server) Stop() error {
	slog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	if err != nil {
		slog.Error("Error during server shutdown", "error", err)
	} else {
		slog.Info("Server shut down successfully")
	}
	return err
}

// ServeHTTP inspects the URL path to locate a file within the static dir
// on the SPA handler. If a file is found, it will be served. If not, the
// file located at the index path on the SPA handler will be served. This
// is suitable behavior for serving an SPA (single page application).
// https://github.com/gorilla/mux?tab=readme-ov-file#serving-single-page-applications
func (h SpaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slog.Debug("SPA handler serving request", "path", r.URL.Path)
	// Join internally call path.Clean to prevent directory traversal
	path := filepath.Join(h.staticPath, r.URL.Path)
	// check whether a file exists or is a directory at the given path
	fi, err := os.Stat(path)
	if os.IsNotExist(err) || fi.IsDir() {
		// file does not exist or path is a directory, serve index.html
		slog.Debug("Serving index.html for path", "path", r.URL.Path)
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	if err != nil {
		// if we got an error (that wasn't that the file doesn't exist) stating the
		// file, return a 500 internal server error and stop
		slog.Error("Error stating file", "path", path, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// otherwise, use http.FileServer to serve the static file
	slog.Debug("Serving static file", "path", path)
	http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
}

func NewServer(state *ServerState, config ServerConfig) (*Server, error) {
	slog.Info("Creating new server", "host", config.Host, "port", config.Port, "tls", config.UseTls)
	router := mux.NewRouter()

	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("Health check request received")
		err := json.NewEncoder(w).Encode(map[string]bool{"ok": true})
		if err != nil {
			slog.Error("failed to write body to http response", "error", err)
		}
	})

	router.HandleFunc("/api/start-session", func(w http.ResponseWriter, r *http.Request) {
		handleStartSession(state, w, r)
	})
	router.HandleFunc("/api/submit-id-card", func(w http.ResponseWriter, r *http.Request) {
		handleSubmit(state, document.IdCard, w, r)
	})
	router.HandleFunc("/api/submit-driving-licence", func(w http.ResponseWriter, r *http.Request) {
		handleSubmit(state, document.DrivingLicence, w, r)
	})
	router.HandleFunc("/api/submit-passport", func(w http.ResponseWriter, r *http.Request) {
		handleSubmit(state, document.Passport, w, r)
	})
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	slog.Debug("Registered all API routes")

	spa := SpaHandler{staticPath: "../frontend/build", indexPath: "index.html"}
	router.PathPrefix("/").Handler(spa)

	addr := fmt.Sprintf("%v:%v", config.Host, config.Port)
	srv := &http.Server{
		Handler: router,
		Addr:    addr,
		// Good practice: enforce timeouts for servers you create!
		// OCR of three images can take a while, so these are generous.
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  60 * time.Second,
	}

	slog.Info("Server created successfully", "address", addr)
	return &Server{
		server: srv,
		config: config,
	}, nil
}

func handleSubmit(state *ServerState, documentType document.DocumentType, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	slog.Info("Received document submission", "document_type", documentType)

	request, err := decodeSubmissionRequest(r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to decode submission", err)
		return
	}

	if err := validateSession(state.tokenStorage, request.SessionId, request.Nonce); err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", ERR_INVALID_NONCE_SESSION, err)
		return
	}

	submission, err := toPipelineSubmission(documentType, request)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to decode submission images", err)
		return
	}

	slog.Debug("Running submission pipeline", "document_type", documentType, "session_id", request.SessionId)
	record, rejection, err := state.pipeline.Run(r.Context(), submission)
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_PIPELINE, err)
		return
	}

	if rejection != nil {
		state.metrics.ObserveRejected(string(documentType), string(rejection.Code))
		slog.Info("Submission rejected", "document_type", documentType, "reason", rejection.String(),
			"session_id", request.SessionId)

		response := models.RejectionResponse{
			Reason:        string(rejection.Code),
			Side:          string(rejection.Side),
			MissingFields: rejection.MissingFields,
		}
		if err := writeJSON(w, http.StatusUnprocessableEntity, response); err != nil {
			respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		}
		return
	}

	if err := state.store.SaveSubmission(r.Context(), record); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_PERSISTENCE, err)
		return
	}

	slog.Debug("Creating receipt JWT", "submission_id", record.ID, "session_id", request.SessionId)
	jwt, err := state.jwtCreator.CreateReceiptJwt(record)
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ERR_JWT_CREATION, ERR_JWT_CREATION, err)
		return
	}

	state.metrics.ObserveAccepted(string(documentType))

	response := models.SubmissionResponse{
		SubmissionId: record.ID,
		Jwt:          jwt,
		Fields: models.SubmissionFields{
			FamilyName:     record.Fields.FamilyName,
			GivenName:      record.Fields.GivenName,
			IdentityNumber: record.Fields.IdentityNumber,
			CardNumber:     record.Fields.CardNumber,
			BirthDate:      record.Fields.BirthDate,
			ExpiryDate:     record.Fields.ExpiryDate,
			DocumentType:   string(record.Fields.DocumentType),
		},
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}

	slog.Info("Submission accepted", "document_type", documentType, "submission_id", record.ID,
		"session_id", request.SessionId)
	removeSessionToken(w, state.tokenStorage, request.SessionId)
}

// toPipelineSubmission decodes the base64 image payloads of the request
func toPipelineSubmission(documentType document.DocumentType, request models.SubmissionRequest) (pipeline.Submission, error) {
	front, err := images.DecodeBase64(request.FrontImage)
	if err != nil {
		return pipeline.Submission{}, fmt.Errorf("front image: %w", err)
	}
	back, err := images.DecodeBase64(request.BackImage)
	if err != nil {
		return pipeline.Submission{}, fmt.Errorf("back image: %w", err)
	}
	selfie, err := images.DecodeBase64(request.SelfieImage)
	if err != nil {
		return pipeline.Submission{}, fmt.Errorf("selfie image: %w", err)
	}

	return pipeline.Submission{
		DocumentType: documentType,
		FrontImage:   front,
		BackImage:    back,
		SelfieImage:  selfie,
	}, nil
}

// -----------------------------------------------------------------------------------

// validateSession validates session and nonce
func validateSession(storage TokenStorage, sessionId, nonce string) error {
	slog.Debug("Validating session and nonce", "session_id", sessionId)
	storedNonce, err := storage.RetrieveToken(sessionId)
	if err != nil {
		slog.Warn("Failed to retrieve token from storage", "session_id", sessionId, "error", err)
		return fmt.Errorf("%s: %w", ERR_TOKEN_RETRIEVAL, err)
	}

	if storedNonce == "" || storedNonce != nonce {
		slog.Warn("Invalid nonce or session", "session_id", sessionId, "nonce_empty", storedNonce == "", "nonce_match", storedNonce == nonce)
		return fmt.Errorf("%s", ERR_INVALID_NONCE_SESSION)
	}

	slog.Debug("Session validation successful", "session_id", sessionId)
	return nil
}

// removeSessionToken removes token and logs error if failed
func removeSessionToken(w http.ResponseWriter, storage TokenStorage, sessionId string) {
	slog.Debug("Removing session token", "session_id", sessionId)
	if err := storage.RemoveToken(sessionId); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_TOKEN_REMOVAL, err)
	} else {
		slog.Debug("Session token removed successfully", "session_id", sessionId)
	}
}

// decodeSubmissionRequest decodes the request body
func decodeSubmissionRequest(r *http.Request) (models.SubmissionRequest, error) {
	slog.Debug("Decoding submission request body")
	var request models.SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		slog.Warn("Failed to decode submission request", "error", err)
		return request, fmt.Errorf("decode request body: %w", err)
	}
	slog.Debug("Submission request decoded successfully", "session_id", request.SessionId)
	return request, nil
}

type StartSessionResponse struct {
	SessionId string `json:"session_id"`
	Nonce     string `json:"nonce"`
}

func handleStartSession(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	slog.Info("Received request to start a submission session")

	// Generate a session ID
	slog.Debug("Generating session ID")
	sessionId := GenerateSessionId()
	if sessionId == "" {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to generate session ID", fmt.Errorf("failed to generate session ID"))
		return
	}
	slog.Debug("Session ID generated", "session_id", sessionId)

	// Generate an 8 byte nonce
	slog.Debug("Generating nonce", "session_id", sessionId)
	nonce, err := GenerateNonce(8)
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to generate nonce", err)
		return
	}
	slog.Debug("Nonce generated", "session_id", sessionId)

	// Store the nonce in Redis, removed again when the submission completes
	slog.Debug("Storing nonce in token storage", "session_id", sessionId)
	err = state.tokenStorage.StoreToken(sessionId, nonce)
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to store nonce", err)
		return
	}
	slog.Debug("Nonce stored successfully", "session_id", sessionId)

	response := StartSessionResponse{
		SessionId: sessionId,
		Nonce:     nonce,
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}

	slog.Info("Submission session started successfully", "session_id", sessionId)
}

func GenerateSessionId() string {
	sessionId := make([]byte, 16)
	if _, err := rand.Read(sessionId); err != nil {
		slog.Error("failed to generate session ID", "error", err)
		return ""
	}
	hexId := fmt.Sprintf("%x", sessionId)
	slog.Debug("Session ID generated successfully", "session_id", hexId)
	return hexId
}

// GenerateNonce Generates a random nonce
func GenerateNonce(i int) (string, error) {
	nonce := make([]byte, i)
	if _, err := rand.Read(nonce); err != nil {
		slog.Error("failed to generate nonce", "error", err)
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	hexString := hex.EncodeToString(nonce)
	slog.Debug("Nonce generated successfully", "length", i)
	return hexString, nil
}

func respondWithErr(w http.ResponseWriter, code int, responseBody string, logMsg string, e error) {
	slog.Error(logMsg, "error", e, "status_code", code, "response_body", responseBody)
	w.WriteHeader(code)
	if _, err := w.Write([]byte(responseBody)); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

// helpers ------------

func closeRequestBody(r *http.Request) {
	if err := r.Body.Close(); err != nil {
		slog.Error("failed to close request body", "error", err)
	}

}

func requirePOST(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		slog.Debug("Non-POST request rejected", "method", r.Method, "path", r.URL.Path)
		respondWithErr(w, http.StatusMethodNotAllowed, "method not allowed", "invalid method", nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	slog.Debug("Writing JSON response", "status_code", status)
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal JSON payload", "error", err)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(payload)
	if err != nil {
		slog.Error("failed to write body to http response", "error", err)
	} else {
		slog.Debug("JSON response written successfully", "status_code", status, "payload_size", len(payload))
	}
	return nil
}
