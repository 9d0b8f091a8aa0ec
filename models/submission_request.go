package models

// SubmissionRequest is the upload payload for one document submission. The
// images are base64 encoded; the session id and nonce come from a prior
// start-session call.
type SubmissionRequest struct {
	SessionId   string `json:"session_id"`
	Nonce       string `json:"nonce"`
	FrontImage  string `json:"front_image"`
	BackImage   string `json:"back_image"`
	SelfieImage string `json:"selfie_image"`
}
