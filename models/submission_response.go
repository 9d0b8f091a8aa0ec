package models

// SubmissionFields mirrors the validated identity record back to the caller.
type SubmissionFields struct {
	FamilyName     string `json:"family_name"`
	GivenName      string `json:"given_name"`
	IdentityNumber string `json:"identity_number"`
	CardNumber     string `json:"card_number"`
	BirthDate      string `json:"birth_date"`            // ISO YYYY-MM-DD
	ExpiryDate     string `json:"expiry_date,omitempty"` // ISO YYYY-MM-DD
	DocumentType   string `json:"document_type"`
}

// SubmissionResponse acknowledges an accepted submission.
type SubmissionResponse struct {
	SubmissionId string           `json:"submission_id"`
	Jwt          string           `json:"jwt"`
	Fields       SubmissionFields `json:"fields"`
}

// RejectionResponse tells the caller why a submission was turned down, with
// enough detail to prompt a targeted correction.
type RejectionResponse struct {
	Reason        string   `json:"reason"`
	Side          string   `json:"side,omitempty"`           // front or selfie, for no_face_detected
	MissingFields []string `json:"missing_fields,omitempty"` // for incomplete_submission
}
