package pipeline

import "strings"

// RejectionCode names the user-facing reasons a submission can be turned
// down. All of them are recoverable by resubmission; operational failures
// travel as errors instead.
type RejectionCode string

const (
	CodeNoFaceDetected       RejectionCode = "no_face_detected"
	CodeEyesClosed           RejectionCode = "eyes_closed"
	CodeIncompleteSubmission RejectionCode = "incomplete_submission"
)

// Side identifies which image a face-related rejection refers to.
type Side string

const (
	SideFront  Side = "front"
	SideSelfie Side = "selfie"
)

// Rejection is the terminal outcome of a turned-down submission. A rejected
// submission produces no record; the upload handler decides whether to
// surface the reason for correction and resubmission.
type Rejection struct {
	Code          RejectionCode
	Side          Side     // set for no_face_detected
	MissingFields []string // set for incomplete_submission
}

func noFaceDetected(side Side) *Rejection {
	return &Rejection{Code: CodeNoFaceDetected, Side: side}
}

func eyesClosed() *Rejection {
	return &Rejection{Code: CodeEyesClosed, Side: SideSelfie}
}

func incompleteSubmission(missing []string) *Rejection {
	return &Rejection{Code: CodeIncompleteSubmission, MissingFields: missing}
}

func (r *Rejection) String() string {
	switch r.Code {
	case CodeNoFaceDetected:
		return string(r.Code) + ":" + string(r.Side)
	case CodeIncompleteSubmission:
		return string(r.Code) + ":" + strings.Join(r.MissingFields, ",")
	default:
		return string(r.Code)
	}
}
