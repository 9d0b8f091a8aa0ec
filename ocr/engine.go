// Package ocr defines the contract to the optical character recognition
// collaborator. The pipeline consumes the emitted plain text only; the word
// layout with confidences is carried for callers that want it.
package ocr

import "context"

// Input encapsulates a single image submitted for OCR.
type Input struct {
	// ID is an optional caller-provided identifier that is echoed back in
	// the corresponding Result.
	ID string
	// Image is the encoded image payload (JPEG or PNG).
	Image []byte
	// Languages is a list of trained-data hints (e.g. "eng", "fra").
	Languages []string
}

// Word is a single recognized token with its confidence in [0,1].
type Word struct {
	Text       string
	Confidence float64
}

// Result captures OCR output for a single input image.
type Result struct {
	// InputID mirrors the Input.ID that produced this result.
	InputID string
	// PlainText contains the best-effort transcription. No structural
	// guarantees: it may contain noise, missing characters or reordered
	// lines.
	PlainText string
	// Words carries the recognized tokens with confidences, when the engine
	// provides them.
	Words []Word
}

// Engine is the OCR provider contract: one image in, one result out.
// Recognition may take seconds per image; implementations must honor context
// cancellation so an abandoned submission releases its outstanding calls.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}
