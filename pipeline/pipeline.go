// Package pipeline sequences field extraction and face evaluation for one
// document submission: OCR text in, validated record or rejection out.
package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"go-ekyc-gateway/document"
	"go-ekyc-gateway/faces"
	"go-ekyc-gateway/images"
	"go-ekyc-gateway/ocr"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Stage models the strictly sequential, non-retrying progression of one
// invocation. Validated and Rejected are terminal; a resubmission is a brand
// new invocation, never a resumed one.
type Stage string

const (
	StageAwaitingText    Stage = "awaiting_text"
	StageFieldsExtracted Stage = "fields_extracted"
	StageFacesEvaluated  Stage = "faces_evaluated"
	StageValidated       Stage = "validated"
	StageRejected        Stage = "rejected"
)

// Config carries the tunables that must be explicit rather than ambient:
// the reference year for century disambiguation, the closed-eye threshold,
// the crop padding policy and the OCR language hints.
type Config struct {
	ReferenceYear     int
	LivenessThreshold float64
	Padding           faces.PaddingPolicy
	OCRLanguages      []string
}

// FaceArtifact is a rendered face crop encoded as an optimized PNG, plus the
// source-image rectangle it came from. The PNG can be smaller than the
// rectangle when the crop exceeded the storage size limit.
type FaceArtifact struct {
	PNG  []byte
	Rect image.Rectangle
}

// Record is the final output of an accepted submission. It is assembled once,
// never mutated afterwards, and handed to the persistence collaborator.
type Record struct {
	ID         string
	Fields     document.FieldSet
	FrontFace  FaceArtifact
	SelfieFace FaceArtifact
	Liveness   faces.LivenessResult
}

// Submission is one user attempt: a document type plus the three uploaded
// images, already decoded from the transport encoding to raw bytes.
type Submission struct {
	DocumentType document.DocumentType
	FrontImage   []byte
	BackImage    []byte
	SelfieImage  []byte
}

// Pipeline wires the OCR and face-detection collaborators to the pure
// extraction and evaluation components. A Pipeline holds no per-invocation
// state and is safe for concurrent use.
type Pipeline struct {
	engine   ocr.Engine
	detector faces.DetectionClient
	cfg      Config
}

// New creates a pipeline. A zero liveness threshold falls back to the
// default cutoff.
func New(engine ocr.Engine, detector faces.DetectionClient, cfg Config) *Pipeline {
	if cfg.LivenessThreshold == 0 {
		cfg.LivenessThreshold = faces.DefaultEARThreshold
	}
	return &Pipeline{engine: engine, detector: detector, cfg: cfg}
}

// collaboratorResults is everything Run gathers before the synchronous core
// takes over.
type collaboratorResults struct {
	frontText       string
	backText        string
	frontDetection  *faces.Detection
	selfieDetection *faces.Detection
}

// Run executes one full submission: the two OCR calls and the two detection
// calls fan out concurrently, then the synchronous core merges fields,
// evaluates faces and validates. Cancelling ctx cancels all outstanding
// collaborator calls and discards partial results; nothing is persisted here.
func (p *Pipeline) Run(ctx context.Context, sub Submission) (*Record, *Rejection, error) {
	if !sub.DocumentType.IsValid() {
		return nil, nil, fmt.Errorf("unknown document type: %q", sub.DocumentType)
	}

	slog.Info("Pipeline invocation started", "document_type", sub.DocumentType, "stage", StageAwaitingText)

	var results collaboratorResults
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res, err := p.engine.Recognize(gctx, ocr.Input{ID: "front", Image: sub.FrontImage, Languages: p.cfg.OCRLanguages})
		if err != nil {
			return fmt.Errorf("front OCR failed: %w", err)
		}
		results.frontText = res.PlainText
		return nil
	})
	g.Go(func() error {
		res, err := p.engine.Recognize(gctx, ocr.Input{ID: "back", Image: sub.BackImage, Languages: p.cfg.OCRLanguages})
		if err != nil {
			return fmt.Errorf("back OCR failed: %w", err)
		}
		results.backText = res.PlainText
		return nil
	})
	g.Go(func() error {
		det, err := p.detector.DetectSingleFace(gctx, base64.StdEncoding.EncodeToString(sub.FrontImage))
		if err != nil {
			return fmt.Errorf("front face detection failed: %w", err)
		}
		results.frontDetection = det
		return nil
	})
	g.Go(func() error {
		det, err := p.detector.DetectSingleFace(gctx, base64.StdEncoding.EncodeToString(sub.SelfieImage))
		if err != nil {
			return fmt.Errorf("selfie face detection failed: %w", err)
		}
		results.selfieDetection = det
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	frontImage, err := images.DecodeImage(sub.FrontImage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode front image: %w", err)
	}
	selfieImage, err := images.DecodeImage(sub.SelfieImage)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode selfie image: %w", err)
	}

	return p.Process(
		sub.DocumentType,
		results.frontText, results.backText,
		frontImage, results.frontDetection,
		selfieImage, results.selfieDetection,
	)
}

// Process is the synchronous core over already-available inputs. It never
// suspends: every collaborator call has completed before it starts. The
// returned error is reserved for operational failures (rendering, encoding);
// every bad-input outcome is a Rejection.
func (p *Pipeline) Process(
	dt document.DocumentType,
	frontText, backText string,
	frontImage image.Image, frontDetection *faces.Detection,
	selfieImage image.Image, selfieDetection *faces.Detection,
) (*Record, *Rejection, error) {

	fields := document.Extract(dt, frontText, backText, p.cfg.ReferenceYear)
	slog.Debug("Pipeline stage reached", "stage", StageFieldsExtracted, "document_type", dt)

	if frontDetection == nil {
		return p.reject(noFaceDetected(SideFront))
	}
	frontFace, err := p.cropArtifact(frontImage, frontDetection)
	if errors.Is(err, faces.ErrEmptyCropRegion) {
		// A box entirely outside the image is no usable face.
		return p.reject(noFaceDetected(SideFront))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("front face crop failed: %w", err)
	}

	if selfieDetection == nil {
		return p.reject(noFaceDetected(SideSelfie))
	}

	// Liveness applies to the selfie only: a document photo's subject is not
	// expected to demonstrate it.
	liveness, err := faces.EvaluateLiveness(selfieDetection, p.cfg.LivenessThreshold)
	if err != nil {
		return nil, nil, fmt.Errorf("liveness evaluation failed: %w", err)
	}
	if liveness.Verdict == faces.VerdictClosed {
		return p.reject(eyesClosed())
	}

	selfieFace, err := p.cropArtifact(selfieImage, selfieDetection)
	if errors.Is(err, faces.ErrEmptyCropRegion) {
		return p.reject(noFaceDetected(SideSelfie))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("selfie face crop failed: %w", err)
	}
	slog.Debug("Pipeline stage reached", "stage", StageFacesEvaluated,
		"left_ear", liveness.LeftEAR, "right_ear", liveness.RightEAR)

	if missing := fields.MissingFields(); len(missing) > 0 {
		return p.reject(incompleteSubmission(missing))
	}

	record := &Record{
		ID:         uuid.NewString(),
		Fields:     fields,
		FrontFace:  *frontFace,
		SelfieFace: *selfieFace,
		Liveness:   liveness,
	}

	slog.Info("Pipeline invocation validated", "stage", StageValidated,
		"submission_id", record.ID, "document_type", dt)
	return record, nil, nil
}

func (p *Pipeline) reject(rejection *Rejection) (*Record, *Rejection, error) {
	slog.Info("Pipeline invocation rejected", "stage", StageRejected, "reason", rejection.String())
	return nil, rejection, nil
}

func (p *Pipeline) cropArtifact(src image.Image, det *faces.Detection) (*FaceArtifact, error) {
	crop, err := faces.CropFace(src, det, p.cfg.Padding)
	if err != nil {
		return nil, err
	}
	png, err := images.EncodeFacePNG(crop.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", faces.ErrRenderUnavailable, err)
	}
	return &FaceArtifact{PNG: png, Rect: crop.Rect}, nil
}
