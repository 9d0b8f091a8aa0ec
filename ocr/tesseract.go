package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine using the gosseract client as the
// default OCR provider.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize performs OCR on a single image input. Each call uses a fresh
// client, so concurrent recognitions for the document sides of one
// submission do not share state.
func (e *TesseractEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(in.Image); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return Result{}, fmt.Errorf("set languages: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize text: %w", err)
	}

	return Result{
		InputID:   in.ID,
		PlainText: strings.TrimSpace(text),
		Words:     extractWords(c),
	}, nil
}

func extractWords(c *gosseract.Client) []Word {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil
	}
	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{Text: b.Word, Confidence: b.Confidence / 100.0})
	}
	return words
}
