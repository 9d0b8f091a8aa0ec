package faces

import (
	"errors"
	"image"
	"image/draw"
	"log/slog"
	"math"
)

// PaddingPolicy selects how the crop rectangle is expanded around the
// detection box.
type PaddingPolicy int

const (
	// PaddingSymmetric pads 0.4 x box-width on all four sides, matching the
	// generous crop the document forms historically used.
	PaddingSymmetric PaddingPolicy = iota
	// PaddingTight pads 0.2 x box-width horizontally and 0.2 x box-height
	// vertically.
	PaddingTight
)

// ErrRenderUnavailable reports that a crop could not be rendered or encoded.
// This is an operational failure, never to be conflated with "no face
// detected".
var ErrRenderUnavailable = errors.New("face crop rendering unavailable")

// ErrEmptyCropRegion reports that the padded crop rectangle has no overlap
// with the image. That means the detection box itself lies outside the image,
// a degenerate detection rather than an operational failure.
var ErrEmptyCropRegion = errors.New("face crop region lies outside the image")

// CroppedFace is a rendered face region plus the source-image rectangle it
// was rendered from. It is owned by the pipeline invocation that created it.
type CroppedFace struct {
	Image *image.RGBA
	Rect  image.Rectangle
}

// CropRect computes the padded crop rectangle for a detection box, clamped to
// the source bounds so rendering never samples outside the image.
func CropRect(box Box, bounds image.Rectangle, policy PaddingPolicy) image.Rectangle {
	padX := 0.4 * box.Width
	padY := 0.4 * box.Width
	if policy == PaddingTight {
		padX = 0.2 * box.Width
		padY = 0.2 * box.Height
	}

	rect := image.Rect(
		int(math.Floor(box.X-padX)),
		int(math.Floor(box.Y-padY)),
		int(math.Ceil(box.X+box.Width+padX)),
		int(math.Ceil(box.Y+box.Height+padY)),
	)
	return rect.Intersect(bounds)
}

// CropFace renders the padded face region of src into a fresh image sized to
// the crop rectangle. The caller guarantees a detection exists; absence of a
// face is handled one level up as a distinct outcome.
func CropFace(src image.Image, d *Detection, policy PaddingPolicy) (*CroppedFace, error) {
	rect := CropRect(d.Box, src.Bounds(), policy)
	if rect.Empty() {
		return nil, ErrEmptyCropRegion
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)

	slog.Debug("Face region cropped",
		"rect", rect, "width", rect.Dx(), "height", rect.Dy(), "policy", policy)

	return &CroppedFace{Image: dst, Rect: rect}, nil
}
