// Package faces holds the face-geometry side of the pipeline: the detection
// model coming back from the external detector, the eye-aspect-ratio liveness
// check, and the padded face crop.
package faces

import "fmt"

// Point is a landmark coordinate in source-image pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is a face bounding box in source-image pixels.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// LandmarkCount is the standard 68-point face landmark scheme.
const LandmarkCount = 68

// Landmark index ranges of the standard 68-point scheme.
const (
	leftEyeStart  = 36
	rightEyeStart = 42
)

// Detection is one detected face: a bounding box plus 68 ordered landmark
// points. At most one Detection exists per source image; "no face" is a nil
// *Detection at the call site, never a zero-valued one.
type Detection struct {
	Box       Box
	Landmarks []Point
}

// Eye is the six contour points of one eye in fixed order: outer corner,
// upper outer lid, upper inner lid, inner corner, lower inner lid, lower
// outer lid.
type Eye [6]Point

// Validate checks that the detection carries a full landmark set.
func (d *Detection) Validate() error {
	if len(d.Landmarks) != LandmarkCount {
		return fmt.Errorf("expected %d landmarks, got %d", LandmarkCount, len(d.Landmarks))
	}
	return nil
}

// LeftEye returns landmark points 36-41.
func (d *Detection) LeftEye() Eye {
	return eyeAt(d.Landmarks, leftEyeStart)
}

// RightEye returns landmark points 42-47.
func (d *Detection) RightEye() Eye {
	return eyeAt(d.Landmarks, rightEyeStart)
}

func eyeAt(landmarks []Point, start int) Eye {
	var eye Eye
	copy(eye[:], landmarks[start:start+6])
	return eye
}
