package faces

import (
	"log/slog"
	"math"
)

// Verdict classifies a selfie's eyes as open or closed.
type Verdict string

const (
	VerdictOpen   Verdict = "open"
	VerdictClosed Verdict = "closed"
)

// DefaultEARThreshold is the closed-eye cutoff both legacy variants shipped
// with. The usable range is roughly 0.20-0.27 depending on camera and
// resolution, which is why the threshold is configuration, not a constant in
// the math.
const DefaultEARThreshold = 0.20

// LivenessResult carries the verdict together with the per-eye ratios that
// produced it, for auditability.
type LivenessResult struct {
	Verdict  Verdict
	LeftEAR  float64
	RightEAR float64
}

// EyeAspectRatio computes EAR = (|p2.y-p6.y| + |p3.y-p5.y|) / (2*|p4.x-p1.x|)
// over the six eye contour points. A zero horizontal distance is a degenerate
// detection and yields 0, which downstream classifies as closed rather than
// propagating a division error.
func EyeAspectRatio(eye Eye) float64 {
	vertical1 := math.Abs(eye[1].Y - eye[5].Y)
	vertical2 := math.Abs(eye[2].Y - eye[4].Y)
	horizontal := math.Abs(eye[3].X - eye[0].X)

	if horizontal == 0 {
		return 0
	}
	return (vertical1 + vertical2) / (2.0 * horizontal)
}

// EvaluateLiveness classifies the eyes of one detected face. The verdict is
// closed only when both eyes fall below the threshold; a single squinting eye
// is still open. Pure function of the twelve eye points and the threshold.
func EvaluateLiveness(d *Detection, threshold float64) (LivenessResult, error) {
	if err := d.Validate(); err != nil {
		return LivenessResult{}, err
	}

	left := EyeAspectRatio(d.LeftEye())
	right := EyeAspectRatio(d.RightEye())

	verdict := VerdictOpen
	if left < threshold && right < threshold {
		verdict = VerdictClosed
	}

	slog.Debug("Liveness evaluated",
		"left_ear", left, "right_ear", right,
		"threshold", threshold, "verdict", verdict)

	return LivenessResult{Verdict: verdict, LeftEAR: left, RightEAR: right}, nil
}
