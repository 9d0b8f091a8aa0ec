package faces

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func testDetection(box Box) *Detection {
	return &Detection{Box: box, Landmarks: make([]Point, LandmarkCount)}
}

func TestCropRect(t *testing.T) {
	bounds := image.Rect(0, 0, 1000, 800)

	t.Run("symmetric padding is 0.4 of box width on all sides", func(t *testing.T) {
		rect := CropRect(Box{X: 400, Y: 300, Width: 100, Height: 120}, bounds, PaddingSymmetric)
		require.Equal(t, image.Rect(360, 260, 540, 460), rect)
	})

	t.Run("tight padding uses width and height separately", func(t *testing.T) {
		rect := CropRect(Box{X: 400, Y: 300, Width: 100, Height: 200}, bounds, PaddingTight)
		require.Equal(t, image.Rect(380, 260, 520, 540), rect)
	})

	t.Run("rectangle is clamped to the image bounds", func(t *testing.T) {
		rect := CropRect(Box{X: 10, Y: 10, Width: 100, Height: 100}, bounds, PaddingSymmetric)
		require.Equal(t, image.Rect(0, 0, 150, 150), rect)
	})

	t.Run("box near the far edge clamps the far side", func(t *testing.T) {
		rect := CropRect(Box{X: 950, Y: 750, Width: 100, Height: 100}, bounds, PaddingSymmetric)
		require.Equal(t, image.Rect(910, 710, 1000, 800), rect)
	})
}

func TestCropFace(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}

	t.Run("crop is sized to the padded rectangle", func(t *testing.T) {
		crop, err := CropFace(src, testDetection(Box{X: 80, Y: 80, Width: 40, Height: 40}), PaddingSymmetric)
		require.NoError(t, err)
		require.Equal(t, image.Rect(64, 64, 136, 136), crop.Rect)
		require.Equal(t, 72, crop.Image.Bounds().Dx())
		require.Equal(t, 72, crop.Image.Bounds().Dy())
	})

	t.Run("pixels come from the source rectangle", func(t *testing.T) {
		crop, err := CropFace(src, testDetection(Box{X: 80, Y: 80, Width: 40, Height: 40}), PaddingSymmetric)
		require.NoError(t, err)
		// crop origin (0,0) maps to source (64,64)
		r, g, _, _ := crop.Image.At(0, 0).RGBA()
		require.Equal(t, uint32(64), r>>8)
		require.Equal(t, uint32(64), g>>8)
	})

	t.Run("detection fully outside the image is a degenerate detection", func(t *testing.T) {
		_, err := CropFace(src, testDetection(Box{X: 500, Y: 500, Width: 40, Height: 40}), PaddingSymmetric)
		require.ErrorIs(t, err, ErrEmptyCropRegion)
		require.NotErrorIs(t, err, ErrRenderUnavailable)
	})
}
