// Package images decodes uploaded document photos and encodes face crops as
// optimized PNGs for storage and transport.
package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/jpeg"
	"image/png"
	"log/slog"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// DecodeImage attempts to decode an uploaded image from bytes. Camera and
// scanner uploads are JPEG in practice, with PNG as the occasional second.
func DecodeImage(data []byte) (image.Image, error) {
	if img, err := jpeg.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	if img, err := png.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	// Generic decode as fallback for any other registered format
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("unsupported or invalid image format")
}

// DecodeBase64 decodes a base64 payload to raw bytes, accepting both plain
// base64 and the browser's data-URL framing.
func DecodeBase64(data string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(stripDataURL(data))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image payload: %w", err)
	}
	return raw, nil
}

func stripDataURL(data string) string {
	const marker = ";base64,"
	if idx := strings.Index(data, marker); idx >= 0 {
		return data[idx+len(marker):]
	}
	return data
}

// EncodeFacePNG encodes a face crop for storage: downscaled to fit 400x400,
// quantized to 256 colors, best compression. Face crops are kept for audit
// review, not for display at full resolution.
func EncodeFacePNG(img image.Image) ([]byte, error) {
	return encodeOptimizedPNG(img, 400, 400, 256, png.BestCompression)
}

// encodeOptimizedPNG encodes an image as PNG with optional resize and
// quantization.
//
// maxW/maxH: if >0, the image is downscaled to fit within this box (keeping aspect ratio)
// colors:    if >0, convert to a paletted image (≤256 colors is typical for PNG)
// level:     png.DefaultCompression, png.BestCompression, png.BestSpeed, etc.
func encodeOptimizedPNG(img image.Image, maxW, maxH, colors int, level png.CompressionLevel) ([]byte, error) {
	// 1) Resize if requested
	if maxW > 0 || maxH > 0 {
		img = resizeToFit(img, maxW, maxH)
	}

	// 2) Optional quantization (palettize)
	var out = img
	if colors > 0 {
		// Choose a palette: Plan9 (256 colors) or WebSafe (~216 colors)
		pal := palette.Plan9
		if colors <= 216 {
			pal = palette.WebSafe
		}
		dst := image.NewPaletted(img.Bounds(), pal)
		// Floyd–Steinberg dithering
		draw.FloydSteinberg.Draw(dst, dst.Bounds(), img, image.Point{})
		out = dst
	}

	// 3) Encode with chosen compression
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(&buf, out); err != nil {
		return nil, err
	}

	slog.Debug("Image encoded as PNG", "size", buf.Len())
	return buf.Bytes(), nil
}

// resizeToFit scales img to fit within maxW×maxH (keeping aspect ratio)
func resizeToFit(src image.Image, maxW, maxH int) image.Image {
	bw := src.Bounds().Dx()
	bh := src.Bounds().Dy()

	if maxW <= 0 && maxH <= 0 {
		return src
	}
	if maxW <= 0 {
		scale := float64(maxH) / float64(bh)
		maxW = int(math.Round(float64(bw) * scale))
	}
	if maxH <= 0 {
		scale := float64(maxW) / float64(bw)
		maxH = int(math.Round(float64(bh) * scale))
	}

	scale := math.Min(float64(maxW)/float64(bw), float64(maxH)/float64(bh))
	if scale >= 1.0 {
		return src // already small enough
	}
	w := int(math.Max(1, math.Round(float64(bw)*scale)))
	h := int(math.Max(1, math.Round(float64(bh)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// CatmullRom = high quality, good for photos/faces
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}
