// Package transcode converts images to lossy WebP.
package transcode

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"math"
	"os"

	// Registered decoders. Paletted, grayscale and CMYK inputs are
	// normalized to RGBA after decoding.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gen2brain/webp"
	_ "golang.org/x/image/webp"
)

// Result is the outcome of one transcode.
type Result struct {
	Data           []byte
	OriginalSize   int64
	CompressedSize int64
}

// Encode decodes data and re-encodes it as lossy WebP at quality (0-100).
// OriginalSize is len(data).
func Encode(data []byte, quality float32) (*Result, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	out, err := encodeWebP(toNRGBA(img), quality)
	if err != nil {
		return nil, err
	}

	return &Result{
		Data:           out,
		OriginalSize:   int64(len(data)),
		CompressedSize: int64(len(out)),
	}, nil
}

// File transcodes the image at path. OriginalSize is the on-disk size
// reported by stat, not the length of the bytes read.
func File(path string, quality float32) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	res, err := Encode(data, quality)
	if err != nil {
		return nil, err
	}
	res.OriginalSize = info.Size()
	return res, nil
}

func encodeWebP(img *image.NRGBA, quality float32) ([]byte, error) {
	q := float64(quality)
	if math.IsNaN(q) || q < 0 || q > 100 {
		return nil, &EncodeError{Err: fmt.Errorf("quality %v out of range [0,100]", quality)}
	}
	if img.Bounds().Empty() {
		return nil, &EncodeError{Err: fmt.Errorf("empty image %v", img.Bounds())}
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, webp.Options{Quality: int(math.Round(q))}); err != nil {
		return nil, &EncodeError{Err: err}
	}
	return buf.Bytes(), nil
}

// toNRGBA returns img as 8-bit non-premultiplied RGBA at native size.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
