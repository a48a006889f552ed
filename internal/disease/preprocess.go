package disease

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	"github.com/agrogpt/advisor/internal/ml"
)

// InputError reports a malformed client-supplied image
type InputError struct {
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid input: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

func (e *InputError) Unwrap() error { return e.Err }

// PreprocessImage decodes an image and converts it into the
// classifier's feature vector: resize so the short side is
// ml.ResizeSize, center-crop to ml.InputSize, normalize each channel,
// and flatten channel-major.
func PreprocessImage(data []byte) ([]float64, error) {
	if len(data) == 0 {
		return nil, &InputError{Reason: "empty image data"}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &InputError{Reason: "undecodable image", Err: err}
	}

	img = resizeShortSide(img, ml.ResizeSize)
	return normalizeCrop(img, ml.InputSize), nil
}

// resizeShortSide scales the image so its shorter dimension equals size
func resizeShortSide(img image.Image, size int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var dw, dh int
	if w < h {
		dw = size
		dh = h * size / w
	} else {
		dh = size
		dw = w * size / h
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// normalizeCrop center-crops to crop x crop and produces the
// channel-major normalized feature vector.
func normalizeCrop(img image.Image, crop int) []float64 {
	b := img.Bounds()
	x0 := b.Min.X + (b.Dx()-crop)/2
	y0 := b.Min.Y + (b.Dy()-crop)/2

	features := make([]float64, ml.Channels*crop*crop)
	for y := 0; y < crop; y++ {
		for x := 0; x < crop; x++ {
			r, g, bb, _ := img.At(x0+x, y0+y).RGBA()
			px := [ml.Channels]float64{
				float64(r) / 0xffff,
				float64(g) / 0xffff,
				float64(bb) / 0xffff,
			}
			for c := 0; c < ml.Channels; c++ {
				features[c*crop*crop+y*crop+x] = (px[c] - ml.NormMean[c]) / ml.NormStd[c]
			}
		}
	}
	return features
}
