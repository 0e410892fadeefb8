// Package yolo holds the runtime-independent parts of YOLOv8-style
// detectors: letterboxing, output decoding and non-max suppression.
package yolo

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

var padColor = color.NRGBA{R: 114, G: 114, B: 114, A: 255}

// Transform maps letterboxed coordinates back onto the source image.
type Transform struct {
	Scale float64
	PadX  float64
	PadY  float64
}

func (t Transform) ToSource(x, y float64) (float64, float64) {
	return (x - t.PadX) / t.Scale, (y - t.PadY) / t.Scale
}

// Letterbox resizes img to fit a size x size square keeping its aspect ratio,
// centring it on a grey canvas.
func Letterbox(img image.Image, size int) (*image.NRGBA, Transform) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	scale := float64(size) / float64(w)
	if s := float64(size) / float64(h); s < scale {
		scale = s
	}
	newW := int(float64(w)*scale + 0.5)
	newH := int(float64(h)*scale + 0.5)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	resized := imaging.Resize(img, newW, newH, imaging.Linear)
	canvas := imaging.New(size, size, padColor)
	padX := (size - newW) / 2
	padY := (size - newH) / 2
	canvas = imaging.Paste(canvas, resized, image.Pt(padX, padY))

	return canvas, Transform{Scale: scale, PadX: float64(padX), PadY: float64(padY)}
}

// ToCHW converts an NRGBA image to planar RGB float32 data in [0,1].
func ToCHW(img *image.NRGBA) []float32 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	plane := w * h
	data := make([]float32, 3*plane)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			i := y*w + x
			p := row[x*4:]
			data[i] = float32(p[0]) / 255.0
			data[plane+i] = float32(p[1]) / 255.0
			data[2*plane+i] = float32(p[2]) / 255.0
		}
	}
	return data
}
