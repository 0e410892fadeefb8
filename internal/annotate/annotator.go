// Package annotate renders detection overlays onto images.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"object-detection-service/internal/codec"
	"object-detection-service/internal/domain"
)

const mimeJPEG = "image/jpeg"

// palette follows the class colours used by the ultralytics plotter.
var palette = []color.NRGBA{
	hex(0xFF3838), hex(0xFF9D97), hex(0xFF701F), hex(0xFFB21D), hex(0xCFD231),
	hex(0x48F90A), hex(0x92CC17), hex(0x3DDB86), hex(0x1A9334), hex(0x00D4BB),
	hex(0x2C99A8), hex(0x00C2FF), hex(0x344593), hex(0x6473FF), hex(0x0018EC),
	hex(0x8438FF), hex(0x520085), hex(0xCB38FF), hex(0xFF95C8), hex(0xFF37C7),
}

func hex(v uint32) color.NRGBA {
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
}

// ClassColor returns the overlay colour for a class id.
func ClassColor(classID int) color.NRGBA {
	if classID < 0 {
		classID = -classID
	}
	return palette[classID%len(palette)]
}

type Annotator struct {
	quality int
	face    font.Face
}

func New(jpegQuality int) *Annotator {
	return &Annotator{quality: jpegQuality, face: basicfont.Face7x13}
}

func (a *Annotator) Annotate(img image.Image, detections domain.DetectionSet) (*domain.EncodedImage, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", domain.ErrRenderFailure)
	}

	canvas := imaging.Clone(img)
	a.Draw(canvas, detections)

	data, err := codec.EncodeJPEG(canvas, a.quality)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailure, err)
	}

	return &domain.EncodedImage{MIMEType: mimeJPEG, Data: data}, nil
}

// Draw paints every detection onto canvas in place.
func (a *Annotator) Draw(canvas draw.Image, detections domain.DetectionSet) {
	b := canvas.Bounds()
	lw := lineWidth(b.Dx(), b.Dy())
	for _, d := range detections {
		c := ClassColor(d.ClassID)
		r := image.Rect(d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2).Add(b.Min)
		strokeRect(canvas, r, lw, c)
		a.drawLabel(canvas, r, fmt.Sprintf("%s %.2f", d.ClassName, d.Confidence), c)
	}
}

func lineWidth(w, h int) int {
	lw := int(math.Round(float64(w+h) / 2 * 0.003))
	if lw < 2 {
		lw = 2
	}
	return lw
}

func strokeRect(dst draw.Image, r image.Rectangle, lw int, c color.Color) {
	src := &image.Uniform{C: c}
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+lw),
		image.Rect(r.Min.X, r.Max.Y-lw, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+lw, r.Max.Y),
		image.Rect(r.Max.X-lw, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
	}
}

// drawLabel places the label above the box, or inside it when the box
// touches the top edge.
func (a *Annotator) drawLabel(dst draw.Image, box image.Rectangle, text string, bg color.Color) {
	const pad = 2
	m := a.face.Metrics()
	textW := font.MeasureString(a.face, text).Ceil()
	textH := m.Height.Ceil()

	top := box.Min.Y - textH - 2*pad
	if top < dst.Bounds().Min.Y {
		top = box.Min.Y
	}
	label := image.Rect(box.Min.X, top, box.Min.X+textW+2*pad, top+textH+2*pad)
	draw.Draw(dst, label.Intersect(dst.Bounds()), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: a.face,
		Dot:  fixed.P(label.Min.X+pad, label.Min.Y+pad+m.Ascent.Ceil()),
	}
	d.DrawString(text)
}
