// Package watermark draws outlined text stamps onto images.
package watermark

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
)

// DefaultFontSize is used when Options.FontSize is not positive.
const DefaultFontSize = 10

// OutlineColor is drawn behind the text so it stays readable on any background.
var OutlineColor = color.NRGBA{R: 0, G: 0, B: 0, A: 200}

var outlineOffsets = []image.Point{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}

// Options controls a single stamp. Margin is used as given, so 0 places the
// text flush against the edges; start from DefaultOptions for the 10 px
// default.
type Options struct {
	FontSize float64
	Color    color.NRGBA
	Position Position
	Margin   int
}

// DefaultOptions returns white text in the top-left corner at DefaultFontSize
// with DefaultMargin clearance.
func DefaultOptions() Options {
	return Options{
		FontSize: DefaultFontSize,
		Color:    DefaultColor,
		Position: TopLeft,
		Margin:   DefaultMargin,
	}
}

// Renderer stamps text onto images.
type Renderer struct {
	fonts FontProvider
}

// NewRenderer creates a Renderer drawing with faces from fonts.
func NewRenderer(fonts FontProvider) *Renderer {
	return &Renderer{fonts: fonts}
}

// Render returns a copy of src with text composited at opts.Position. The
// result keeps the color model of src; src itself is not modified.
func (r *Renderer) Render(src image.Image, text string, opts Options) (image.Image, error) {
	if src == nil {
		return nil, errors.New("nil source image")
	}
	if r.fonts == nil {
		return nil, ErrNoFont
	}
	size := opts.FontSize
	if size <= 0 {
		size = DefaultFontSize
	}
	face, err := r.fonts.Face(size)
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	defer face.Close()

	base := imaging.Clone(src)
	bounds := base.Bounds()
	overlay := image.NewNRGBA(bounds)

	pt := Anchor(bounds.Size(), MeasureText(face, text), opts.Position, opts.Margin)
	for _, off := range outlineOffsets {
		drawTextAt(overlay, face, pt.Add(off), text, OutlineColor)
	}
	drawTextAt(overlay, face, pt, text, opts.Color)

	draw.Draw(base, bounds, overlay, bounds.Min, draw.Over)
	return restoreModel(src, base), nil
}

func drawTextAt(dst draw.Image, face font.Face, p image.Point, text string, col color.NRGBA) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  dotFor(face, text, p),
	}
	d.DrawString(text)
}

// restoreModel converts the composited NRGBA image back to the pixel layout
// of orig. Sources that carry alpha are returned as NRGBA.
func restoreModel(orig image.Image, img *image.NRGBA) image.Image {
	b := img.Bounds()
	switch o := orig.(type) {
	case *image.Gray:
		dst := image.NewGray(b)
		draw.Draw(dst, b, img, b.Min, draw.Src)
		return dst
	case *image.Gray16:
		dst := image.NewGray16(b)
		draw.Draw(dst, b, img, b.Min, draw.Src)
		return dst
	case *image.CMYK:
		dst := image.NewCMYK(b)
		draw.Draw(dst, b, img, b.Min, draw.Src)
		return dst
	case *image.Paletted:
		dst := image.NewPaletted(b, o.Palette)
		draw.Draw(dst, b, img, b.Min, draw.Src)
		return dst
	case *image.YCbCr:
		return toYCbCr(img)
	default:
		return img
	}
}

// toYCbCr converts an opaque NRGBA image to full resolution YCbCr.
func toYCbCr(img *image.NRGBA) *image.YCbCr {
	b := img.Bounds()
	dst := image.NewYCbCr(b, image.YCbCrSubsampleRatio444)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			yy, cb, cr := color.RGBToYCbCr(c.R, c.G, c.B)
			dst.Y[dst.YOffset(x, y)] = yy
			ci := dst.COffset(x, y)
			dst.Cb[ci] = cb
			dst.Cr[ci] = cr
		}
	}
	return dst
}
