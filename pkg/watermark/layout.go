package watermark

import (
	"image"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// DefaultMargin is the clearance in pixels between the text and the image edges.
const DefaultMargin = 10

// Position defines the watermark position.
type Position string

const (
	BottomRight Position = "bottom-right"
	BottomLeft  Position = "bottom-left"
	TopRight    Position = "top-right"
	TopLeft     Position = "top-left"
	Center      Position = "center"
)

var positionAliases = map[string]Position{
	"top-left":     TopLeft,
	"tl":           TopLeft,
	"top-right":    TopRight,
	"tr":           TopRight,
	"bottom-left":  BottomLeft,
	"bl":           BottomLeft,
	"bottom-right": BottomRight,
	"br":           BottomRight,
	"center":       Center,
	"c":            Center,
}

// ParsePosition maps a placement name or its short alias to a Position.
// Unknown names resolve to TopLeft.
func ParsePosition(s string) Position {
	if p, ok := positionAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p
	}
	return TopLeft
}

// Anchor returns the top-left corner of a text box of size text placed at
// pos inside an image of size img, keeping margin pixels from the edges it
// is aligned to.
func Anchor(img, text image.Point, pos Position, margin int) image.Point {
	right := img.X - text.X - margin
	bottom := img.Y - text.Y - margin

	switch pos {
	case TopRight:
		return image.Pt(right, margin)
	case BottomLeft:
		return image.Pt(margin, bottom)
	case BottomRight:
		return image.Pt(right, bottom)
	case Center:
		return image.Pt((img.X-text.X)/2, (img.Y-text.Y)/2)
	default:
		return image.Pt(margin, margin)
	}
}

// MeasureText returns the pixel size of the tight bounding box of text
// rendered with face.
func MeasureText(face font.Face, text string) image.Point {
	return inkBounds(face, text).Size()
}

// inkBounds is the integer pixel box covered by text when drawn with the dot
// at the origin. Min.Y is usually negative (above the baseline).
func inkBounds(face font.Face, text string) image.Rectangle {
	b, _ := font.BoundString(face, text)
	if b.Empty() {
		return image.Rectangle{}
	}
	return image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil())
}

// dotFor returns the baseline origin that puts the ink box of text at p.
func dotFor(face font.Face, text string, p image.Point) fixed.Point26_6 {
	ink := inkBounds(face, text)
	return fixed.P(p.X-ink.Min.X, p.Y-ink.Min.Y)
}
