package watermark

import (
	"encoding/hex"
	"errors"
	"fmt"
	"image/color"
	"strings"

	"golang.org/x/image/colornames"
)

// DefaultColor is used when a color spec cannot be parsed.
var DefaultColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// ParseColor accepts a CSS color name or a hex spec (#rgb, #rgba, #rrggbb or
// #rrggbbaa, '#' optional) and returns it as NRGBA. Anything unparseable
// yields opaque white.
func ParseColor(s string) color.NRGBA {
	c, err := parseColor(s)
	if err != nil {
		return DefaultColor
	}
	return c
}

func parseColor(s string) (color.NRGBA, error) {
	str := strings.ToLower(strings.TrimSpace(s))
	if str == "" {
		return color.NRGBA{}, errors.New("color must not be empty")
	}
	if c, ok := colornames.Map[str]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}, nil
	}
	return parseHexColor(str)
}

func parseHexColor(s string) (color.NRGBA, error) {
	str := strings.TrimPrefix(s, "#")
	switch len(str) {
	case 3, 4:
		long := make([]byte, 0, 2*len(str))
		for i := 0; i < len(str); i++ {
			long = append(long, str[i], str[i])
		}
		str = string(long)
	case 6, 8:
	default:
		return color.NRGBA{}, fmt.Errorf("invalid color format: %q", s)
	}

	b, err := hex.DecodeString(str)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color format: %q", s)
	}
	c := color.NRGBA{R: b[0], G: b[1], B: b[2], A: 255}
	if len(b) == 4 {
		c.A = b[3]
	}
	return c, nil
}
