package watermark

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// ErrNoFont is returned when no usable font could be obtained.
var ErrNoFont = errors.New("no usable font")

// FontProvider returns faces for drawing and measuring text. Size is in
// points at 72 DPI, so one point is one pixel.
type FontProvider interface {
	Face(size float64) (font.Face, error)
}

// DefaultFontCandidates are tried, in order, when no font path is configured.
var DefaultFontCandidates = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/Library/Fonts/Arial.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
	"C:\\Windows\\Fonts\\arial.ttf",
}

// SystemFonts loads Path if set, otherwise the first existing file among
// Candidates, and falls back to the embedded Go Regular font. The zero value
// uses the embedded font only.
type SystemFonts struct {
	Path       string
	Candidates []string
	Log        *zap.Logger

	once   sync.Once
	parsed *opentype.Font
	err    error
}

// NewSystemFonts returns a provider that looks at path first and then at the
// DefaultFontCandidates.
func NewSystemFonts(path string, log *zap.Logger) *SystemFonts {
	return &SystemFonts{
		Path:       path,
		Candidates: DefaultFontCandidates,
		Log:        log,
	}
}

// Face returns a face of the given size. The font file is parsed once.
func (s *SystemFonts) Face(size float64) (font.Face, error) {
	s.once.Do(func() {
		s.parsed, s.err = s.load()
	})
	if s.err != nil {
		return nil, s.err
	}
	face, err := opentype.NewFace(s.parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	return face, nil
}

func (s *SystemFonts) load() (*opentype.Font, error) {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(s.Path) != "" {
		f, err := parseFontFile(s.Path)
		if err == nil {
			return f, nil
		}
		log.Warn("failed to load font, falling back", zap.String("path", s.Path), zap.Error(err))
	}
	if p := firstExistingFontPath(s.Candidates); p != "" {
		f, err := parseFontFile(p)
		if err == nil {
			log.Debug("using system font", zap.String("path", p))
			return f, nil
		}
		log.Warn("failed to load system font, using Go Regular", zap.String("path", p), zap.Error(err))
	}
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFont, err)
	}
	return f, nil
}

func parseFontFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return opentype.Parse(data)
}

func firstExistingFontPath(candidates []string) string {
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
