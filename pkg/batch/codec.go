package batch

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
)

// Codec reads and writes images on disk.
type Codec interface {
	Decode(path string) (image.Image, error)
	Encode(img image.Image, path string) error
}

// ImagingCodec picks the encoder from the output file extension. JPEG output
// uses JPEGQuality, 95 when unset. WebP output is lossless VP8L.
type ImagingCodec struct {
	JPEGQuality int
}

// Decode reads the image at path without applying EXIF orientation.
func (c ImagingCodec) Decode(path string) (image.Image, error) {
	return imaging.Open(path)
}

// Encode writes img to path in the format implied by its extension.
func (c ImagingCodec) Encode(img image.Image, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		return saveWebP(img, path)
	}
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return fmt.Errorf("no encoder for %s: %w", path, err)
	}
	q := c.JPEGQuality
	if q <= 0 {
		q = 95
	}
	return imaging.Save(img, path, imaging.JPEGQuality(q))
}

func saveWebP(img image.Image, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	// nativewebp drops write errors; Flush reports them.
	w := bufio.NewWriter(f)
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("encode webp: %w", err)
	}
	return w.Flush()
}
