package exifdate

import (
	"fmt"
	"os"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// ExifReader reads EXIF blocks from JPEG and TIFF based files.
type ExifReader struct{}

// Read opens path and decodes its EXIF block. Files without EXIF, or with an
// unreadable one, yield ErrNoMetadata.
func (ExifReader) Read(path string) (Tags, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, fmt.Errorf("%w: %v", ErrNoMetadata, err)
	}
	return exifTags{x: x}, nil
}

type exifTags struct {
	x *exif.Exif
}

func (t exifTags) Lookup(name string) ([]byte, bool) {
	tag, err := t.x.Get(exif.FieldName(name))
	if err != nil || tag == nil {
		return nil, false
	}
	return tag.Val, true
}
