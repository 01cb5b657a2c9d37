// Package fixture builds small in-memory images for tests, including JPEGs
// carrying an EXIF block with ASCII date tags.
package fixture

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"testing"

	"github.com/HugoSmits86/nativewebp"
)

// EXIF tag ids used by the fixtures.
const (
	TagDateTime         uint16 = 0x0132
	TagExifIFDPointer   uint16 = 0x8769
	TagDateTimeOriginal uint16 = 0x9003
)

// Tag is an ASCII EXIF tag.
type Tag struct {
	ID    uint16
	Value string
}

// Exif is the content of an EXIF block: tags stored in IFD0 and tags stored
// in the Exif sub-IFD.
type Exif struct {
	IFD0 []Tag
	Sub  []Tag
}

// Solid returns an opaque NRGBA image filled with c.
func Solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// PNG encodes img as PNG.
func PNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// WebP encodes img as lossless WebP.
func WebP(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode webp: %v", err)
	}
	return buf.Bytes()
}

// JPEG encodes img as JPEG and, when x is non-nil, inserts an APP1 EXIF
// segment right after the SOI marker.
func JPEG(t testing.TB, img image.Image, x *Exif) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	data := buf.Bytes()
	if x == nil {
		return data
	}
	payload := append([]byte("Exif\x00\x00"), x.tiff()...)
	seg := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	seg = append(seg, payload...)

	out := make([]byte, 0, len(data)+len(seg))
	out = append(out, data[:2]...)
	out = append(out, seg...)
	out = append(out, data[2:]...)
	return out
}

// Write stores data at path.
func Write(t testing.TB, path string, data []byte) string {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

type ifdEntry struct {
	id    uint16
	typ   uint16
	count uint32
	value []byte
}

// tiff lays out a little-endian TIFF structure: header, IFD0, the optional
// Exif sub-IFD, then out-of-line values.
func (x *Exif) tiff() []byte {
	le := binary.LittleEndian

	ifd0 := asciiEntries(x.IFD0)
	sub := asciiEntries(x.Sub)
	if len(sub) > 0 {
		ifd0 = append(ifd0, ifdEntry{id: TagExifIFDPointer, typ: 4, count: 1, value: make([]byte, 4)})
	}

	ifdSize := func(n int) int { return 2 + 12*n + 4 }
	ifd0Off := 8
	subOff := ifd0Off + ifdSize(len(ifd0))
	dataOff := subOff
	if len(sub) > 0 {
		dataOff += ifdSize(len(sub))
		le.PutUint32(ifd0[len(ifd0)-1].value, uint32(subOff))
	}

	var data []byte
	writeIFD := func(entries []ifdEntry) []byte {
		b := make([]byte, ifdSize(len(entries)))
		le.PutUint16(b, uint16(len(entries)))
		for i, e := range entries {
			p := b[2+12*i:]
			le.PutUint16(p[0:], e.id)
			le.PutUint16(p[2:], e.typ)
			le.PutUint32(p[4:], e.count)
			if len(e.value) <= 4 {
				copy(p[8:12], e.value)
				continue
			}
			le.PutUint32(p[8:], uint32(dataOff+len(data)))
			data = append(data, e.value...)
		}
		return b
	}

	out := []byte{'I', 'I', 0x2A, 0x00, 0, 0, 0, 0}
	le.PutUint32(out[4:], uint32(ifd0Off))
	out = append(out, writeIFD(ifd0)...)
	if len(sub) > 0 {
		out = append(out, writeIFD(sub)...)
	}
	return append(out, data...)
}

func asciiEntries(tags []Tag) []ifdEntry {
	entries := make([]ifdEntry, 0, len(tags))
	for _, t := range tags {
		v := append([]byte(t.Value), 0)
		entries = append(entries, ifdEntry{id: t.ID, typ: 2, count: uint32(len(v)), value: v})
	}
	return entries
}
