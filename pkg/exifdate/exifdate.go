// Package exifdate resolves the capture date of an image file, preferring
// embedded EXIF timestamps and falling back to the file modification time.
package exifdate

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Layout is the format of a resolved date stamp.
const Layout = "2006-01-02"

// Tag names looked up in the metadata container, in priority order.
const (
	TagDateTimeOriginal = "DateTimeOriginal"
	TagDateTime         = "DateTime"
)

// ErrNoMetadata reports that a file carries no readable metadata container.
// It is an expected outcome and never surfaced to callers of Resolve.
var ErrNoMetadata = errors.New("exifdate: no metadata")

// Tags exposes raw tag values of a decoded metadata container.
type Tags interface {
	Lookup(name string) ([]byte, bool)
}

// Reader opens the metadata container of the file at path. Implementations
// return ErrNoMetadata (possibly wrapped) when the container is missing or
// corrupt, and any other error for failures reading the file itself.
type Reader interface {
	Read(path string) (Tags, error)
}

// valueLayouts are tried in order against a raw tag value.
var valueLayouts = []string{
	"2006:01:02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Strategy extracts a date stamp from a metadata container.
type Strategy func(Tags) (string, bool)

// FromTag returns a Strategy reading the named tag.
func FromTag(name string) Strategy {
	return func(tags Tags) (string, bool) {
		raw, ok := tags.Lookup(name)
		if !ok {
			return "", false
		}
		return ParseValue(raw)
	}
}

// DefaultStrategies is the lookup order used by NewResolver.
var DefaultStrategies = []Strategy{
	FromTag(TagDateTimeOriginal),
	FromTag(TagDateTime),
}

// ParseValue decodes a raw tag value and formats it as a date stamp. Invalid
// UTF-8 sequences are dropped and trailing NUL padding is ignored.
func ParseValue(raw []byte) (string, bool) {
	s := strings.ToValidUTF8(string(raw), "")
	s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
	if s == "" {
		return "", false
	}
	for _, layout := range valueLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(Layout), true
		}
	}
	return "", false
}

// Resolver runs the metadata strategies and the modification-time fallback.
type Resolver struct {
	reader     Reader
	strategies []Strategy
	loc        *time.Location
}

// NewResolver returns a Resolver using the DefaultStrategies. A nil reader
// means metadata is unavailable and every date comes from the file mtime.
func NewResolver(reader Reader) *Resolver {
	return &Resolver{
		reader:     reader,
		strategies: DefaultStrategies,
		loc:        time.Local,
	}
}

// WithStrategies replaces the strategy chain.
func (r *Resolver) WithStrategies(s ...Strategy) *Resolver {
	r.strategies = s
	return r
}

// WithLocation sets the zone modification times are formatted in.
func (r *Resolver) WithLocation(loc *time.Location) *Resolver {
	r.loc = loc
	return r
}

// MetadataDate returns the date stamp found in the embedded metadata of path.
// The bool is false when no strategy produced a date. Only unexpected read
// errors are returned.
func (r *Resolver) MetadataDate(path string) (string, bool, error) {
	if r.reader == nil {
		return "", false, nil
	}
	tags, err := r.reader.Read(path)
	if err != nil {
		if errors.Is(err, ErrNoMetadata) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read metadata %s: %w", path, err)
	}
	for _, s := range r.strategies {
		if date, ok := s(tags); ok {
			return date, true, nil
		}
	}
	return "", false, nil
}

// Resolve returns the date stamp for path, using the file modification time
// when the metadata has no usable date.
func (r *Resolver) Resolve(path string) (string, error) {
	date, ok, err := r.MetadataDate(path)
	if err != nil {
		return "", err
	}
	if ok {
		return date, nil
	}
	return r.ModTimeDate(path)
}

// ModTimeDate formats the modification time of path as a date stamp.
func (r *Resolver) ModTimeDate(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	loc := r.loc
	if loc == nil {
		loc = time.Local
	}
	return info.ModTime().In(loc).Format(Layout), nil
}
