// Package batch stamps every supported image found at an input path and
// writes the results into an output subdirectory.
package batch

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"photostamp/pkg/watermark"
)

// Failure classes carried by failed results.
var (
	ErrDecode = errors.New("decode failed")
	ErrRender = errors.New("render failed")
	ErrWrite  = errors.New("write failed")
)

// SupportedExts are the file extensions considered for processing.
var SupportedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tiff": true,
	".tif":  true,
	".webp": true,
	".bmp":  true,
}

// SupportedList returns the supported extensions sorted and comma separated.
func SupportedList() string {
	exts := make([]string, 0, len(SupportedExts))
	for e := range SupportedExts {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return strings.Join(exts, ",")
}

// Supported reports whether path has a supported extension.
func Supported(path string) bool {
	return SupportedExts[strings.ToLower(filepath.Ext(path))]
}

// Gather lists the files to process. A directory contributes its direct
// regular-file children with a supported extension, in lexicographic order.
// A single file is returned if supported. Anything else yields nothing.
func Gather(input string) []string {
	info, err := os.Stat(input)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		if info.Mode().IsRegular() && Supported(input) {
			return []string{input}
		}
		return nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		p := filepath.Join(input, e.Name())
		if fi, err := os.Stat(p); err != nil || !fi.Mode().IsRegular() {
			continue
		}
		files = append(files, p)
	}
	sort.Strings(files)
	return files
}

// OutputDir is subdir inside input when input is a directory, otherwise
// inside the directory containing input.
func OutputDir(input, subdir string) string {
	base := filepath.Dir(input)
	if info, err := os.Stat(input); err == nil && info.IsDir() {
		base = input
	}
	return filepath.Join(base, subdir)
}

// Result is the outcome for one file. Path is the written file on success
// and the source file on failure.
type Result struct {
	Source  string
	Path    string
	OK      bool
	Message string
	Err     error
}

// Summary aggregates a run.
type Summary struct {
	Total     int
	Succeeded int
}

// Summarize counts the successful results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.OK {
			s.Succeeded++
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d/%d", s.Succeeded, s.Total)
}

// DateResolver returns the date stamp of an image file.
type DateResolver interface {
	Resolve(path string) (string, error)
}

// Stamper draws text onto an image.
type Stamper interface {
	Render(src image.Image, text string, opts watermark.Options) (image.Image, error)
}

// Driver runs the per-file pipeline: resolve date, decode, stamp, write.
type Driver struct {
	dates DateResolver
	codec Codec
	stamp Stamper
	log   *zap.Logger
}

// NewDriver wires a Driver. A nil log discards log output.
func NewDriver(dates DateResolver, codec Codec, stamp Stamper, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{dates: dates, codec: codec, stamp: stamp, log: log}
}

// Run processes the targets of input in order and returns one Result per
// file. Failures are recorded and never stop the batch.
func (d *Driver) Run(input, outSubdir string, opts watermark.Options) ([]Result, Summary) {
	targets := Gather(input)
	if len(targets) == 0 {
		return nil, Summary{}
	}
	return d.RunFiles(targets, OutputDir(input, outSubdir), opts)
}

// RunFiles processes the given files into outDir.
func (d *Driver) RunFiles(files []string, outDir string, opts watermark.Options) ([]Result, Summary) {
	results := make([]Result, 0, len(files))
	for _, f := range files {
		results = append(results, d.Process(f, outDir, opts))
	}
	return results, Summarize(results)
}

// Process stamps a single file into outDir.
func (d *Driver) Process(path, outDir string, opts watermark.Options) Result {
	log := d.log.With(zap.String("file", path))

	out, err := d.process(path, outDir, opts)
	if err != nil {
		log.Warn("processing failed", zap.Error(err))
		return Result{Source: path, Path: path, Message: "Error: " + err.Error(), Err: err}
	}
	log.Debug("saved", zap.String("output", out))
	return Result{Source: path, Path: out, OK: true, Message: "Saved -> " + out}
}

func (d *Driver) process(path, outDir string, opts watermark.Options) (string, error) {
	date, err := d.dates.Resolve(path)
	if err != nil {
		return "", fmt.Errorf("resolve date: %w", err)
	}
	img, err := d.codec.Decode(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	marked, err := d.stamp.Render(img, date, opts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	out := filepath.Join(outDir, filepath.Base(path))
	if err := d.codec.Encode(marked, out); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return out, nil
}
