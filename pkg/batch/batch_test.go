package batch

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"photostamp/internal/fixture"
	"photostamp/pkg/exifdate"
	"photostamp/pkg/watermark"
)

var (
	sky  = color.NRGBA{R: 70, G: 130, B: 180, A: 255}
	opts = watermark.Options{FontSize: 14, Color: watermark.ParseColor("#FFFFFF"), Position: watermark.BottomRight, Margin: watermark.DefaultMargin}
)

func newTestDriver() *Driver {
	return NewDriver(
		exifdate.NewResolver(exifdate.ExifReader{}),
		ImagingCodec{},
		watermark.NewRenderer(&watermark.SystemFonts{}),
		nil,
	)
}

func touch(t *testing.T, path string) string {
	t.Helper()
	return fixture.Write(t, path, []byte("x"))
}

func TestGather(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.JPG"))
	touch(t, filepath.Join(dir, "a.png"))
	touch(t, filepath.Join(dir, "e.webp"))
	touch(t, filepath.Join(dir, "c.txt"))
	touch(t, filepath.Join(dir, "noext"))
	if err := os.Mkdir(filepath.Join(dir, "d.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(dir, "nested", "deep.png"))

	want := []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.JPG"),
		filepath.Join(dir, "e.webp"),
	}
	if got := Gather(dir); !reflect.DeepEqual(got, want) {
		t.Errorf("Gather(dir) = %v, want %v", got, want)
	}

	single := filepath.Join(dir, "a.png")
	if got := Gather(single); !reflect.DeepEqual(got, []string{single}) {
		t.Errorf("Gather(file) = %v", got)
	}
	if got := Gather(filepath.Join(dir, "c.txt")); len(got) != 0 {
		t.Errorf("Gather(unsupported) = %v", got)
	}
	if got := Gather(filepath.Join(dir, "missing.jpg")); len(got) != 0 {
		t.Errorf("Gather(missing) = %v", got)
	}
}

func TestSupportedExtensions(t *testing.T) {
	for _, name := range []string{"a.jpg", "a.JPEG", "a.png", "a.tiff", "a.TIF", "a.webp", "a.bmp"} {
		if !Supported(name) {
			t.Errorf("Supported(%q) = false", name)
		}
	}
	for _, name := range []string{"a.gif", "a.txt", "a", "jpg"} {
		if Supported(name) {
			t.Errorf("Supported(%q) = true", name)
		}
	}
	if got := SupportedList(); got != ".bmp,.jpeg,.jpg,.png,.tif,.tiff,.webp" {
		t.Errorf("SupportedList() = %q", got)
	}
}

func TestOutputDir(t *testing.T) {
	dir := t.TempDir()
	file := touch(t, filepath.Join(dir, "a.jpg"))

	if got, want := OutputDir(dir, "_watermark"), filepath.Join(dir, "_watermark"); got != want {
		t.Errorf("OutputDir(dir) = %q, want %q", got, want)
	}
	if got, want := OutputDir(file, "_watermark"), filepath.Join(dir, "_watermark"); got != want {
		t.Errorf("OutputDir(file) = %q, want %q", got, want)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	fixture.Write(t, filepath.Join(dir, "1.png"), fixture.PNG(t, fixture.Solid(120, 60, sky)))
	fixture.Write(t, filepath.Join(dir, "2.png"), []byte("\x89PNG but not really"))
	exif := &fixture.Exif{Sub: []fixture.Tag{{ID: fixture.TagDateTimeOriginal, Value: "2023:05:17 10:00:00"}}}
	fixture.Write(t, filepath.Join(dir, "3.jpg"), fixture.JPEG(t, fixture.Solid(120, 60, sky), exif))

	results, summary := newTestDriver().Run(dir, "_watermark", opts)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if summary != (Summary{Total: 3, Succeeded: 2}) || summary.String() != "2/3" {
		t.Errorf("summary = %+v", summary)
	}

	outDir := filepath.Join(dir, "_watermark")
	for i, want := range []bool{true, false, true} {
		if results[i].OK != want {
			t.Errorf("result %d OK = %v, want %v (%s)", i, results[i].OK, want, results[i].Message)
		}
	}
	if !errors.Is(results[1].Err, ErrDecode) {
		t.Errorf("result 2 err = %v, want ErrDecode", results[1].Err)
	}
	if results[1].Path != filepath.Join(dir, "2.png") {
		t.Errorf("failed result path = %q, want source path", results[1].Path)
	}
	for _, name := range []string{"1.png", "3.jpg"} {
		out := filepath.Join(outDir, name)
		img, err := imaging.Open(out)
		if err != nil {
			t.Fatalf("open %s: %v", out, err)
		}
		if img.Bounds().Size() != image.Pt(120, 60) {
			t.Errorf("%s size = %v", name, img.Bounds().Size())
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "2.png")); !os.IsNotExist(err) {
		t.Errorf("failed file should not be written, stat err = %v", err)
	}
	if results[2].Message != "Saved -> "+filepath.Join(outDir, "3.jpg") {
		t.Errorf("message = %q", results[2].Message)
	}
}

func TestRunWithoutTargets(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "todo.txt"))

	results, summary := newTestDriver().Run(dir, "_watermark", opts)
	if len(results) != 0 || summary.Total != 0 {
		t.Fatalf("got %d results, summary %+v", len(results), summary)
	}
	if _, err := os.Stat(filepath.Join(dir, "_watermark")); !os.IsNotExist(err) {
		t.Errorf("output dir should not exist, stat err = %v", err)
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := fixture.Write(t, filepath.Join(dir, "a.png"), fixture.PNG(t, fixture.Solid(100, 50, sky)))
	mt := time.Date(2021, 8, 9, 10, 0, 0, 0, time.Local)
	if err := os.Chtimes(src, mt, mt); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out", "nested")
	d := newTestDriver()

	read := func() []byte {
		r := d.Process(src, outDir, opts)
		if !r.OK {
			t.Fatalf("Process: %s", r.Message)
		}
		b, err := os.ReadFile(r.Path)
		if err != nil {
			t.Fatal(err)
		}
		return b
	}
	if !bytes.Equal(read(), read()) {
		t.Fatal("second run produced different output")
	}
}

func TestProcessKeepsGrayscale(t *testing.T) {
	dir := t.TempDir()
	g := image.NewGray(image.Rect(0, 0, 100, 40))
	for i := range g.Pix {
		g.Pix[i] = 60
	}
	src := fixture.Write(t, filepath.Join(dir, "gray.png"), fixture.PNG(t, g))

	r := newTestDriver().Process(src, filepath.Join(dir, "_watermark"), opts)
	if !r.OK {
		t.Fatalf("Process: %s", r.Message)
	}
	out, err := imaging.Open(r.Path)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out.(*image.Gray); !ok {
		t.Errorf("output decoded as %T, want *image.Gray", out)
	}
}

type fakeDates struct{ err error }

func (f fakeDates) Resolve(string) (string, error) { return "2020-01-01", f.err }

type fakeCodec struct {
	decodeErr error
	encodeErr error
}

func (f fakeCodec) Decode(string) (image.Image, error) {
	if f.decodeErr != nil {
		return nil, f.decodeErr
	}
	return image.NewGray(image.Rect(0, 0, 10, 10)), nil
}

func (f fakeCodec) Encode(image.Image, string) error { return f.encodeErr }

type fakeStamper struct{ err error }

func (f fakeStamper) Render(src image.Image, _ string, _ watermark.Options) (image.Image, error) {
	return src, f.err
}

func TestProcessErrorClasses(t *testing.T) {
	dir := t.TempDir()
	src := touch(t, filepath.Join(dir, "a.jpg"))
	blocker := touch(t, filepath.Join(dir, "blocker"))
	boom := errors.New("boom")

	tests := []struct {
		name   string
		driver *Driver
		outDir string
		want   error
	}{
		{"date", NewDriver(fakeDates{err: boom}, fakeCodec{}, fakeStamper{}, nil), dir, boom},
		{"decode", NewDriver(fakeDates{}, fakeCodec{decodeErr: boom}, fakeStamper{}, nil), dir, ErrDecode},
		{"render", NewDriver(fakeDates{}, fakeCodec{}, fakeStamper{err: boom}, nil), dir, ErrRender},
		{"mkdir", NewDriver(fakeDates{}, fakeCodec{}, fakeStamper{}, nil), filepath.Join(blocker, "out"), ErrWrite},
		{"encode", NewDriver(fakeDates{}, fakeCodec{encodeErr: boom}, fakeStamper{}, nil), dir, ErrWrite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.driver.Process(src, tt.outDir, opts)
			if r.OK {
				t.Fatal("expected failure")
			}
			if !errors.Is(r.Err, tt.want) {
				t.Errorf("err = %v, want %v", r.Err, tt.want)
			}
			if r.Path != src {
				t.Errorf("path = %q, want source", r.Path)
			}
		})
	}
}

func TestProcessWritesWebP(t *testing.T) {
	dir := t.TempDir()
	src := fixture.Write(t, filepath.Join(dir, "a.webp"), fixture.WebP(t, fixture.Solid(120, 60, sky)))

	r := newTestDriver().Process(src, filepath.Join(dir, "_watermark"), opts)
	if !r.OK {
		t.Fatalf("Process: %s", r.Message)
	}
	if want := filepath.Join(dir, "_watermark", "a.webp"); r.Path != want {
		t.Fatalf("path = %q, want %q", r.Path, want)
	}
	out, err := imaging.Open(r.Path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	if out.Bounds().Size() != image.Pt(120, 60) {
		t.Fatalf("size = %v", out.Bounds().Size())
	}
	if got := color.NRGBAModel.Convert(out.At(0, 0)); got != sky {
		t.Errorf("untouched corner = %v, want %v", got, sky)
	}
	stamped := false
	for y := 30; y < 60 && !stamped; y++ {
		for x := 60; x < 120; x++ {
			if color.NRGBAModel.Convert(out.At(x, y)) != sky {
				stamped = true
				break
			}
		}
	}
	if !stamped {
		t.Error("no stamp in the bottom-right quadrant")
	}
}

func TestImagingCodecRejectsUnknownEncoder(t *testing.T) {
	err := ImagingCodec{}.Encode(image.NewGray(image.Rect(0, 0, 2, 2)), filepath.Join(t.TempDir(), "a.txt"))
	if !errors.Is(err, imaging.ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}
