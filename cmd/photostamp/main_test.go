package main

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"photostamp/internal/fixture"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestRunReportsEveryFile(t *testing.T) {
	dir := t.TempDir()
	fixture.Write(t, filepath.Join(dir, "a.png"), fixture.PNG(t, fixture.Solid(80, 40, color.NRGBA{20, 40, 60, 255})))
	fixture.Write(t, filepath.Join(dir, "b.jpg"), []byte("broken"))
	fixture.Write(t, filepath.Join(dir, "readme.txt"), []byte("skip me"))

	out := execute(t, dir, "--out-subdir", "stamped", "--position", "c", "--log-level", "error")

	outDir := filepath.Join(dir, "stamped")
	for _, want := range []string{
		"Found 2 images. Output dir: " + outDir,
		"a.png -> Saved -> " + filepath.Join(outDir, "a.png"),
		"b.jpg -> Error: decode failed",
		"Done. 1/2 processed.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "a.png")); err != nil {
		t.Errorf("stamped file missing: %v", err)
	}
}

func TestRunMissingPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	out := execute(t, missing)
	if !strings.Contains(out, "Path not found: "+missing) {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRunNoSupportedImages(t *testing.T) {
	dir := t.TempDir()
	fixture.Write(t, filepath.Join(dir, "notes.txt"), []byte("x"))

	out := execute(t, dir)
	if !strings.Contains(out, "No supported images found") || !strings.Contains(out, ".jpg") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "_watermark")); !os.IsNotExist(err) {
		t.Errorf("output dir created, stat err = %v", err)
	}
}

func TestRejectsInvalidConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{t.TempDir(), "--font-size", "0"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for font size 0")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/pics"); got != filepath.Join(home, "pics") {
		t.Errorf("expandHome(~/pics) = %q", got)
	}
	if got := expandHome("/abs/~x"); got != "/abs/~x" {
		t.Errorf("expandHome left path = %q", got)
	}
}
