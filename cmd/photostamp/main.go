package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"photostamp/internal/config"
	"photostamp/pkg/batch"
	"photostamp/pkg/exifdate"
	"photostamp/pkg/logger"
	"photostamp/pkg/watermark"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photostamp <image-or-directory>",
		Short: "Stamp photos with their capture date",
		Long: `Stamp photos with the date they were taken, read from EXIF
(DateTimeOriginal, then DateTime) or from the file modification time.
Stamped copies keep their file name and format and are written to a
subdirectory next to the input.

Example:
  photostamp ./holiday --position bottom-right --color "#FFD700" --font-size 32`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.OutOrStdout(), args[0], cfg)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(w io.Writer, path string, cfg *config.Config) error {
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	input := expandHome(path)
	if _, err := os.Stat(input); err != nil {
		fmt.Fprintln(w, "Path not found:", input)
		return nil
	}

	targets := batch.Gather(input)
	if len(targets) == 0 {
		fmt.Fprintln(w, "No supported images found. Supported extensions:", batch.SupportedList())
		return nil
	}

	fonts := watermark.NewSystemFonts(cfg.FontPath, log)
	face, err := fonts.Face(float64(cfg.FontSize))
	if err != nil {
		return fmt.Errorf("cannot load a font, install one or pass --font: %w", err)
	}
	face.Close()

	outDir := batch.OutputDir(input, cfg.OutSubdir)
	fmt.Fprintf(w, "Found %d images. Output dir: %s\n", len(targets), outDir)

	opts := watermark.Options{
		FontSize: float64(cfg.FontSize),
		Color:    watermark.ParseColor(cfg.Color),
		Position: watermark.ParsePosition(cfg.Position),
		Margin:   cfg.Margin,
	}
	log.Debug("starting batch",
		zap.String("input", input),
		zap.Int("targets", len(targets)),
		zap.String("position", string(opts.Position)),
	)

	driver := batch.NewDriver(
		exifdate.NewResolver(exifdate.ExifReader{}),
		batch.ImagingCodec{},
		watermark.NewRenderer(fonts),
		log,
	)
	results, summary := driver.RunFiles(targets, outDir, opts)
	for _, r := range results {
		fmt.Fprintf(w, "%s -> %s\n", filepath.Base(r.Source), r.Message)
	}
	fmt.Fprintf(w, "Done. %s processed.\n", summary)
	return nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
