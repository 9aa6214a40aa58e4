// Package main provides a command line front end to the conversion engine.
//
// Usage:
//
//	convert -in photo.png -tool compress-image -quality 0.6 -out ./out
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/maauso/mediaconvert-api/internal/bootstrap"
	"github.com/maauso/mediaconvert-api/internal/config"
	"github.com/maauso/mediaconvert-api/internal/convert"
	"github.com/maauso/mediaconvert-api/internal/dispatch"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func run() error {
	in := flag.String("in", "", "Input file (required)")
	tool := flag.String("tool", "", "Tool id, e.g. rotate-image (required)")
	category := flag.String("category", "", "Category; derived from the file type when empty")
	format := flag.String("format", "", "Output format for convert-image: png, jpeg or webp")
	quality := flag.Float64("quality", 0, "Lossy quality in (0,1]")
	start := flag.String("start", "", "Video start time, HH:MM:SS[.ms] or seconds")
	duration := flag.Float64("duration", 0, "Video clip length in seconds")
	outDir := flag.String("out", ".", "Output directory")
	flag.Parse()

	if *in == "" || *tool == "" {
		flag.Usage()
		return fmt.Errorf("%w: -in and -tool are required", errUsage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// The CLI loads the video engine on demand.
	cfg.VideoAutoload = false

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	file, err := convert.OpenInputFile(*in)
	if err != nil {
		return err
	}

	cat := convert.CategoryID(*category)
	if cat == "" {
		cat = categoryOf(file.MimeType)
	}

	deps, err := bootstrap.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	defer func() {
		_ = deps.Close()
	}()

	if cat == convert.CategoryVideo && convert.ToolID(*tool) != dispatch.VideoBase64Tool {
		if err := deps.Runtime.Load(ctx); err != nil {
			return fmt.Errorf("load video engine: %w", err)
		}
	}

	opts := convert.Options{
		OutputFormat: convert.Format(*format),
		Quality:      *quality,
		Video: convert.VideoOptions{
			StartTime: *start,
			Duration:  convert.Seconds(*duration),
		},
	}

	result, err := deps.Dispatcher.Convert(ctx, file, convert.ToolID(*tool), cat, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", convert.UserMessage(err), err)
	}

	if err := os.MkdirAll(*outDir, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	outPath := filepath.Join(*outDir, result.Name)
	if err := os.WriteFile(outPath, result.Blob, 0o600); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	fmt.Printf("%s -> %s (%s, %d bytes)\n", result.OriginalName, outPath, result.Type, result.Size)
	if result.Message != "" {
		fmt.Println(result.Message)
	}
	if result.Placeholder {
		fmt.Println("note: output is placeholder content, not a real conversion")
	}
	return nil
}

// categoryOf maps a media type to the category of its engine.
func categoryOf(mimeType string) convert.CategoryID {
	switch {
	case convert.HasClass(mimeType, convert.ClassImage):
		return convert.CategoryImage
	case convert.HasClass(mimeType, convert.ClassVideo):
		return convert.CategoryVideo
	default:
		return "other"
	}
}
