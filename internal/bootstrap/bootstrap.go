// Package bootstrap provides dependency initialization shared by the HTTP
// server and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maauso/mediaconvert-api/internal/config"
	"github.com/maauso/mediaconvert-api/internal/dispatch"
	"github.com/maauso/mediaconvert-api/internal/fallback"
	"github.com/maauso/mediaconvert-api/internal/libvips"
	"github.com/maauso/mediaconvert-api/internal/media"
	"github.com/maauso/mediaconvert-api/internal/metrics"
	"github.com/maauso/mediaconvert-api/internal/storage"
	"github.com/maauso/mediaconvert-api/internal/transcode"
)

// Dependencies holds all initialized dependencies of a process.
type Dependencies struct {
	Dispatcher *dispatch.Dispatcher
	Runtime    *transcode.Runtime
	Storage    storage.Storage

	closers []func() error
}

// NewDependencies creates and initializes all dependencies for the application.
// When cfg.VideoAutoload is set the video runtime starts loading in the
// background; callers that need it immediately use Runtime.WaitReady.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{}

	store, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	deps.Storage = store
	if c, ok := store.(interface{ Close() error }); ok {
		deps.closers = append(deps.closers, c.Close)
	}

	// Image engine, with WebP output through libvips when enabled
	var imageOpts []media.Option
	if cfg.WebPEnabled {
		libvips.Init(logger)
		deps.closers = append(deps.closers, func() error {
			libvips.Shutdown()
			return nil
		})
		imageOpts = append(imageOpts, media.WithWebPEncoder(libvips.NewWebPEncoder()))
	}
	imageEngine := media.NewEngine(logger, imageOpts...)

	// Video runtime and engine
	runner := transcode.NewFFmpeg(cfg.FFmpegPath, cfg.FFprobePath)
	rt := transcode.NewRuntime(runner, logger,
		transcode.WithMaxConcurrent(cfg.VideoMaxConcurrent),
		transcode.WithStateObserver(func(s transcode.State) {
			metrics.SetVideoEngineState(string(s))
		}),
	)
	deps.Runtime = rt
	deps.closers = append(deps.closers, func() error {
		rt.Dispose()
		return nil
	})
	videoEngine := transcode.NewEngine(rt, store, logger)

	deps.Dispatcher = dispatch.New(imageEngine, fallback.New(logger), logger,
		dispatch.WithVideoEngine(videoEngine, rt),
		dispatch.WithVideoTimeout(cfg.VideoTimeout),
	)

	if cfg.VideoAutoload {
		go func() {
			if err := rt.Load(ctx); err != nil {
				logger.Warn("video engine autoload failed",
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	return deps, nil
}

// Close releases resources in reverse order of creation.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.GCSEnabled() {
		gcsStore, err := storage.NewGCSStorage(ctx, cfg.TempDir, storage.GCSConfig{
			Bucket:          cfg.GCSBucket,
			CredentialsFile: cfg.GCSCredentialsFile,
			Endpoint:        cfg.GCSEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("create GCS storage: %w", err)
		}
		logger.Info("GCS storage configured",
			slog.String("bucket", cfg.GCSBucket),
		)
		return gcsStore, nil
	}

	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(ctx, cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil
}
