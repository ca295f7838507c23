// Package bootstrap provides dependency initialization for the verse video service.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maauso/versevideo/internal/audio"
	"github.com/maauso/versevideo/internal/config"
	"github.com/maauso/versevideo/internal/job"
	"github.com/maauso/versevideo/internal/media"
	"github.com/maauso/versevideo/internal/storage"
	"github.com/maauso/versevideo/internal/variant"
)

// Dependencies holds all initialized dependencies shared by the entry points.
type Dependencies struct {
	RenderService *job.RenderService
	Variants      *variant.Registry
	Storage       *storage.LocalStorage
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	// Initialize variant registry
	variants, err := initVariants(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Initialize transient storage
	store, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", store.TempDir()),
	)

	// Initialize s3:// address signing
	signer, err := initSigner(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// Initialize duration resolver and render engine
	resolver := audio.NewFFprobeResolver(cfg.FFprobePath,
		audio.WithSigner(signer),
		audio.WithTimeout(cfg.ProbeTimeout),
	)
	renderer := media.NewFFmpegRenderer(cfg.FFmpegPath, store,
		media.WithSigner(signer),
		media.WithLogger(logger),
	)

	// Initialize job repository
	repo := job.NewMemoryRepository(cfg.JobHistoryLimit)

	// Initialize RenderService
	svc := job.NewRenderService(
		variants,
		resolver,
		renderer,
		store,
		repo,
		logger,
		job.WithMaxConcurrentProbes(cfg.MaxConcurrentProbes),
		job.WithProbeTimeout(cfg.ProbeTimeout),
		job.WithRenderTimeout(cfg.RenderTimeout),
	)

	return &Dependencies{
		RenderService: svc,
		Variants:      variants,
		Storage:       store,
	}, nil
}

// initVariants loads the built-in variants and applies VARIANTS_FILE overrides.
func initVariants(cfg *config.Config, logger *slog.Logger) (*variant.Registry, error) {
	variants := variant.Builtin()
	if cfg.VariantsFile == "" {
		return variants, nil
	}

	if err := variants.LoadFile(cfg.VariantsFile); err != nil {
		return nil, fmt.Errorf("load variants: %w", err)
	}
	logger.Info("variants loaded",
		slog.String("file", cfg.VariantsFile),
		slog.Any("variants", variants.Names()),
	)
	return variants, nil
}

// initSigner returns nil when S3 is not configured; s3:// addresses are then rejected.
func initSigner(ctx context.Context, cfg *config.Config, logger *slog.Logger) (media.AddressSigner, error) {
	if !cfg.S3Enabled() {
		return nil, nil
	}

	signer, err := storage.NewS3Signer(ctx, cfg.S3())
	if err != nil {
		return nil, fmt.Errorf("create S3 signer: %w", err)
	}
	logger.Info("S3 address signing configured",
		slog.String("region", cfg.S3Region),
		slog.String("endpoint", cfg.S3Endpoint),
	)
	return signer, nil
}
