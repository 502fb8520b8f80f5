package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vk/fabbuild/internal/build"
	"github.com/vk/fabbuild/internal/ctxlog"
	"github.com/vk/fabbuild/internal/pipeline"
	"github.com/vk/fabbuild/internal/pool"
	"github.com/vk/fabbuild/internal/writer"
)

// Run executes a full fabric build based on the app's configuration.
func (a *App) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := a.logger.With("runID", runID)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("App.Run method started.")

	resultWriter, err := writer.New(a.config.OutputDir)
	if err != nil {
		return err
	}

	workerPool := pool.New(a.config.WorkerCount)
	defer workerPool.Close()

	pl := pipeline.New(
		workerPool,
		&build.Builder{DiagW: a.outW},
		resultWriter,
		pipeline.Policy(a.config.OnError),
	)

	logger.Info("🚀 Starting fabric build...",
		"fabric", a.fabric.Vars.Name,
		"hosts", len(a.fabric.Hosts),
		"workers", workerPool.Workers(),
		"policy", a.config.OnError,
	)

	summary, err := pl.Run(ctx, a.fabric)
	if err != nil {
		logger.Error("Build finished with failures.",
			"written", len(summary.Written),
			"failed", summary.FailedHosts(),
		)
		return fmt.Errorf("fabric build failed: %w", err)
	}

	logger.Info("🏁 Build finished.", "written", len(summary.Written), "outputDir", resultWriter.Dir())
	logger.Debug("App.Run method finished.")
	return nil
}
