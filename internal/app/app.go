package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/fabbuild/internal/ctxlog"
	"github.com/vk/fabbuild/internal/inventory"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	fabric *inventory.Fabric
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and the inventory
// already resolved. Startup failures panic; the caller recovers them into a
// clean exit message.
func NewApp(outW io.Writer, config *Config, loader *inventory.Loader) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	fabric, err := loader.Load(ctx, config.InventoryPath)
	if err != nil {
		// A failure to resolve the inventory is a fatal startup error.
		panic(fmt.Errorf("failed to load inventory: %w", err))
	}
	logger.Debug("Inventory loaded.", "fabric", fabric.Vars.Name, "hosts", len(fabric.Hosts))

	return &App{
		outW:   outW,
		logger: logger,
		config: config,
		fabric: fabric,
	}
}

// Fabric returns the resolved inventory. This is primarily for testing.
func (a *App) Fabric() *inventory.Fabric {
	return a.fabric
}
