package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/vk/fabbuild/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Flag defaults can be overridden by FABBUILD_* environment variables, which
// main seeds from a .env file when one exists.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("fabbuild", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
fabbuild - Build intended device configurations for a network fabric.

Usage:
  fabbuild [options] [INVENTORY_PATH]

Arguments:
  INVENTORY_PATH
    Path to a single .hcl inventory file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	inventoryFlag := flagSet.String("inventory", "", "Path to the inventory file or directory.")
	iFlag := flagSet.String("i", "", "Path to the inventory file or directory (shorthand).")
	outputFlag := flagSet.String("output", envOr("FABBUILD_OUTPUT", "intended/configs"), "Directory for rendered config artifacts.")
	oFlag := flagSet.String("o", "", "Directory for rendered config artifacts (shorthand).")
	workersFlag := flagSet.Int("max-workers", envIntOr("FABBUILD_MAX_WORKERS", 10), "Maximum number of concurrent build workers.")
	mFlag := flagSet.Int("m", 0, "Maximum number of concurrent build workers (shorthand).")
	onErrorFlag := flagSet.String("on-error", envOr("FABBUILD_ON_ERROR", "abort"), "Failure policy. Options: 'abort' or 'continue'.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *inventoryFlag != "" {
		path = *inventoryFlag
	} else if *iFlag != "" {
		path = *iFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Inventory path determined.", "path", path)

	if path == "" {
		slog.Debug("No inventory path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	outputDir := *outputFlag
	if *oFlag != "" {
		outputDir = *oFlag
	}

	workers := *workersFlag
	if *mFlag > 0 {
		workers = *mFlag
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		InventoryPath: path,
		OutputDir:     outputDir,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
		WorkerCount:   workers,
		OnError:       strings.ToLower(*onErrorFlag),
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
