package app

import (
	"errors"
	"fmt"

	"github.com/vk/fabbuild/internal/pipeline"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	InventoryPath string // .hcl inventory file or directory
	OutputDir     string // destination for <hostname>.cfg artifacts

	LogFormat   string
	LogLevel    string
	WorkerCount int
	OnError     string // pipeline failure policy: abort or continue
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.InventoryPath == "" {
		return nil, errors.New("InventoryPath is a required configuration field and cannot be empty")
	}
	if !pipeline.ValidPolicy(cfg.OnError) {
		return nil, fmt.Errorf("invalid on-error policy %q: must be 'abort' or 'continue'", cfg.OnError)
	}
	return &cfg, nil
}
