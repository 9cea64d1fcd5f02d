// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wikicensorship/dnstrace/internal/logger"
	"gopkg.in/yaml.v3"
)

// FileLoader reads a sweep plan from a YAML file. Values missing from the
// file keep the ones of the base configuration.
type FileLoader struct {
	path string
	base SweepConfig
	fsys fs.FS
}

// NewFileLoader returns a loader for the plan file configured in cfg.
func NewFileLoader(cfg *Config) *FileLoader {
	return &FileLoader{
		path: cfg.Sweep.Plan.Path,
		base: cfg.Sweep,
		fsys: os.DirFS(filepath.Dir(cfg.Sweep.Plan.Path)),
	}
}

// Load reads and validates the sweep plan.
func (f *FileLoader) Load(ctx context.Context) (SweepConfig, error) {
	plan, err := f.getPlan(ctx)
	if err != nil {
		return SweepConfig{}, err
	}
	if err := plan.Validate(ctx); err != nil {
		return SweepConfig{}, fmt.Errorf("invalid sweep plan %s: %w", f.path, err)
	}
	return plan, nil
}

// getPlan reads the sweep plan from the file.
func (f *FileLoader) getPlan(ctx context.Context) (plan SweepConfig, err error) {
	log := logger.FromContext(ctx).With("path", f.path)

	file, err := f.fsys.Open(filepath.Base(f.path))
	if err != nil {
		log.Error("Failed to open plan file", "error", err)
		return plan, fmt.Errorf("failed to open plan file: %w", err)
	}
	defer func() {
		cerr := file.Close()
		if cerr != nil {
			log.Error("Failed to close plan file", "error", cerr)
		}
		err = errors.Join(cerr, err)
	}()

	b, err := io.ReadAll(file)
	if err != nil {
		log.Error("Failed to read plan file", "error", err)
		return plan, fmt.Errorf("failed to read plan file: %w", err)
	}

	plan = f.base
	plan.Plan = PlanConfig{}
	if err := yaml.Unmarshal(b, &plan); err != nil {
		log.Error("Failed to parse plan file", "error", err)
		return plan, fmt.Errorf("failed to parse plan file: %w", err)
	}

	return plan, nil
}
