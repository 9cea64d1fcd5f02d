// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/wikicensorship/dnstrace/pkg/config/test"
	"gopkg.in/yaml.v3"
)

func TestNewFileLoader(t *testing.T) {
	cfg := Default()
	cfg.Sweep.Plan.Path = "plans/plan.yaml"
	l := NewFileLoader(cfg)

	if l.path != "plans/plan.yaml" {
		t.Errorf("Expected path to be plans/plan.yaml, got %s", l.path)
	}
	if l.fsys == nil {
		t.Errorf("Expected filesystem to be not nil")
	}
}

func TestFileLoader_Load(t *testing.T) {
	base := Default()
	base.Sweep.Plan.Path = "test/data/plan.yaml"

	want := base.Sweep
	want.Resolvers = []string{"8.8.8.8", "1.1.1.1"}
	want.TestDomain = "www.wikipedia.org"
	want.Repeats = 2
	want.Delay = 500 * time.Millisecond
	want.Plan = PlanConfig{}

	got, err := NewFileLoader(base).Load(t.Context())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	t.Run("invalid plan", func(t *testing.T) {
		l := NewFileLoader(base)
		l.fsys = &test.MockFS{
			OpenFunc: func(string) (fs.File, error) {
				return &test.MockFile{Content: []byte("repeats: 0\n")}, nil
			},
		}
		if _, err := l.Load(t.Context()); err == nil {
			t.Error("Load() expected an error for a plan with zero repeats")
		}
	})
}

func TestFileLoader_getPlan(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		mockFS  func(t *testing.T) fs.FS
		want    SweepConfig
		wantErr bool
	}{
		{
			name:    "Invalid File Path",
			path:    "test/data/nonexistent.yaml",
			wantErr: true,
		},
		{
			name: "Malformed Plan File",
			path: "test/data/malformed.yaml",
			mockFS: func(_ *testing.T) fs.FS {
				return &test.MockFS{
					OpenFunc: func(name string) (fs.File, error) {
						content := []byte("this is not a valid yaml content")
						return &test.MockFile{Content: content}, nil
					},
				}
			},
			wantErr: true,
		},
		{
			name: "Valid plan",
			path: "test/data/valid.yaml",
			mockFS: func(t *testing.T) fs.FS {
				b, err := yaml.Marshal(map[string]any{"controlDomain": "www.example.org", "maxTTL": 12})
				if err != nil {
					t.Fatalf("Failed marshaling plan to bytes: %v", err)
				}
				return &test.MockFS{Files: map[string][]byte{"valid.yaml": b}}
			},
			want: SweepConfig{
				Resolvers:     []string{"9.9.9.9"},
				ControlDomain: "www.example.org",
				TestDomain:    DefaultTestDomain,
				Repeats:       1,
				MaxTTL:        12,
				Port:          DefaultPort,
				Timeout:       DefaultTimeout,
			},
		},
		{
			name: "Failed to close file",
			path: "test/data/valid.yaml",
			mockFS: func(t *testing.T) fs.FS {
				b, err := yaml.Marshal(map[string]any{"repeats": 2})
				if err != nil {
					t.Fatalf("Failed marshaling plan to bytes: %v", err)
				}

				return &test.MockFS{
					OpenFunc: func(name string) (fs.File, error) {
						return &test.MockFile{
							Content: b,
							CloseFunc: func() error {
								return fmt.Errorf("failed to close file")
							},
						}, nil
					},
				}
			},
			wantErr: true,
		},
		{
			name: "Malformed plan file and failed to close file",
			path: "test/data/malformed.yaml",
			mockFS: func(t *testing.T) fs.FS {
				return &test.MockFS{
					OpenFunc: func(name string) (fs.File, error) {
						return &test.MockFile{
							Content: []byte("this is not a valid yaml content"),
							CloseFunc: func() error {
								return fmt.Errorf("failed to close file")
							},
						}, nil
					},
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFileLoader(&Config{
				Sweep: SweepConfig{
					Resolvers:     []string{"9.9.9.9"},
					ControlDomain: DefaultControlDomain,
					TestDomain:    DefaultTestDomain,
					Repeats:       1,
					MaxTTL:        30,
					Port:          DefaultPort,
					Timeout:       DefaultTimeout,
					Plan:          PlanConfig{Path: tt.path},
				},
			})
			if tt.mockFS != nil {
				f.fsys = tt.mockFS(t)
			}

			plan, err := f.getPlan(t.Context())
			if (err != nil) != tt.wantErr {
				t.Errorf("getPlan() error %v, want %v", err, tt.wantErr)
			}

			if !tt.wantErr {
				if diff := cmp.Diff(tt.want, plan); diff != "" {
					t.Errorf("getPlan() mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}
