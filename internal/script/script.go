// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrLoadScript is returned when a script file cannot be read or parsed.
	ErrLoadScript = errors.New("failed to load script")
	// ErrUnknownFormat is returned when the file extension is not a known script format.
	ErrUnknownFormat = errors.New("unknown script format (expected .yaml, .yml or .hcl)")
	// ErrEmptyScript is returned when a script defines no steps.
	ErrEmptyScript = errors.New("script defines no steps")
	// ErrStepMissingRun is returned when a step has no command line.
	ErrStepMissingRun = errors.New("step has no run command")
)

// Step is a single command line inside a script. The command may contain
// pipes; it runs with the step's environment merged over the parent's.
type Step struct {
	Name     string            `yaml:"name" hcl:"name,label"`
	Run      string            `yaml:"run" hcl:"run"`
	Shell    bool              `yaml:"shell" hcl:"shell,optional"`
	Dir      string            `yaml:"dir" hcl:"dir,optional"`
	Env      map[string]string `yaml:"env" hcl:"env,optional"`
	NoThrow  bool              `yaml:"no_throw" hcl:"no_throw,optional"`
	Detached bool              `yaml:"detached" hcl:"detached,optional"`
}

// Script is an ordered list of steps.
type Script struct {
	Name      string `yaml:"name" hcl:"name,optional"`
	KeepGoing bool   `yaml:"keep_going" hcl:"keep_going,optional"`
	Steps     []Step `yaml:"steps" hcl:"step,block"`
}

// Load reads and parses a script file, choosing the format by extension.
func Load(path string) (*Script, error) {
	data, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		return nil, errors.Join(ErrLoadScript, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".hcl":
		return ParseHCL(path, data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// ParseYAML decodes a YAML script document.
func ParseYAML(data []byte) (*Script, error) {
	s := &Script{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, errors.Join(ErrLoadScript, err)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// ParseHCL decodes an HCL script document. Expressions can reference the
// parent environment through the env object, e.g. run = "deploy ${env.HOME}".
func ParseHCL(filename string, data []byte) (*Script, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Join(ErrLoadScript, diags)
	}

	s := &Script{}
	if diags := gohcl.DecodeBody(file.Body, evalContext(), s); diags.HasErrors() {
		return nil, errors.Join(ErrLoadScript, diags)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Script) validate() error {
	if len(s.Steps) == 0 {
		return ErrEmptyScript
	}

	for i, step := range s.Steps {
		if strings.TrimSpace(step.Run) == "" {
			return fmt.Errorf("%w: step %d (%s)", ErrStepMissingRun, i, step.Name)
		}
	}

	return nil
}

// evalContext exposes the parent process environment to HCL expressions
// as the env object.
func evalContext() *hcl.EvalContext {
	vals := make(map[string]cty.Value)

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}

		vals[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vals),
		},
	}
}
