// Package script loads and runs robot automation scripts.
//
// A script is either JavaScript executed in a goja VM with a small "ufo" API,
// or a YAML list of steps. Both drive the same command set and are paced by a
// shared rate limiter.
package script

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"gopkg.in/yaml.v3"
)

// ErrScriptNotFound reports an unknown script name.
var ErrScriptNotFound = errors.New("script not found")

// Kind identifies the script format.
type Kind string

const (
	KindJS   Kind = "js"
	KindYAML Kind = "yaml"
)

// Script is a compiled script ready to run.
type Script struct {
	Name        string
	File        string
	Path        string
	Kind        Kind
	Description string
	Hash        string
	Size        int64

	program *goja.Program
	steps   []Step
}

// Steps returns a copy of a YAML script's steps.
func (s *Script) Steps() []Step {
	return append([]Step(nil), s.steps...)
}

// Summary describes a loaded script.
type Summary struct {
	Name        string `json:"name"`
	File        string `json:"file"`
	Kind        Kind   `json:"kind"`
	Description string `json:"description,omitempty"`
	Hash        string `json:"hash"`
	Size        int64  `json:"size"`
	Steps       int    `json:"steps,omitempty"`
}

// Loader compiles the scripts found in one directory.
type Loader struct {
	mu     sync.RWMutex
	root   string
	byName map[string]*Script
}

// NewLoader returns a loader rooted at dir, creating it when missing.
func NewLoader(dir string) (*Loader, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, fmt.Errorf("script loader: directory required")
	}
	clean := filepath.Clean(trimmed)
	if err := os.MkdirAll(clean, 0o750); err != nil {
		return nil, fmt.Errorf("script loader: ensure directory %q: %w", clean, err)
	}
	return &Loader{root: clean, byName: make(map[string]*Script)}, nil
}

// Root returns the script directory.
func (l *Loader) Root() string {
	if l == nil {
		return ""
	}
	return l.root
}

// Refresh recompiles every script on disk. On error the previous catalog is
// kept.
func (l *Loader) Refresh(ctx context.Context) error {
	if l == nil {
		return fmt.Errorf("script loader: nil receiver")
	}
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return fmt.Errorf("script loader: read directory %q: %w", l.root, err)
	}

	next := make(map[string]*Script)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("script loader: refresh canceled: %w", err)
		}
		if entry.IsDir() {
			continue
		}
		kind, ok := kindOf(entry.Name())
		if !ok {
			continue
		}
		full := filepath.Join(l.root, entry.Name())
		s, err := compile(full, entry, kind)
		if err != nil {
			return fmt.Errorf("script loader: %w", err)
		}
		if prev, exists := next[s.Name]; exists {
			return fmt.Errorf("script loader: duplicate script name %q (%s, %s)", s.Name, prev.File, s.File)
		}
		next[s.Name] = s
	}

	l.mu.Lock()
	l.byName = next
	l.mu.Unlock()
	return nil
}

// List returns the catalog sorted by name.
func (l *Loader) List() []Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Summary, 0, len(l.byName))
	for _, s := range l.byName {
		out = append(out, Summary{
			Name:        s.Name,
			File:        s.File,
			Kind:        s.Kind,
			Description: s.Description,
			Hash:        s.Hash,
			Size:        s.Size,
			Steps:       len(s.steps),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns the compiled script called name.
func (l *Loader) Get(name string) (*Script, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.byName[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, strings.TrimSpace(name))
	}
	return s, nil
}

func kindOf(file string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".js":
		return KindJS, true
	case ".yaml", ".yml":
		return KindYAML, true
	default:
		return "", false
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func compile(full string, entry fs.DirEntry, kind Kind) (*Script, error) {
	// #nosec G304 -- full comes from os.ReadDir within the loader root.
	source, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", full, err)
	}
	sum := sha256.Sum256(source)
	s := &Script{
		Name: normalizeName(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))),
		File: entry.Name(),
		Path: full,
		Kind: kind,
		Hash: hex.EncodeToString(sum[:]),
		Size: int64(len(source)),
	}

	switch kind {
	case KindJS:
		prog, err := goja.Compile(full, string(source), true)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", full, err)
		}
		s.program = prog
		s.Description = leadingComment(source)
	case KindYAML:
		var doc stepsFile
		if err := yaml.Unmarshal(source, &doc); err != nil {
			return nil, fmt.Errorf("parse %q: %w", full, err)
		}
		if len(doc.Steps) == 0 {
			return nil, fmt.Errorf("parse %q: no steps", full)
		}
		s.steps = doc.Steps
		s.Description = strings.TrimSpace(doc.Description)
		if name := normalizeName(doc.Name); name != "" {
			s.Name = name
		}
	}
	return s, nil
}

// leadingComment returns the first "//" comment line of a JS source.
func leadingComment(source []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(source))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line == `"use strict";` {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "//"); ok {
			return strings.TrimSpace(rest)
		}
		return ""
	}
	return ""
}
