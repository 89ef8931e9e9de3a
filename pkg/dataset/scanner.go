// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dataset snapshots the file listing of a dataset root. The listing
// is the input sequence for partition grouping, so its order must be
// reproducible: files are returned as slash-separated paths relative to the
// root, in lexical walk order.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
	"github.com/spf13/afero"

	"mlbatch-toolkit/pkg/logging"
)

// IgnoreFileName is the per-dataset ignore file read from the root, with
// .dockerignore pattern syntax.
const IgnoreFileName = ".batchignore"

// ScanOptions configures a dataset scan.
type ScanOptions struct {
	Root string
	// IgnorePatterns are applied in addition to the root's ignore file.
	IgnorePatterns []string
}

// Scan walks the dataset root and returns the relative paths of all regular
// files not excluded by ignore patterns.
func Scan(fsys afero.Fs, opts ScanOptions) ([]string, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("dataset root is empty")
	}
	info, err := fsys.Stat(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat dataset root %q: %w", opts.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dataset root %q is not a directory", opts.Root)
	}

	matcher, err := buildMatcher(fsys, opts)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = afero.Walk(fsys, opts.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(opts.Root, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %q: %w", path, err)
		}
		if rel == "." {
			return nil
		}
		relSlash := filepath.ToSlash(rel)
		if relSlash == IgnoreFileName {
			return nil
		}

		matchPath := relSlash
		if info.IsDir() && !strings.HasSuffix(matchPath, "/") {
			matchPath += "/"
		}
		ignored, err := matcher.MatchesOrParentMatches(matchPath)
		if err != nil {
			return fmt.Errorf("failed to match %q against ignore patterns: %w", relSlash, err)
		}
		if ignored {
			logging.Debug("Ignoring %q", relSlash)
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode().IsRegular() {
			paths = append(paths, relSlash)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan dataset root %q: %w", opts.Root, err)
	}

	logging.Debug("Scanned %d files under %q", len(paths), opts.Root)
	return paths, nil
}

func buildMatcher(fsys afero.Fs, opts ScanOptions) (*patternmatcher.PatternMatcher, error) {
	patterns := make([]string, len(opts.IgnorePatterns))
	copy(patterns, opts.IgnorePatterns)

	ignorePath := filepath.Join(opts.Root, IgnoreFileName)
	if _, err := fsys.Stat(ignorePath); err == nil {
		file, err := fsys.Open(ignorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open ignore file %q: %w", ignorePath, err)
		}
		defer file.Close()

		filePatterns, err := ignorefile.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read ignore file %q: %w", ignorePath, err)
		}
		patterns = append(patterns, filePatterns...)
		logging.Debug("Found %d patterns in %q", len(filePatterns), ignorePath)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat ignore file %q: %w", ignorePath, err)
	}

	matcher, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, fmt.Errorf("failed to create pattern matcher: %w", err)
	}
	return matcher, nil
}
