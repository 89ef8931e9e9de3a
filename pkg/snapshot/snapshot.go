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

// Package snapshot packages a scoring-script directory into a tar.gz
// artifact referenced by dispatched jobs.
package snapshot

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"mlbatch-toolkit/pkg/dataset"
	"mlbatch-toolkit/pkg/logging"
)

// Create archives every file under sourceDir into a gzipped tarball at
// outPath, honoring the directory's ignore file plus extra patterns. It
// returns the hex SHA-256 digest of the written archive.
func Create(fsys afero.Fs, sourceDir, outPath string, ignorePatterns []string) (string, error) {
	paths, err := dataset.Scan(fsys, dataset.ScanOptions{
		Root:           sourceDir,
		IgnorePatterns: ignorePatterns,
	})
	if err != nil {
		return "", fmt.Errorf("failed to list snapshot contents of %q: %w", sourceDir, err)
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("snapshot of %q would be empty", sourceDir)
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create snapshot directory %q: %w", dir, err)
		}
	}
	out, err := fsys.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot file %q: %w", outPath, err)
	}
	defer out.Close()

	hasher := sha256.New()
	gzipWriter := gzip.NewWriter(io.MultiWriter(out, hasher))
	tarWriter := tar.NewWriter(gzipWriter)

	for _, rel := range paths {
		if err := writeEntry(fsys, tarWriter, sourceDir, rel); err != nil {
			return "", err
		}
	}

	if err := tarWriter.Close(); err != nil {
		return "", fmt.Errorf("failed to close tar writer: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return "", fmt.Errorf("failed to close gzip writer: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close snapshot file %q: %w", outPath, err)
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	logging.Info("Snapshot of %q written to %s (%d files, sha256 %s)", sourceDir, outPath, len(paths), digest)
	return digest, nil
}

func writeEntry(fsys afero.Fs, tarWriter *tar.Writer, sourceDir, rel string) error {
	full := filepath.Join(sourceDir, filepath.FromSlash(rel))
	info, err := fsys.Stat(full)
	if err != nil {
		return fmt.Errorf("failed to stat %q: %w", full, err)
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("failed to create tar header for %q: %w", rel, err)
	}
	header.Name = rel
	if err := tarWriter.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %q: %w", rel, err)
	}

	file, err := fsys.Open(full)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", full, err)
	}
	defer file.Close()

	if _, err := io.Copy(tarWriter, file); err != nil {
		return fmt.Errorf("failed to write file content for %q: %w", rel, err)
	}
	return nil
}
