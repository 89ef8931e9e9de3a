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

// Package sink aggregates per-mini-batch results into a single delimited
// output file: one row per processed record, with the mini-batch's partition
// key values appended as trailing columns so rows can be joined back to
// their group.
package sink

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"mlbatch-toolkit/pkg/logging"
	"mlbatch-toolkit/pkg/partition"
)

// DefaultDelimiter separates columns in the output file.
const DefaultDelimiter = ","

// Writer appends result rows to the aggregated output file.
type Writer struct {
	fsys      afero.Fs
	path      string
	file      afero.File
	delimiter string
}

// Open prepares the output file for appending. If a previous run left a
// partial trailing line (a crash mid-write), that line is truncated away
// before new rows are appended, so a retried mini-batch cannot produce a
// torn row.
func Open(fsys afero.Fs, path string) (*Writer, error) {
	if path == "" {
		return nil, fmt.Errorf("output path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %q: %w", dir, err)
		}
	}

	if err := truncatePartialLine(fsys, path); err != nil {
		return nil, err
	}

	file, err := fsys.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file %q: %w", path, err)
	}
	return &Writer{fsys: fsys, path: path, file: file, delimiter: DefaultDelimiter}, nil
}

// Append writes one result row followed by the partition key values of the
// mini-batch it came from.
func (w *Writer) Append(row string, keys []partition.KeyValue) error {
	columns := make([]string, 0, 1+len(keys))
	columns = append(columns, row)
	for _, kv := range keys {
		columns = append(columns, kv.Value)
	}

	line := strings.Join(columns, w.delimiter) + "\n"
	if _, err := w.file.WriteString(line); err != nil {
		return fmt.Errorf("failed to append row to %q: %w", w.path, err)
	}
	return nil
}

// Close flushes and closes the output file.
func (w *Writer) Close() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close output file %q: %w", w.path, err)
	}
	return nil
}

// Path returns the output file path.
func (w *Writer) Path() string {
	return w.path
}

func truncatePartialLine(fsys afero.Fs, path string) error {
	info, err := fsys.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat output file %q: %w", path, err)
	}
	if info.Size() == 0 {
		return nil
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to read output file %q: %w", path, err)
	}
	if data[len(data)-1] == '\n' {
		return nil
	}

	cut := bytes.LastIndexByte(data, '\n') + 1
	logging.Warn("Output file %q ends in a partial line; truncating %d bytes", path, len(data)-cut)

	file, err := fsys.OpenFile(path, os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file %q for repair: %w", path, err)
	}
	defer file.Close()
	if err := file.Truncate(int64(cut)); err != nil {
		return fmt.Errorf("failed to truncate output file %q: %w", path, err)
	}
	return nil
}
