package csvio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JonMunkholm/setdecoder/internal/core"
)

// Source is one named order export.
type Source struct {
	Name   string
	Reader io.Reader
}

// ReadAll parses every source and concatenates the rows in source order.
//
// The combined header is the union of all headers in first-seen order;
// header names are compared case-insensitively. Cells of columns a source
// does not have are empty.
func ReadAll(sources []Source, opts ...Option) (core.RecordSet, error) {
	if len(sources) == 0 {
		return core.RecordSet{}, fmt.Errorf("no file provided")
	}

	var combined core.RecordSet
	position := make(map[string]int)

	for _, src := range sources {
		rs, err := Read(src.Reader, opts...)
		if err != nil {
			return core.RecordSet{}, fmt.Errorf("%s: %w", src.Name, err)
		}

		// Column position in this file -> position in combined header,
		// -1 for a repeated column (the first one wins).
		mapping := make([]int, len(rs.Header))
		inFile := make(map[string]struct{}, len(rs.Header))
		for i, h := range rs.Header {
			key := strings.ToLower(core.CleanCell(h))
			if _, dup := inFile[key]; dup {
				mapping[i] = -1
				continue
			}
			inFile[key] = struct{}{}

			pos, ok := position[key]
			if !ok {
				pos = len(combined.Header)
				position[key] = pos
				combined.Header = append(combined.Header, h)
			}
			mapping[i] = pos
		}

		for _, row := range rs.Rows {
			out := make([]string, len(combined.Header))
			for i, pos := range mapping {
				if pos >= 0 && i < len(row) {
					out[pos] = row[i]
				}
			}
			combined.Rows = append(combined.Rows, out)
		}
	}

	// Earlier rows are shorter than later headers; pad them.
	for i, row := range combined.Rows {
		if len(row) < len(combined.Header) {
			padded := make([]string, len(combined.Header))
			copy(padded, row)
			combined.Rows[i] = padded
		}
	}

	return combined, nil
}

// LoadFiles opens and reads every path, in the order given.
func LoadFiles(paths []string, opts ...Option) (core.RecordSet, error) {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return core.RecordSet{}, fmt.Errorf("open %s: %w", p, err)
		}
		defer f.Close()
		sources = append(sources, Source{Name: filepath.Base(p), Reader: f})
	}
	return ReadAll(sources, opts...)
}

// CSVFiles lists the *.csv files directly inside dir, sorted by name.
func CSVFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoCSVFiles, dir)
	}

	sort.Strings(paths)
	return paths, nil
}

// LoadDir reads every *.csv file in dir. It returns the combined records and
// the file names that were read.
func LoadDir(dir string, opts ...Option) (core.RecordSet, []string, error) {
	paths, err := CSVFiles(dir)
	if err != nil {
		return core.RecordSet{}, nil, err
	}

	rs, err := LoadFiles(paths, opts...)
	if err != nil {
		return core.RecordSet{}, nil, err
	}

	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return rs, names, nil
}
