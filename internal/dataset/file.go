package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FileSource reads datasets from a directory, trying candidate file names in
// order until one can be read.
type FileSource struct {
	logger     *slog.Logger
	dir        string
	candidates map[Kind][]string
}

// NewFileSource creates a source reading from dir.
func NewFileSource(logger *slog.Logger, dir string, candidates map[Kind][]string) *FileSource {
	return &FileSource{logger: logger, dir: dir, candidates: candidates}
}

// Describe returns the data directory.
func (s *FileSource) Describe() string {
	return s.dir
}

// Candidates returns the file names tried for kind.
func (s *FileSource) Candidates(kind Kind) []string {
	return slices.Clone(s.candidates[kind])
}

// Fetch reads the first candidate file of kind that opens and parses.
func (s *FileSource) Fetch(ctx context.Context, kind Kind) (Payload, error) {
	candidates := s.candidates[kind]
	for _, name := range candidates {
		if err := ctx.Err(); err != nil {
			return Payload{}, err
		}
		payload, err := s.readFile(name)
		if err != nil {
			s.logger.Debug("Could not load candidate file",
				slog.String("dataset", string(kind)),
				slog.String("file", name),
				slog.Any("error", err))
			continue
		}
		s.logger.Info("Loaded dataset",
			slog.String("dataset", string(kind)),
			slog.String("file", name),
			slog.Int("rows", payload.Metadata.RecordCount))
		return payload, nil
	}
	return Payload{}, &NotFoundError{Kind: kind, Searched: slices.Clone(candidates), Directory: s.dir}
}

func (s *FileSource) readFile(name string) (Payload, error) {
	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if err != nil {
		return Payload{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Payload{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Payload{}, fmt.Errorf("%s is a directory", path)
	}

	rows, err := ReadRows(f)
	if err != nil {
		return Payload{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return Payload{
		Rows: rows,
		Metadata: Metadata{
			Source:       name,
			RecordCount:  len(rows),
			LastModified: info.ModTime().UTC(),
		},
	}, nil
}

// ListCSVFiles returns the names of the .csv files in dir, sorted.
func ListCSVFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	files := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		files = append(files, e.Name())
	}
	slices.Sort(files)
	return files, nil
}
