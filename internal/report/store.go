package report

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spboyer/pulse/internal/models"
)

// DateLayout is the run-date qualifier used in artifact file names.
const DateLayout = "2006-01-02"

// DatePlaceholder marks where the run date goes in a filename pattern.
const DatePlaceholder = "{date}"

// Store persists artifacts under one output directory, one file per format
// and run date.
type Store struct {
	dir    string
	prefix string
	suffix string
}

// NewStore returns a store for dir. pattern must contain {date} exactly once
// and no path separators.
func NewStore(dir, pattern string) (*Store, error) {
	if strings.Count(pattern, DatePlaceholder) != 1 {
		return nil, models.NewConfigurationError("output.filename_pattern", "pattern %q must contain %s exactly once", pattern, DatePlaceholder)
	}
	if strings.ContainsAny(pattern, `/\`) {
		return nil, models.NewConfigurationError("output.filename_pattern", "pattern %q must be a file name, not a path", pattern)
	}
	prefix, suffix, _ := strings.Cut(pattern, DatePlaceholder)
	return &Store{dir: dir, prefix: prefix, suffix: suffix}, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the destination for a format on a run date.
func (s *Store) Path(format models.Format, runDate time.Time) string {
	return filepath.Join(s.dir, s.prefix+runDate.Format(DateLayout)+s.suffix+format.Extension())
}

// Write persists content atomically at the run date's destination,
// replacing an earlier write for the same run date and format.
func (s *Store) Write(format models.Format, runDate time.Time, content string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	dest := s.Path(format, runDate)
	tmp, err := os.CreateTemp(s.dir, ".pulse-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	return dest, nil
}

// Latest returns the newest non-placeholder artifact for format dated on or
// before runDate. It returns nil when there is none.
func (s *Store) Latest(format models.Format, runDate time.Time) (*models.ReportArtifact, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading output directory: %w", err)
	}

	cutoff := runDate.Format(DateLayout)
	var candidates []string
	tail := s.suffix + format.Extension()
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, s.prefix) || !strings.HasSuffix(name, tail) {
			continue
		}
		middle := strings.TrimSuffix(strings.TrimPrefix(name, s.prefix), tail)
		if _, err := time.Parse(DateLayout, middle); err != nil || middle > cutoff {
			continue
		}
		candidates = append(candidates, middle)
	}

	// ISO dates sort lexically; newest first.
	slices.Sort(candidates)
	slices.Reverse(candidates)

	for _, date := range candidates {
		path := filepath.Join(s.dir, s.prefix+date+tail)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading prior artifact: %w", err)
		}
		content := string(data)
		if isPlaceholder(format, content) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("reading prior artifact: %w", err)
		}
		return &models.ReportArtifact{
			Format:          format,
			Content:         content,
			DestinationPath: path,
			GeneratedAt:     info.ModTime().UTC(),
			Origin:          models.OriginRendered,
		}, nil
	}
	return nil, nil
}
