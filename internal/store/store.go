// Package store persists completed scan runs as JSON documents under the
// user's data directory so they can be listed and re-rendered later.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ShadowStrikeHQ/vscan-form-field-analyzer/internal/scanner"
	consts "github.com/ShadowStrikeHQ/vscan-form-field-analyzer/internal/shared/constants"
	"github.com/ShadowStrikeHQ/vscan-form-field-analyzer/internal/shared/security"
)

const appDirName = "vscan-form-field-analyzer"

// Run is one persisted scan run.
type Run struct {
	ID          string               `json:"id"`
	Scanner     string               `json:"scanner"`
	ToolVersion string               `json:"tool_version,omitempty"`
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt time.Time            `json:"completed_at"`
	TargetCount int                  `json:"target_count"`
	OKCount     int                  `json:"ok_count"`
	ErrorCount  int                  `json:"error_count"`
	Results     []scanner.PageResult `json:"results"`
}

// Summary is the listing view of a run.
type Summary struct {
	ID          string    `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	TargetCount int       `json:"target_count"`
	OKCount     int       `json:"ok_count"`
	ErrorCount  int       `json:"error_count"`
}

// RunNotFoundError indicates a run lookup failure.
type RunNotFoundError struct {
	ID string
}

func (e *RunNotFoundError) Error() string {
	return fmt.Sprintf("run %s not found", e.ID)
}

// Store reads and writes runs under a base directory.
type Store struct {
	mu      sync.Mutex
	runsDir string
}

// DefaultDir returns the per-user data directory for this tool, following
// the XDG Base Directory specification on Linux and the platform conventions
// elsewhere.
func DefaultDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		baseDir = os.Getenv("LOCALAPPDATA")
		if baseDir == "" {
			baseDir = os.Getenv("APPDATA")
		}
		if baseDir == "" {
			return "", errors.New("could not determine Windows data directory")
		}
		baseDir = filepath.Join(baseDir, appDirName)

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support", appDirName)

	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			baseDir = filepath.Join(xdg, appDirName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("could not determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".local", "share", appDirName)
		}
	}

	return baseDir, nil
}

// Open creates (if needed) and returns a store rooted at baseDir.
func Open(baseDir string) (*Store, error) {
	if baseDir == "" {
		return nil, errors.New("base directory is required")
	}
	runsDir := filepath.Join(baseDir, "runs")
	if err := os.MkdirAll(runsDir, consts.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("create runs directory: %w", err)
	}
	return &Store{runsDir: runsDir}, nil
}

// validateRunID ensures run identifiers can't be used for path traversal.
// IDs become filenames, so reject separators and reserved names.
func validateRunID(id string) error {
	switch id {
	case "":
		return errors.New("run ID is required")
	case ".", "..":
		return fmt.Errorf("run ID %q is reserved", id)
	}
	if strings.ContainsAny(id, "/\\") {
		return fmt.Errorf("run ID %q must not contain path separators", id)
	}
	return nil
}

func (s *Store) runPath(id string) (string, error) {
	if err := validateRunID(id); err != nil {
		return "", err
	}
	return security.ResolveWithin(s.runsDir, id+".json")
}

// NewRunID derives a sortable run identifier from the start time.
func NewRunID(startedAt time.Time) string {
	return startedAt.UTC().Format("20060102-150405")
}

// Save writes the run document. An empty ID is derived from StartedAt.
func (s *Store) Save(run *Run) error {
	if run == nil {
		return errors.New("run is required")
	}
	if run.ID == "" {
		run.ID = NewRunID(run.StartedAt)
	}

	path, err := s.runPath(run.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(path, data, consts.DefaultFilePerm); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// Load reads one run by ID.
func (s *Store) Load(id string) (*Run, error) {
	path, err := s.runPath(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	data, err := os.ReadFile(path)
	s.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &RunNotFoundError{ID: id}
		}
		return nil, fmt.Errorf("read run: %w", err)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}

// List returns run summaries, newest first, capped at limit when limit > 0.
func (s *Store) List(limit int) ([]Summary, error) {
	s.mu.Lock()
	entries, err := os.ReadDir(s.runsDir)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("read runs directory: %w", err)
	}

	summaries := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		run, err := s.Load(id)
		if err != nil {
			// a corrupt document should not hide the rest of the history
			continue
		}
		summaries = append(summaries, Summary{
			ID:          run.ID,
			StartedAt:   run.StartedAt,
			TargetCount: run.TargetCount,
			OKCount:     run.OKCount,
			ErrorCount:  run.ErrorCount,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartedAt.After(summaries[j].StartedAt)
	})

	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}
