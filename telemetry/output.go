package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/slither/config"
)

// OutputManager handles structured experiment output with CSV logging.
// Files are created on first write, so a manager that never receives
// telemetry leaves no empty files behind.
type OutputManager struct {
	dir           string
	telemetryFile *os.File
	resultsFile   *os.File

	// Track if headers have been written
	telemetryHeaderWritten bool
	resultsHeaderWritten   bool
}

// RunResult is the per-instance summary row written to results.csv.
type RunResult struct {
	Instance      string `csv:"instance"`
	Seed          int64  `csv:"seed"`
	Ticks         int64  `csv:"ticks"`
	DurationMS    int64  `csv:"duration_ms"`
	Reason        string `csv:"reason"`
	Snakes        int    `csv:"snakes"`
	Segments      int    `csv:"segments"`
	Species       int    `csv:"species"`
	MaxGeneration uint32 `csv:"max_generation"`
	MaxMutations  uint32 `csv:"max_mutations"`
}

// NewOutputManager creates an output manager and initializes the output
// directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &OutputManager{dir: dir}, nil
}

// Dir returns the output directory, or "" when output is disabled.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry appends a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}

	if om.telemetryFile == nil {
		f, err := os.Create(filepath.Join(om.dir, "telemetry.csv"))
		if err != nil {
			return fmt.Errorf("creating telemetry.csv: %w", err)
		}
		om.telemetryFile = f
	}

	records := []WindowStats{stats}

	if !om.telemetryHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.telemetryFile); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		om.telemetryHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.telemetryFile); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
	}

	return nil
}

// WriteResult appends a run summary record to results.csv.
func (om *OutputManager) WriteResult(result RunResult) error {
	if om == nil {
		return nil
	}

	if om.resultsFile == nil {
		f, err := os.Create(filepath.Join(om.dir, "results.csv"))
		if err != nil {
			return fmt.Errorf("creating results.csv: %w", err)
		}
		om.resultsFile = f
	}

	records := []RunResult{result}

	if !om.resultsHeaderWritten {
		if err := gocsv.Marshal(records, om.resultsFile); err != nil {
			return fmt.Errorf("writing results: %w", err)
		}
		om.resultsHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.resultsFile); err != nil {
			return fmt.Errorf("writing results: %w", err)
		}
	}

	return nil
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	if om.telemetryFile != nil {
		if err := om.telemetryFile.Close(); err != nil {
			firstErr = err
		}
		om.telemetryFile = nil
	}
	if om.resultsFile != nil {
		if err := om.resultsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		om.resultsFile = nil
	}
	return firstErr
}
