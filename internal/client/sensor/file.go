package sensor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"farm-alerts/internal/model"
)

// FileSource serves a sensor snapshot from a JSON file for offline runs.
// The file may hold either a snapshot object or a raw env-log record.
type FileSource struct {
	path   string
	logger zerolog.Logger
}

// NewFileSource creates a FileSource reading path on every call.
func NewFileSource(path string, logger zerolog.Logger) *FileSource {
	return &FileSource{
		path:   path,
		logger: logger.With().Str("component", "sensor-file").Logger(),
	}
}

// Latest reads and decodes the snapshot file.
func (f *FileSource) Latest(ctx context.Context) (*model.SensorSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot file %s: %w", f.path, err)
	}

	if _, ok := probe["time"]; ok {
		var log EnvLog
		if err := json.Unmarshal(data, &log); err != nil {
			return nil, fmt.Errorf("failed to parse env log %s: %w", f.path, err)
		}
		f.logger.Debug().Str("path", f.path).Msg("loaded env log record")
		return log.Snapshot(), nil
	}

	var snap model.SensorSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot file %s: %w", f.path, err)
	}
	f.logger.Debug().Str("path", f.path).Msg("loaded sensor snapshot")
	return &snap, nil
}
