package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/recondo/recondo/pkg/errors"
)

// RunState is the persisted record of the last successful run. It is
// created on the first run and fully overwritten on each subsequent one;
// the core keeps no history.
type RunState struct {
	RunID     string     `json:"run_id"`
	Timestamp time.Time  `json:"timestamp"`
	Metrics   RunMetrics `json:"metrics"`
}

// LoadState reads the persisted run state. It returns ErrNotFound when no
// state file exists yet (first run).
func LoadState(path string) (*RunState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.WrapIO("read", path, err)
	}

	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.WrapParse("json", path, err)
	}
	return &state, nil
}

// SaveState overwrites the run state via write-temp-then-rename so a
// concurrent reader never observes a half-written document.
func SaveState(path string, state *RunState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.WrapIO("write", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".runstate_*.json")
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.WrapIO("write", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("close", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("rename", path, err)
	}
	return nil
}
