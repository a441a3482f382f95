package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// runState remembers when the last planning cycle completed, so the service
// loop survives restarts without rerunning early.
type runState struct {
	LastRun time.Time `json:"last_run"`
}

func loadRunState(path string) (runState, error) {
	var state runState

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return state, fmt.Errorf("failed to read state file: %w", err)
	}

	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("failed to parse state file: %w", err)
	}
	return state, nil
}

func saveRunState(path string, state runState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// dueForRun reports whether enough days have passed since the last cycle.
func dueForRun(state runState, intervalDays int, now time.Time) bool {
	if state.LastRun.IsZero() {
		return true
	}
	return now.Sub(state.LastRun) >= time.Duration(intervalDays)*24*time.Hour
}
