package config

import (
	"os"
	"path/filepath"
)

// getDataDir determines the data directory path from environment or default.
// Priority: MANIMSERVE_DATA_DIR environment variable > "./data" default
func getDataDir() string {
	if dir := os.Getenv("MANIMSERVE_DATA_DIR"); dir != "" {
		return dir
	}
	return "./data"
}

// GetDataDir returns the current data directory path.
// The environment is checked on every call so tests and operators can move
// the data directory without rebuilding.
func GetDataDir() string {
	return getDataDir()
}

// GetRecordsDBPath returns the full path to the render history database.
// Path: {DATA_DIR}/renders.db
func GetRecordsDBPath() string {
	return filepath.Join(GetDataDir(), "renders.db")
}

// GetServeDir returns the base directory used by the local storage backend.
// Files written there are exposed under /media by the HTTP server.
// Configurable via MANIMSERVE_SERVE_DIR, defaults to "./serve".
func GetServeDir() string {
	if dir := os.Getenv("MANIMSERVE_SERVE_DIR"); dir != "" {
		return dir
	}
	return "./serve"
}
