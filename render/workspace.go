package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"manimserve/logger"
)

const scriptName = "scene.py"

// Workspace is a temporary directory owned by a single render attempt.
type Workspace struct {
	Dir  string
	once sync.Once
}

func newWorkspace() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "manim_")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

func (w *Workspace) writeScript(code string) (string, error) {
	path := filepath.Join(w.Dir, scriptName)
	if err := os.WriteFile(path, []byte(code), 0600); err != nil {
		return "", fmt.Errorf("failed to write script: %w", err)
	}
	return path, nil
}

// Release removes the workspace. Only the first call does anything, and a
// failure is logged, never returned.
func (w *Workspace) Release() {
	if w == nil {
		return
	}
	w.once.Do(func() {
		if err := os.RemoveAll(w.Dir); err != nil {
			logger.Errorf("Failed to cleanup workspace %s: %v", w.Dir, err)
			return
		}
		logger.Debugf("workspace %s removed", w.Dir)
	})
}
