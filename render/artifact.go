package render

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	videoExt         = ".mp4"
	maxArtifactDepth = 6
	partialMoviesDir = "partial_movie_files"
)

// findVideo walks root breadth first, at most maxArtifactDepth levels deep,
// and returns the first .mp4 it meets. Shallower files win; within a
// directory entries are visited in name order. Partial movie segments are
// never returned.
func findVideo(root string) (string, error) {
	type level struct {
		dir   string
		depth int
	}
	queue := []level{{root, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(cur.dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				if e.Name() != partialMoviesDir && cur.depth < maxArtifactDepth {
					queue = append(queue, level{filepath.Join(cur.dir, e.Name()), cur.depth + 1})
				}
				continue
			}
			if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), videoExt) {
				return filepath.Join(cur.dir, e.Name()), nil
			}
		}
	}
	return "", ErrArtifactNotFound
}
