package render

import (
	"context"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"manimserve/logger"
)

const thumbnailName = "thumbnail.png"

// thumbnail extracts the first frame of video. Failure is not an error; the
// result is then empty.
func (s *Supervisor) thumbnail(ctx context.Context, ws *Workspace, video string, log logger.Scoped) string {
	tctx, cancel := context.WithTimeout(ctx, orDefault(s.ThumbTimeout, DefaultThumbTimeout))
	defer cancel()

	out := filepath.Join(ws.Dir, thumbnailName)
	cmd := exec.CommandContext(tctx, s.FFmpegBin, "-i", video, "-ss", "00:00:00", "-vframes", "1", "-y", out)
	cmd.WaitDelay = waitDelay
	isolate(cmd)
	if output, err := cmd.CombinedOutput(); err != nil {
		log.Warnf("thumbnail generation failed: %v: %s", err, truncateRunes(strings.TrimSpace(string(output)), 200))
		return ""
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		log.Warnf("thumbnail generation produced no file")
		return ""
	}
	return out
}

// probeDuration reads the container duration in seconds, or 0 on any
// failure.
func (s *Supervisor) probeDuration(ctx context.Context, video string, log logger.Scoped) float64 {
	pctx, cancel := context.WithTimeout(ctx, orDefault(s.ProbeTimeout, DefaultProbeTimeout))
	defer cancel()

	cmd := exec.CommandContext(pctx, s.FFprobeBin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		video,
	)
	cmd.WaitDelay = waitDelay
	isolate(cmd)
	output, err := cmd.Output()
	if err != nil {
		log.Warnf("duration probe failed: %v", err)
		return 0
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		log.Warnf("duration probe returned %q", strings.TrimSpace(string(output)))
		return 0
	}
	return d
}
