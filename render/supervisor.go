// Package render runs the external renderer against a script in a private
// workspace and harvests the produced video, thumbnail and duration.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"manimserve/config"
	"manimserve/logger"
	"manimserve/models"
)

const (
	DefaultTimeout      = 60 * time.Second
	DefaultThumbTimeout = 10 * time.Second
	DefaultProbeTimeout = 10 * time.Second

	// waitDelay bounds how long Wait blocks on stderr after a kill.
	waitDelay = 2 * time.Second
)

// Supervisor runs one render attempt per Render call. It holds no per-call
// state and is safe for concurrent use.
type Supervisor struct {
	ManimBin   string
	FFmpegBin  string
	FFprobeBin string

	Timeout      time.Duration
	ThumbTimeout time.Duration
	ProbeTimeout time.Duration
}

// Outcome is a successful render. The paths point into Workspace and stay
// valid until Release is called.
type Outcome struct {
	Workspace     *Workspace
	VideoPath     string
	ThumbnailPath string // empty when thumbnail extraction failed
	Duration      float64
}

// Release removes the workspace the outcome's files live in.
func (o *Outcome) Release() {
	if o != nil {
		o.Workspace.Release()
	}
}

func NewSupervisor(cfg config.Config) *Supervisor {
	return &Supervisor{
		ManimBin:     cfg.ManimBin,
		FFmpegBin:    cfg.FFmpegBin,
		FFprobeBin:   cfg.FFprobeBin,
		Timeout:      cfg.RenderTimeout,
		ThumbTimeout: DefaultThumbTimeout,
		ProbeTimeout: DefaultProbeTimeout,
	}
}

// CheckTools logs a warning for every configured binary missing from PATH
// and returns their names. Missing tools are not fatal at startup; renders
// fail with an ExecutionError instead.
func (s *Supervisor) CheckTools() []string {
	var missing []string
	for _, tool := range []struct{ role, bin string }{
		{"renderer", s.ManimBin},
		{"thumbnail", s.FFmpegBin},
		{"probe", s.FFprobeBin},
	} {
		if _, err := exec.LookPath(tool.bin); err != nil {
			logger.Warnf("render tool [%s] unavailable: command '%s' not found in PATH", tool.role, tool.bin)
			missing = append(missing, tool.bin)
			continue
		}
		logger.Debugf("render tool [%s] found (command: %s)", tool.role, tool.bin)
	}
	return missing
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Render writes code into a fresh workspace, renders scene at quality and
// locates the result.
//
// On error the workspace has already been removed. On success the caller
// owns it and must call Outcome.Release once the files are consumed.
func (s *Supervisor) Render(ctx context.Context, code, scene string, quality models.Quality) (out *Outcome, err error) {
	ws, err := newWorkspace()
	if err != nil {
		return nil, &ExecutionError{Err: err}
	}
	log := logger.For("render").With("workspace", filepath.Base(ws.Dir))

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &ExecutionError{Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			ws.Release()
		}
	}()

	script, err := ws.writeScript(code)
	if err != nil {
		return nil, &ExecutionError{Err: err}
	}

	started := time.Now()
	if err := s.runRenderer(ctx, ws, script, scene, quality, log); err != nil {
		log.Warnf("render of %s failed after %s: %v", scene, time.Since(started).Round(time.Millisecond), err)
		return nil, err
	}

	video, err := findVideo(filepath.Join(ws.Dir, "videos", "scene"))
	if err != nil {
		log.Warnf("no %s output for %s", videoExt, scene)
		return nil, err
	}
	log.Infof("rendered %s in %s: %s", scene, time.Since(started).Round(time.Millisecond), video)

	return &Outcome{
		Workspace:     ws,
		VideoPath:     video,
		ThumbnailPath: s.thumbnail(ctx, ws, video, log),
		Duration:      s.probeDuration(ctx, video, log),
	}, nil
}

func (s *Supervisor) runRenderer(ctx context.Context, ws *Workspace, script, scene string, quality models.Quality, log logger.Scoped) error {
	timeout := orDefault(s.Timeout, DefaultTimeout)
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{quality.Flag(), "--format=mp4", "--media_dir", ws.Dir, script, scene}
	cmd := exec.CommandContext(rctx, s.ManimBin, args...)
	cmd.Dir = ws.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	isolate(cmd)

	log.Debugf("running %s %v", s.ManimBin, args)
	runErr := cmd.Run()

	if ctx.Err() != nil {
		return &ExecutionError{Err: ctx.Err()}
	}
	if errors.Is(rctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w (max %d seconds)", ErrTimeout, int(timeout.Seconds()))
	}
	if runErr == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if !errors.As(runErr, &exitErr) {
		return &ExecutionError{Err: runErr}
	}
	msg := meaningfulStderr(stderr.String())
	if msg == "" {
		// Exit status alone is not trusted: the renderer sometimes exits
		// non-zero with nothing but progress bars on stderr.
		log.Warnf("renderer exited with code %d but stderr holds only progress output; looking for video", exitErr.ExitCode())
		return nil
	}
	log.Debugf("renderer stdout: %s", truncateRunes(stdout.String(), maxFailureMessage))
	return &FailureError{Message: truncateRunes(msg, maxFailureMessage)}
}
