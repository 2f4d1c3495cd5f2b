// Package job sequences a submission through validation, rendering and
// upload, either inline for a waiting caller or in the background with a
// webhook at the end.
package job

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"manimserve/logger"
	"manimserve/models"
	"manimserve/records"
	"manimserve/render"
	"manimserve/taskqueue"
	"manimserve/validator"
)

// Renderer is satisfied by *render.Supervisor.
type Renderer interface {
	Render(ctx context.Context, code, scene string, quality models.Quality) (*render.Outcome, error)
}

// Uploader is satisfied by *storage.Uploader.
type Uploader interface {
	UploadPair(ctx context.Context, videoPath, thumbnailPath string) (models.UploadResult, error)
}

// Recorder persists finished renders. *records.Store satisfies it.
type Recorder interface {
	Put(rec records.Record) error
}

// Notifier delivers async outcomes. *WebhookClient satisfies it.
type Notifier interface {
	Deliver(ctx context.Context, url string, payload models.WebhookPayload) error
}

type Options struct {
	Renderer Renderer
	Uploader Uploader
	Recorder Recorder        // optional
	Pool     *taskqueue.Pool // optional; without it sync runs inline and async spawns a goroutine
	Notifier Notifier
}

type Dispatcher struct {
	renderer Renderer
	uploader Uploader
	recorder Recorder
	pool     *taskqueue.Pool
	notifier Notifier
	live     *tracker
}

func NewDispatcher(opts Options) *Dispatcher {
	if opts.Notifier == nil {
		opts.Notifier = NewWebhookClient("", 0)
	}
	return &Dispatcher{
		renderer: opts.Renderer,
		uploader: opts.Uploader,
		recorder: opts.Recorder,
		pool:     opts.Pool,
		notifier: opts.Notifier,
		live:     newTracker(),
	}
}

// Status returns the live state of an in-flight render.
func (d *Dispatcher) Status(id string) (LiveStatus, bool) {
	return d.live.get(id)
}

// InFlight is the number of renders queued or running.
func (d *Dispatcher) InFlight() int {
	return d.live.count()
}

// prepare runs the static checks. No process is spawned for a rejected
// script.
func prepare(code string) (string, error) {
	verdict := validator.Validate(code)
	if !verdict.Accepted {
		return "", &ValidationError{Reason: verdict.Reason}
	}
	scene, ok := validator.ExtractEntryPoint(code)
	if !ok {
		return "", ErrSceneNotFound
	}
	return scene, nil
}

// renderAndUpload owns the workspace for the rest of the sequence and
// releases it whether or not the upload succeeds.
func (d *Dispatcher) renderAndUpload(ctx context.Context, id, code, scene string, quality models.Quality) (models.RenderResult, error) {
	d.live.advance(id, StateRendering)
	out, err := d.renderer.Render(ctx, code, scene, quality)
	if err != nil {
		return models.RenderResult{}, err
	}
	defer out.Release()

	d.live.advance(id, StateUploading)
	up, err := d.uploader.UploadPair(ctx, out.VideoPath, out.ThumbnailPath)
	if err != nil {
		return models.RenderResult{}, &UploadError{Err: err}
	}
	return models.RenderResult{Upload: up, Duration: out.Duration}, nil
}

// Execute runs the whole sequence for a waiting caller and returns the
// render id with the result. Client errors are returned before a worker
// slot is taken.
func (d *Dispatcher) Execute(ctx context.Context, req models.RenderRequest) (string, models.RenderResult, error) {
	id := uuid.NewString()
	quality := models.ParseQuality(req.Quality)
	log := logger.For("dispatch").With("id", id)

	d.live.begin(id, records.ModeSync, StateQueued)
	defer d.live.finish(id)

	scene, err := prepare(req.Code)
	if err != nil {
		log.Infof("rejected: %v", err)
		d.record(id, records.ModeSync, quality, "", models.RenderResult{}, err)
		return id, models.RenderResult{}, err
	}

	var res models.RenderResult
	run := func(ctx context.Context) error {
		var err error
		res, err = d.renderAndUpload(ctx, id, req.Code, scene, quality)
		return err
	}
	if d.pool != nil {
		err = d.pool.Run(ctx, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		log.Warnf("render of %s failed: %v", scene, err)
		d.record(id, records.ModeSync, quality, scene, models.RenderResult{}, err)
		return id, models.RenderResult{}, err
	}

	log.Infof("render of %s uploaded to %s", scene, res.Upload.VideoURL)
	d.record(id, records.ModeSync, quality, scene, res, nil)
	return id, res, nil
}

// Submit accepts an async render. On nil error exactly one webhook will be
// delivered to req.WebhookURL; on error none is sent.
func (d *Dispatcher) Submit(req models.AsyncRenderRequest) error {
	id := strings.TrimSpace(req.AnimationID)
	if id == "" {
		return &ValidationError{Reason: "animation_id is required"}
	}
	if strings.TrimSpace(req.WebhookURL) == "" {
		return &ValidationError{Reason: "webhook_url is required"}
	}
	if !d.live.begin(id, records.ModeAsync, StateQueued) {
		return ErrDuplicateID
	}

	task := func(ctx context.Context) { d.runAsync(ctx, id, req) }
	if d.pool == nil {
		go task(context.Background())
		return nil
	}
	if err := d.pool.Submit(task); err != nil {
		d.live.finish(id)
		return err
	}
	return nil
}

func (d *Dispatcher) runAsync(ctx context.Context, id string, req models.AsyncRenderRequest) {
	log := logger.For("dispatch").With("id", id)
	quality := models.ParseQuality(req.Quality)

	var (
		res   models.RenderResult
		err   error
		scene string
	)
	defer func() {
		if r := recover(); r != nil {
			res, err = models.RenderResult{}, &render.ExecutionError{Err: fmt.Errorf("panic: %v", r)}
		}
		d.live.finish(id)
		d.record(id, records.ModeAsync, quality, scene, res, err)
		d.notify(req.WebhookURL, webhookPayload(id, res, err), log)
	}()

	scene, err = prepare(req.Code)
	if err != nil {
		log.Infof("rejected: %v", err)
		return
	}
	res, err = d.renderAndUpload(ctx, id, req.Code, scene, quality)
	if err != nil {
		log.Warnf("render of %s failed: %v", scene, err)
		return
	}
	log.Infof("render of %s uploaded to %s", scene, res.Upload.VideoURL)
}

// notify is best effort. It runs detached from the render context so a
// shutdown cancelling renders still lets the outcome go out.
func (d *Dispatcher) notify(url string, payload models.WebhookPayload, log logger.Scoped) {
	if err := d.notifier.Deliver(context.Background(), url, payload); err != nil {
		log.Errorf("webhook delivery to %s failed: %v", url, err)
		return
	}
	log.Infof("webhook delivered to %s (success=%t)", url, payload.Success)
}

func (d *Dispatcher) record(id, mode string, quality models.Quality, scene string, res models.RenderResult, err error) {
	if d.recorder == nil {
		return
	}
	rec := records.Record{
		ID:        id,
		Mode:      mode,
		Status:    records.StatusCompleted,
		Quality:   string(quality),
		Scene:     scene,
		Timestamp: time.Now(),
	}
	if err != nil {
		rec.Status = records.StatusFailed
		rec.Error = message(err)
	} else {
		rec.VideoURL = res.Upload.VideoURL
		rec.ThumbnailURL = res.Upload.ThumbnailURL
		rec.Duration = res.Duration
	}
	if storeErr := d.recorder.Put(rec); storeErr != nil {
		// Don't fail the render for history storage errors
		logger.Errorf("Failed to store render record %s: %v", id, storeErr)
	}
}

// IsAdmissionError reports whether err means the service is saturated or
// shutting down rather than that the submission is bad.
func IsAdmissionError(err error) bool {
	return errors.Is(err, taskqueue.ErrQueueFull) || errors.Is(err, taskqueue.ErrClosed)
}
