//go:build unix

package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"manimserve/job"
	"manimserve/models"
	"manimserve/records"
	"manimserve/render"
	"manimserve/storage"
	"manimserve/taskqueue"
)

const demoScript = "from manim import *\n\nclass Demo(Scene):\n    def construct(self):\n        self.play(Create(Circle()))\n"

type e2eEnv struct {
	srv      *httptest.Server
	toolsDir string
	pool     *taskqueue.Pool
}

func fakeTool(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

// newE2E wires the real supervisor, uploader, store and pool behind an
// HTTP server, with shell scripts standing in for manim, ffmpeg and ffprobe.
func newE2E(t *testing.T) *e2eEnv {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	tools := t.TempDir()
	sup := &render.Supervisor{
		ManimBin: fakeTool(t, tools, "manim",
			`echo "$4" >> "$(dirname "$0")/workspaces"`+"\n"+
				`mkdir -p "$4/videos/scene/480p15" && printf video > "$4/videos/scene/480p15/$6.mp4"`+"\n"+
				`printf 'Animation 0: Create(Circle): 100%%|##########| 15/15 [00:00<00:00, 40.1it/s]\r' >&2`+"\n"),
		FFmpegBin:  fakeTool(t, tools, "ffmpeg", "for last; do :; done\nprintf png > \"$last\"\n"),
		FFprobeBin: fakeTool(t, tools, "ffprobe", "echo 1.000000\n"),
		Timeout:    10 * time.Second,
	}

	store, err := records.Open(filepath.Join(t.TempDir(), "renders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	pool := taskqueue.NewPool(2, 4)
	t.Cleanup(func() { pool.Shutdown(context.Background()) })

	var handler http.Handler
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	serveDir := t.TempDir()
	backend, err := storage.NewLocalBackend(serveDir, srv.URL)
	require.NoError(t, err)

	d := job.NewDispatcher(job.Options{
		Renderer: sup,
		Uploader: storage.NewUploader(backend),
		Recorder: store,
		Pool:     pool,
		Notifier: job.NewWebhookClient("webhook-secret-that-is-at-least-32-bytes", 5*time.Second),
	})
	handler = NewRouter(Deps{Dispatcher: d, Store: store, Backend: backend, Pool: pool, MediaDir: serveDir})

	return &e2eEnv{srv: srv, toolsDir: tools, pool: pool}
}

func (e *e2eEnv) post(t *testing.T, path string, v any) (*http.Response, []byte) {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	resp, err := http.Post(e.srv.URL+path, "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *e2eEnv) workspaces(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.toolsDir, "workspaces"))
	require.NoError(t, err)
	return strings.Fields(string(data))
}

func TestE2ESyncRender(t *testing.T) {
	e := newE2E(t)

	resp, data := e.post(t, "/execute", models.RenderRequest{Code: demoScript, Quality: "l"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var out models.RenderResponse
	require.NoError(t, json.Unmarshal(data, &out))
	require.True(t, out.Success)
	require.Equal(t, "Video rendered and uploaded successfully", out.Message)
	require.NotNil(t, out.VideoURL)
	require.True(t, strings.HasPrefix(*out.VideoURL, e.srv.URL+"/media/videos/Demo_"), *out.VideoURL)
	require.NotNil(t, out.ThumbnailURL)
	require.NotNil(t, out.Duration)
	require.GreaterOrEqual(t, *out.Duration, 0.0)

	media, err := http.Get(*out.VideoURL)
	require.NoError(t, err)
	content, _ := io.ReadAll(media.Body)
	media.Body.Close()
	require.Equal(t, http.StatusOK, media.StatusCode)
	require.Equal(t, "video", string(content))

	for _, ws := range e.workspaces(t) {
		require.NoDirExists(t, ws)
	}

	id := resp.Header.Get("X-Render-Id")
	require.NotEmpty(t, id)
	stored, err := http.Get(e.srv.URL + "/renders/" + id)
	require.NoError(t, err)
	var rec records.Record
	require.NoError(t, json.NewDecoder(stored.Body).Decode(&rec))
	stored.Body.Close()
	require.Equal(t, records.StatusCompleted, rec.Status)
	require.Equal(t, *out.VideoURL, rec.VideoURL)
}

func TestE2EDangerousImport(t *testing.T) {
	e := newE2E(t)

	resp, data := e.post(t, "/execute", models.RenderRequest{Code: demoScript + "\nimport os\n", Quality: "l"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, string(data), "os")
	require.NoFileExists(t, filepath.Join(e.toolsDir, "workspaces"), "renderer never ran")
}

func TestE2EAsyncRender(t *testing.T) {
	e := newE2E(t)

	hooks := make(chan models.WebhookPayload, 4)
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p models.WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err == nil {
			hooks <- p
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer receiver.Close()

	resp, data := e.post(t, "/execute-async", models.AsyncRenderRequest{
		Code:        demoScript,
		Quality:     "l",
		AnimationID: "abc123",
		WebhookURL:  receiver.URL,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var ack models.AsyncAccepted
	require.NoError(t, json.Unmarshal(data, &ack))
	require.True(t, ack.Success)
	require.Equal(t, "abc123", ack.AnimationID)

	select {
	case p := <-hooks:
		require.Equal(t, "abc123", p.AnimationID)
		require.True(t, p.Success)
		require.NotNil(t, p.VideoURL)
	case <-time.After(10 * time.Second):
		t.Fatal("webhook not delivered")
	}

	require.NoError(t, e.pool.Shutdown(context.Background()))
	select {
	case p := <-hooks:
		t.Fatalf("second webhook delivered: %+v", p)
	case <-time.After(100 * time.Millisecond):
	}
	for _, ws := range e.workspaces(t) {
		require.NoDirExists(t, ws)
	}
}
