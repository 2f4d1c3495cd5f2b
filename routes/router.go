package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"manimserve/job"
	"manimserve/records"
	"manimserve/storage"
	"manimserve/taskqueue"
)

// Deps are the long-lived collaborators shared by every request.
type Deps struct {
	Dispatcher *job.Dispatcher
	Store      *records.Store  // optional
	Backend    storage.Backend // optional, used by /health?deep=true
	Pool       *taskqueue.Pool // optional, reported by /health?deep=true
	MediaDir   string          // served under /media/ when set
}

type Handler struct {
	d Deps
}

func NewRouter(d Deps) http.Handler {
	h := &Handler{d: d}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/version", h.Version)

	r.Post("/execute", h.Execute)
	r.Post("/execute-async", h.ExecuteAsync)

	r.Get("/renders", h.ListRenders)
	r.Get("/renders/{renderId}", h.GetRender)

	if d.MediaDir != "" {
		media := http.StripPrefix(storage.MediaRoute, http.FileServer(http.Dir(d.MediaDir)))
		r.Get(storage.MediaRoute+"*", media.ServeHTTP)
	}

	return r
}

var (
	corsMethods = strings.Join([]string{"GET", "POST", "OPTIONS"}, ", ")
	corsHeaders = strings.Join([]string{"Content-Type", "Authorization", "Accept"}, ", ")
)

// cors allows any origin. Preflight requests are answered directly.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", corsMethods)
		w.Header().Set("Access-Control-Allow-Headers", corsHeaders)
		w.Header().Set("Access-Control-Max-Age", "600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
