// Package api provides HTTP handlers for the scatter server.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/atlasmap-sc/scatter/internal/cache"
	"github.com/atlasmap-sc/scatter/internal/config"
	"github.com/atlasmap-sc/scatter/internal/service"
	"github.com/atlasmap-sc/scatter/pkg/colormap"
)

// ErrDatasetNotFound is returned for an unknown dataset id.
var ErrDatasetNotFound = errors.New("dataset not found")

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// RouterConfig contains router configuration.
type RouterConfig struct {
	Registry    *DatasetRegistry
	Sessions    *service.Store
	Cache       *cache.Manager
	Plot        config.PlotConfig
	CORSOrigins []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Render-Version"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/datasets", datasetsHandler(cfg.Registry))
		r.Get("/colormaps", colormapsHandler)
		r.Get("/cache", cacheStatsHandler(cfg.Cache))
		r.Post("/sessions", createSessionHandler(cfg))

		// Session-scoped routes: /api/sessions/{session}/...
		r.Route("/sessions/{session}", func(r chi.Router) {
			r.Use(sessionMiddleware(cfg.Sessions))

			r.Get("/", sessionInfoHandler)
			r.Delete("/", deleteSessionHandler(cfg.Sessions))
			r.Get("/frame.png", frameHandler)
			r.Put("/size", sizeHandler)
			r.Get("/window", windowHandler)
			r.Put("/window", setWindowHandler)
			r.Get("/selection", selectionHandler)
			r.Put("/selection", setSelectionHandler)
			r.Post("/selection/add", addSelectionHandler)
			r.Post("/selection/remove", removeSelectionHandler)
			r.Post("/gesture", gestureHandler)
			r.Get("/hit", hitHandler)
			r.Get("/stats", statsHandler)
			r.Get("/events", eventsHandler(cfg.CORSOrigins))
		})
	})

	return r
}

// Context key for the session
type ctxKey string

const sessionKey ctxKey = "session"

// sessionMiddleware resolves the session from the URL and injects it into
// the request context.
func sessionMiddleware(store *service.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "session")
			s, err := store.Get(id)
			if err != nil {
				writeError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getSession(r *http.Request) *service.Session {
	if s, ok := r.Context().Value(sessionKey).(*service.Session); ok {
		return s
	}
	return nil
}

// writeError maps service errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, ErrDatasetNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrBadGesture), errors.Is(err, service.ErrBadIndex):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// datasetsHandler returns the list of available datasets.
func datasetsHandler(registry *DatasetRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"default":  registry.DefaultDatasetID(),
			"datasets": registry.Datasets(),
			"title":    registry.Title(),
		})
	}
}

func colormapsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"colormaps": colormap.Names()})
}

func cacheStatsHandler(cm *cache.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cm == nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{})
			return
		}
		writeJSON(w, http.StatusOK, cm.Stats())
	}
}

type createSessionRequest struct {
	Dataset string `json:"dataset"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

type sessionResponse struct {
	ID      string         `json:"id"`
	Dataset string         `json:"dataset"`
	Window  service.Window `json:"window"`
}

func createSessionHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}
		ds := cfg.Registry.Default()
		if req.Dataset != "" {
			ds = cfg.Registry.Get(req.Dataset)
		}
		if ds == nil {
			writeError(w, ErrDatasetNotFound)
			return
		}
		if req.Width < 0 || req.Height < 0 {
			http.Error(w, "invalid size", http.StatusBadRequest)
			return
		}

		plotCfg := cfg.Plot
		if req.Width > 0 {
			plotCfg.Width = req.Width
		}
		if req.Height > 0 {
			plotCfg.Height = req.Height
		}
		s, err := cfg.Sessions.Create(service.SessionConfig{
			Dataset: ds,
			Plot:    plotCfg,
			Cache:   cfg.Cache,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		win, err := s.Window(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sessionResponse{ID: s.ID(), Dataset: ds.ID, Window: win})
	}
}

func sessionInfoHandler(w http.ResponseWriter, r *http.Request) {
	s := getSession(r)
	win, err := s.Window(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: s.ID(), Dataset: s.Dataset().ID, Window: win})
}

func deleteSessionHandler(store *service.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(getSession(r).ID()); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func frameHandler(w http.ResponseWriter, r *http.Request) {
	data, version, err := getSession(r).Frame(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Render-Version", strconv.FormatUint(version, 10))
	w.Write(data)
}

type sizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func sizeHandler(w http.ResponseWriter, r *http.Request) {
	var req sizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := getSession(r).Resize(r.Context(), req.Width, req.Height); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func windowHandler(w http.ResponseWriter, r *http.Request) {
	win, err := getSession(r).Window(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, win)
}

func setWindowHandler(w http.ResponseWriter, r *http.Request) {
	var req service.Window
	if !decodeJSON(w, r, &req) {
		return
	}
	win, err := getSession(r).SetWindow(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, win)
}

type selectionBody struct {
	Indices []int `json:"indices"`
}

func selectionHandler(w http.ResponseWriter, r *http.Request) {
	idx, err := getSession(r).Selection(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionBody{Indices: idx})
}

func selectionUpdate(apply func(s *service.Session, ctx context.Context, idx []int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req selectionBody
		if !decodeJSON(w, r, &req) {
			return
		}
		s := getSession(r)
		if err := apply(s, r.Context(), req.Indices); err != nil {
			writeError(w, err)
			return
		}
		selectionHandler(w, r)
	}
}

var (
	setSelectionHandler    = selectionUpdate((*service.Session).SetSelection)
	addSelectionHandler    = selectionUpdate((*service.Session).AddToSelection)
	removeSelectionHandler = selectionUpdate((*service.Session).RemoveFromSelection)
)

func gestureHandler(w http.ResponseWriter, r *http.Request) {
	var g service.Gesture
	if !decodeJSON(w, r, &g) {
		return
	}
	if err := getSession(r).Apply(r.Context(), g); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func hitHandler(w http.ResponseWriter, r *http.Request) {
	x, okX := parseCoord(r.URL.Query().Get("x"))
	y, okY := parseCoord(r.URL.Query().Get("y"))
	if !okX || !okY {
		http.Error(w, "invalid x or y", http.StatusBadRequest)
		return
	}
	idx, err := getSession(r).Hit(r.Context(), x, y)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionBody{Indices: idx})
}

func parseCoord(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func statsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := getSession(r).Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
