// Package inspect serves a read-mostly HTTP view of the image resources, their
// diagnostics and the process metrics. Every handler touching resources runs
// its work on the interactive thread through the dispatcher.
package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spaghettifunk/imagedata/engine/core"
	"github.com/spaghettifunk/imagedata/engine/renderer/metadata"
	"github.com/spaghettifunk/imagedata/engine/resources"
	"github.com/spaghettifunk/imagedata/engine/systems"
)

var ErrFrameTimeout = errors.New("interactive thread did not run the request in time")

const DefaultFrameTimeout = 5 * time.Second

type Server struct {
	systems *systems.SystemManager
	diags   *metadata.DiagnosticLog
	router  *mux.Router
	srv     *http.Server
	// How long a handler waits for the interactive thread.
	timeout time.Duration
}

type resourceView struct {
	Name         string  `json:"name"`
	DisplayName  string  `json:"display_name"`
	Path         string  `json:"path,omitempty"`
	State        string  `json:"state"`
	PreviewState string  `json:"preview_state"`
	Failed       bool    `json:"failed"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	ScaledWidth  float32 `json:"scaled_width"`
	ScaledHeight float32 `json:"scaled_height"`
	Translucent  bool    `json:"translucent"`
	Masked       bool    `json:"masked"`
	Dynamic      bool    `json:"dynamic"`
	Flat         bool    `json:"flat"`
	Texture      bool    `json:"texture"`
	TextureSize  string  `json:"texture_size,omitempty"`
	// Derived glow colour as #rrggbb, empty while not derived.
	Glow           string `json:"glow,omitempty"`
	GlowBrightness int    `json:"glow_brightness,omitempty"`
}

type diagnosticView struct {
	Severity string `json:"severity"`
	Resource string `json:"resource"`
	Message  string `json:"message"`
}

func NewServer(sm *systems.SystemManager, diags *metadata.DiagnosticLog) *Server {
	s := &Server{
		systems: sm,
		diags:   diags,
		router:  mux.NewRouter(),
		timeout: DefaultFrameTimeout,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/healthz", s.health).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.router.HandleFunc("/resources", s.listResources).Methods("GET")
	s.router.HandleFunc("/resources/reload", s.reloadAll).Methods("POST")
	s.router.HandleFunc("/resources/{name}", s.getResource).Methods("GET")
	s.router.HandleFunc("/resources/{name}/preview", s.getPreview).Methods("GET")
	s.router.HandleFunc("/resources/{name}/reload", s.reloadResource).Methods("POST")
	s.router.HandleFunc("/textures/trim", s.trimTextures).Methods("POST")
	s.router.HandleFunc("/device/reset", s.deviceReset).Methods("POST")
	s.router.HandleFunc("/diagnostics", s.listDiagnostics).Methods("GET")
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// SetFrameTimeout changes how long handlers wait for the interactive thread.
func (s *Server) SetFrameTimeout(d time.Duration) {
	s.timeout = d
}

// Start listens on addr and serves in the background. It returns the bound
// address, useful when addr asks for a random port.
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			core.LogError("inspector stopped: %s", err)
		}
	}()
	core.LogInfo("inspector listening on http://%s", ln.Addr())
	return ln.Addr().String(), nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// onInteractive runs fn on the interactive thread and waits for it.
func (s *Server) onInteractive(r *http.Request, fn func()) error {
	done := make(chan struct{})
	if err := s.systems.Dispatcher.Post(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-r.Context().Done():
		return r.Context().Err()
	case <-time.After(s.timeout):
		return ErrFrameTimeout
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSONStatus(w, "ok")
}

func (s *Server) listResources(w http.ResponseWriter, r *http.Request) {
	var views []resourceView
	err := s.onInteractive(r, func() {
		for _, res := range s.systems.ImageSystem.Resources() {
			views = append(views, s.viewOf(res))
		}
	})
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if views == nil {
		views = []resourceView{}
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, views)
}

func (s *Server) getResource(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var view resourceView
	found := false
	err := s.onInteractive(r, func() {
		if res, ok := s.systems.ImageSystem.Get(name); ok {
			view, found = s.viewOf(res), true
		}
	})
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if !found {
		writeJSONError(w, "image not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, view)
}

func (s *Server) getPreview(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var preview *metadata.Bitmap
	err := s.onInteractive(r, func() {
		res, ok := s.systems.ImageSystem.Get(name)
		if !ok {
			return
		}
		// The first request of an unloaded image starts its load.
		if res.ImageState() == resources.LoadStateNone {
			s.systems.ImageSystem.LoadImage(res, false)
		}
		preview = res.Preview()
	})
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if preview == nil {
		writeJSONError(w, "image not found", http.StatusNotFound)
		return
	}
	defer preview.Dispose()

	img := preview.Image()
	if img == nil {
		writeJSONError(w, "preview not available", http.StatusInternalServerError)
		return
	}
	if preview.IsPlaceholder() {
		w.Header().Set("Cache-Control", "no-store")
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		core.LogError("failed to encode preview of %s: %s", name, err)
	}
}

func (s *Server) reloadResource(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	found, scheduled := false, false
	err := s.onInteractive(r, func() {
		if res, ok := s.systems.ImageSystem.Get(name); ok {
			found = true
			scheduled = s.systems.ImageSystem.Reload(res)
		}
	})
	switch {
	case err != nil:
		writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
	case !found:
		writeJSONError(w, "image not found", http.StatusNotFound)
	case !scheduled:
		writeJSONError(w, "image cannot be reloaded", http.StatusConflict)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		writeJSON(w, map[string]string{"status": "reloading"})
	}
}

func (s *Server) reloadAll(w http.ResponseWriter, r *http.Request) {
	var n int
	if err := s.onInteractive(r, func() { n = s.systems.ImageSystem.ReloadResources() }); err != nil {
		writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]int{"reset": n})
}

func (s *Server) trimTextures(w http.ResponseWriter, r *http.Request) {
	var n int
	if err := s.onInteractive(r, func() { n = s.systems.TextureSystem.TrimUnloadable() }); err != nil {
		writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]int{"released": n})
}

func (s *Server) deviceReset(w http.ResponseWriter, r *http.Request) {
	err := s.onInteractive(r, func() {
		s.systems.Events.Fire(core.EVENT_CODE_DEVICE_RESET, s, core.EventContext{})
	})
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSONStatus(w, "reset")
}

func (s *Server) listDiagnostics(w http.ResponseWriter, r *http.Request) {
	views := []diagnosticView{}
	if s.diags != nil {
		for _, d := range s.diags.Entries() {
			views = append(views, diagnosticView{
				Severity: d.Severity.String(),
				Resource: d.Resource,
				Message:  d.Message,
			})
		}
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, views)
}

func (s *Server) viewOf(res *resources.ImageResource) resourceView {
	v := resourceView{
		Name:         res.Name(),
		DisplayName:  res.DisplayName(),
		Path:         res.FilePath(),
		State:        res.ImageState().String(),
		PreviewState: res.PreviewState().String(),
		Failed:       res.LoadFailed(),
		Width:        res.Width(),
		Height:       res.Height(),
		ScaledWidth:  res.ScaledWidth(),
		ScaledHeight: res.ScaledHeight(),
		Translucent:  res.IsTranslucent(),
		Masked:       res.IsMasked(),
		Dynamic:      res.IsDynamic(),
		Flat:         res.IsFlat(),
	}
	if t := res.Texture(); t != nil {
		v.Texture = true
		v.TextureSize = humanize.Bytes(uint64(t.Width) * uint64(t.Height) * uint64(metadata.BytesPerPixel))
	}
	if s.systems.Glow != nil {
		if f, ok := s.systems.Glow.Get(res.LongName()); ok && !f.CalculateTextureColor {
			if c, ok := colorful.MakeColor(f.Color); ok {
				v.Glow = c.Hex()
				v.GlowBrightness = f.Brightness
			}
		}
	}
	return v
}

// writeJSON encodes v as JSON. Encoding errors are only logged; the status
// line is already out.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		core.LogError("failed to encode JSON response: %s", err)
	}
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

func writeJSONStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": status})
}
