// Package control exposes the recording store over a local HTTP API.
package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sadopc/apidoc-recorder/internal/capture"
	"github.com/sadopc/apidoc-recorder/internal/export/har"
	"github.com/sadopc/apidoc-recorder/internal/recorder"
)

// Server serves the control API for one store.
type Server struct {
	store    *recorder.Store
	log      zerolog.Logger
	origins  []string
	redactor *capture.Redactor
	now      func() time.Time
	handler  http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithAllowOrigins enables CORS for the given browser origins.
func WithAllowOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithRedactor masks exported entries with r.
func WithRedactor(r *capture.Redactor) Option {
	return func(s *Server) { s.redactor = r }
}

// WithClock overrides the time source used for exports.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewServer builds the router for store.
func NewServer(store *recorder.Store, opts ...Option) *Server {
	s := &Server{
		store: store,
		log:   zerolog.Nop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.origins = s.validOrigins(s.origins)

	r := gin.New()
	r.Use(gin.Recovery())
	if len(s.origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  s.origins,
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
			MaxAge:        12 * time.Hour,
		}))
	}
	r.Use(requestLogger(s.log))

	api := r.Group("/api")
	{
		api.GET("/state", s.getState)
		api.PUT("/state", s.putState)

		api.GET("/requests", s.listRequests)
		api.POST("/requests", s.appendRequest)
		api.DELETE("/requests", s.clearRequests)
		api.GET("/requests/:seq", s.getRequest)

		api.GET("/export.har", s.exportHAR)
	}

	// Served outside gin so the websocket upgrade can hijack the connection.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/events", s.events)
	mux.Handle("/", r)
	s.handler = mux
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.log.Info().Str("addr", ln.Addr().String()).Msg("control api listening")

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("control api shutdown")
		}
		<-errc
		return nil
	}
}

func (s *Server) validOrigins(in []string) []string {
	var out []string
	for _, o := range in {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" || strings.HasPrefix(o, "http://") || strings.HasPrefix(o, "https://") {
			out = append(out, o)
			continue
		}
		if o != "" {
			s.log.Warn().Str("origin", o).Msg("ignoring origin without http(s) scheme")
		}
	}
	return out
}

// originHosts converts the CORS allow-list to websocket origin patterns.
func (s *Server) originHosts() []string {
	var hosts []string
	for _, o := range s.origins {
		if o == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
		}
	}
	return hosts
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("control request")
	}
}

func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Get())
}

func (s *Server) putState(c *gin.Context) {
	var st recorder.State
	if err := c.ShouldBindJSON(&st); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_state", Message: err.Error()})
		return
	}
	if err := s.store.Set(st); err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) listRequests(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Entries())
}

func (s *Server) getRequest(c *gin.Context) {
	seq, err := strconv.Atoi(c.Param("seq"))
	if err != nil || seq < 1 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_seq", Message: "seq must be a positive integer"})
		return
	}
	entries := s.store.Entries()
	if seq > len(entries) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "not_found", Message: fmt.Sprintf("no request #%d", seq)})
		return
	}
	c.JSON(http.StatusOK, entries[seq-1])
}

func (s *Server) appendRequest(c *gin.Context) {
	var e capture.Entry
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_entry", Message: err.Error()})
		return
	}
	if !capture.ValidStatus(e.StatusCode) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_entry", Message: fmt.Sprintf("status_code %d is not an HTTP status", e.StatusCode)})
		return
	}
	if e.LatencyMs < 0 {
		e.LatencyMs = 0
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now().UTC()
	}
	count, err := s.store.AppendEntry(e)
	if errors.Is(err, recorder.ErrInvalidEntry) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid_entry", Message: err.Error()})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": count})
}

func (s *Server) clearRequests(c *gin.Context) {
	if err := s.store.Clear(); err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) exportHAR(c *gin.Context) {
	entries := s.redactor.Apply(s.store.Entries())
	now := s.now()
	data, err := har.Export(entries, now)
	if errors.Is(err, har.ErrNoEntries) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "no_entries", Message: err.Error()})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", har.FileName(now)))
	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("control request failed")
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: err.Error()})
}
