package hosting

import (
	"context"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request ID.
const HeaderRequestID = "X-Request-ID"

// Health is the response of the health endpoint.
type Health struct {
	Status string   `json:"status"`
	Tools  int      `json:"tools"`
	Names  []string `json:"tool_names,omitempty"`
}

// HealthFunc returns the current health.
type HealthFunc func() Health

// Server serves the messaging endpoint.
type Server struct {
	server *http.Server
}

// NewHandler returns the HTTP routes: POST /api/messages and GET /healthz.
func NewHandler(adapter *Adapter, health HealthFunc) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /api/messages", adapter)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		h := Health{Status: "ok"}
		if health != nil {
			h = health()
		}
		writeJSON(w, http.StatusOK, h)
	})
	return chain(mux, withRecover, withLogging, withRequestID)
}

// NewServer returns a Server listening on the port.
func NewServer(port int, handler http.Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:              net.JoinHostPort("", strconv.Itoa(port)),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// ListenAndServe blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	logger.KV(xlog.INFO, "status", "listening", "addr", s.server.Addr)
	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server failed")
	}
	return nil
}

// Shutdown stops the server, waiting for the turns in flight.
func (s *Server) Shutdown(ctx context.Context) error {
	return errors.WithStack(s.server.Shutdown(ctx))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(HeaderRequestID, id)
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r)
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.ContextKV(r.Context(), xlog.DEBUG,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"request_id", r.Header.Get(HeaderRequestID),
			"elapsed", time.Since(started).String(),
		)
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.ContextKV(r.Context(), xlog.ERROR,
					"status", "panic",
					"path", r.URL.Path,
					"err", v,
					"stack", string(debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// chain applies the middlewares in order, the last one is the outermost.
func chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}
