// Package dirserve provides a short-lived loopback HTTP server over a
// directory, for testing code that fetches files over HTTP.
//
// The server counts every request it handles and can be configured to fail
// the first N requests, which lets tests exercise retry and download logic
// against a real socket:
//
//	srv := dirserve.NewTestServer(t, rootDir, 2)
//	resp, err := http.Get(srv.URL() + "/hello.txt") // fails twice, then serves
//
// Request handling is silent; lifecycle events log at trace level only.
package dirserve

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/interline-io/dirserve/counter"
	"github.com/interline-io/log"
)

// Server serves a directory over plain HTTP, counting every request and
// optionally failing the first N of them.
type Server struct {
	dir         string
	missingRoot string
	failures    *counter.Counter
	requests    *counter.Counter
	handler     *fileHandler
	listener    net.Listener
	srv         *http.Server
	running     atomic.Bool
	stopOnce    sync.Once
}

// New binds addr:port immediately and returns a server ready for Serve.
// The first simulateFailures requests are served from a root that does not
// exist, producing not-found responses.
func New(addr string, port int, dir string, simulateFailures int) (*Server, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", addr, port))
	if err != nil {
		return nil, fmt.Errorf("dirserve: bind %s:%d: %w", addr, port, err)
	}
	s := &Server{
		dir:         dir,
		missingRoot: filepath.Join(os.TempDir(), "dirserve-missing-"+uuid.NewString()),
		failures:    counter.New(int64(simulateFailures)),
		requests:    counter.New(0),
		listener:    ln,
	}
	s.handler = &fileHandler{chooseRoot: s.pickRoot}
	s.srv = &http.Server{
		Handler:  s,
		ErrorLog: stdlog.New(io.Discard, "", 0),
	}
	return s, nil
}

// fileHandler serves static files from whatever root chooseRoot returns for
// the current request.
type fileHandler struct {
	chooseRoot func() string
}

func (h *fileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.FileServer(http.Dir(h.chooseRoot())).ServeHTTP(w, r)
}

// ServeHTTP counts the request, then dispatches it to the file handler. The
// count reflects requests attempted, including injected failures.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.requests.Inc()
	log.TraceCheck(func() {
		log.Trace().Str("method", r.Method).Str("path", r.URL.Path).Msg("dirserve: request")
	})
	s.handler.ServeHTTP(w, r)
}

// pickRoot drains the failure budget. A successful take serves this one
// request from a root that does not exist, which the file handler turns into
// a not-found response.
func (s *Server) pickRoot() string {
	if s.failures.TakeIfPositive() {
		return s.missingRoot
	}
	return s.dir
}

// Serve accepts connections until Shutdown, blocking the calling goroutine.
// Run it on its own goroutine. Returns nil after a clean shutdown.
func (s *Server) Serve() error {
	s.running.Store(true)
	defer s.running.Store(false)
	log.Trace().Str("addr", s.Addr()).Str("dir", s.dir).Msg("dirserve: serving")
	if err := s.srv.Serve(s.listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting briefly for in-flight requests before
// closing any remaining connections. Idempotent and safe to call from any
// goroutine.
func (s *Server) Shutdown() {
	s.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(ctx); err != nil {
			s.srv.Close()
		}
		s.running.Store(false)
		log.Trace().Str("addr", s.Addr()).Msg("dirserve: stopped")
	})
}

// Addr returns the bound host:port.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Port returns the bound port.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// URL returns the base URL for building requests against the server.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// Running reports whether the server is accepting connections.
func (s *Server) Running() bool {
	return s.running.Load()
}

// RequestCount returns the number of requests handled so far, counting
// injected failures.
func (s *Server) RequestCount() int64 {
	return s.requests.Value()
}

// FailuresRemaining returns how many requests will still be failed.
func (s *Server) FailuresRemaining() int64 {
	return s.failures.Value()
}
