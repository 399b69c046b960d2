// Package ingress receives motion samples over HTTP(S) and forwards them to
// the dashboard. It also serves the browser page that produces them.
package ingress

import (
	"context"
	"crypto/tls"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dm/motion-go/internal/model"
)

//go:embed static
var embedded embed.FS

const (
	maxPayloadBytes = 4 << 10
	shutdownTimeout = 5 * time.Second
	requestIDHeader = "X-Request-Id"
)

// SampleSender is the producing side of the dashboard channel.
type SampleSender interface {
	Send(model.Sample) error
	Pending() int
}

// Options configures a Server. Zero values are usable.
type Options struct {
	// StaticDir overrides the embedded browser page with files from disk.
	StaticDir string
	// CertFile and KeyFile enable TLS when both are set. They are loaded by New.
	CertFile, KeyFile string
	Logger            *slog.Logger
	// Now stamps incoming samples; defaults to time.Now.
	Now func() time.Time
}

// Server is the ingress HTTP endpoint.
type Server struct {
	tx      SampleSender
	opts    Options
	log     *slog.Logger
	metrics *Metrics
	static  fs.FS
	tls     *tls.Config

	// detached is set after the first undelivered sample so the warning is
	// logged once instead of for every request.
	detached atomic.Bool
}

// New builds a Server that forwards samples to tx.
func New(tx SampleSender, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var static fs.FS
	if opts.StaticDir != "" {
		info, err := os.Stat(opts.StaticDir)
		if err != nil {
			return nil, fmt.Errorf("static dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("static dir: %s is not a directory", opts.StaticDir)
		}
		static = os.DirFS(opts.StaticDir)
	} else {
		sub, err := fs.Sub(embedded, "static")
		if err != nil {
			return nil, fmt.Errorf("embedded static: %w", err)
		}
		static = sub
	}

	// Load the key pair up front so a bad certificate fails before the
	// dashboard takes over the terminal.
	var tlsConfig *tls.Config
	if opts.CertFile != "" && opts.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load TLS key pair: %w", err)
		}
		tlsConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	return &Server{
		tx:      tx,
		opts:    opts,
		log:     opts.Logger,
		metrics: newMetrics(tx.Pending),
		static:  static,
		tls:     tlsConfig,
	}, nil
}

// Metrics exposes the server's counters.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/motion", s.handleMotion)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/", http.FileServerFS(s.static))
	return withRequestID(mux)
}

// motionPayload is the JSON body of POST /motion. Pointers distinguish a
// missing field from an explicit zero.
type motionPayload struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

func (s *Server) handleMotion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	defer func() { s.metrics.latency.Observe(time.Since(start).Seconds()) }()

	reqID := requestID(r.Context())

	var p motionPayload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err := dec.Decode(&p); err != nil {
		s.reject(w, reqID, fmt.Errorf("decode body: %w", err))
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		s.reject(w, reqID, errors.New("decode body: unexpected data after JSON object"))
		return
	}
	if p.X == nil || p.Y == nil || p.Z == nil {
		s.reject(w, reqID, errors.New("x, y and z are required"))
		return
	}

	sample := model.Sample{X: *p.X, Y: *p.Y, Z: *p.Z, Timestamp: s.opts.Now()}
	s.metrics.received.Inc()

	if err := s.tx.Send(sample); err != nil {
		// Ingestion keeps working with no dashboard attached; the client
		// still gets 200.
		s.metrics.undelivered.Inc()
		if !s.detached.Swap(true) {
			s.log.Warn("ingress: dashboard not consuming, samples will be dropped",
				"request_id", reqID, "error", err)
		} else {
			s.log.Debug("ingress: sample dropped", "request_id", reqID, "error", err)
		}
	} else {
		s.log.Debug("ingress: sample",
			"request_id", reqID, "x", sample.X, "y", sample.Y, "z", sample.Z)
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) reject(w http.ResponseWriter, reqID string, err error) {
	s.metrics.rejected.Inc()
	s.log.Info("ingress: sample rejected", "request_id", reqID, "error", err)
	http.Error(w, err.Error(), http.StatusBadRequest)
}

// TLSEnabled reports whether the server was given a certificate.
func (s *Server) TLSEnabled() bool {
	return s.tls != nil
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. It closes ln. A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
		TLSConfig:         s.tls,
	}

	scheme := "http"
	if s.TLSEnabled() {
		scheme = "https"
	}
	s.log.Info("ingress: listening", "url", scheme+"://"+ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if s.TLSEnabled() {
			err = srv.ServeTLS(ln, "", "")
		} else {
			err = srv.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.log.Info("ingress: stopped")
		return nil
	})
	return g.Wait()
}

type ctxKey struct{}

// withRequestID tags every request with an id, reusing one supplied by the
// client, and echoes it in the response.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
