// Package api exposes the parser over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gofhir/hl7v2"
	"github.com/gofhir/hl7v2/pkg/config"
	"github.com/gofhir/hl7v2/pkg/logger"
	"github.com/gofhir/hl7v2/pkg/parser"
	"github.com/gofhir/hl7v2/pkg/query"
	"github.com/gofhir/hl7v2/stream"
)

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	parser  *parser.Parser
	stream  *stream.MessageParser
	query   *query.Evaluator
	metrics *hl7v2.Metrics
	log     *logger.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(cfg config.Config, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	metrics := hl7v2.NewMetrics()
	p := parser.NewWithOptions(cfg.Options).WithLogger(log).WithMetrics(metrics)

	s := &Server{
		parser:  p,
		stream:  stream.NewMessageParser(p).WithWorkerCount(cfg.Server.Workers),
		query:   query.New(cfg.QueryCacheSize),
		metrics: metrics,
		log:     log.Named("api"),
		cfg:     cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Metrics returns the parse metrics collected by the server.
func (s *Server) Metrics() *hl7v2.Metrics {
	return s.metrics
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Use(MaxBody(s.cfg.Server.MaxBodyBytes))

		r.Post("/parse", s.handleParse)
		r.Post("/encode", s.handleEncode)
		r.Post("/batch", s.handleBatch)
		r.Post("/query", s.handleQuery)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/versions", s.handleVersions)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
