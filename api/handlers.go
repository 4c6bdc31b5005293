package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gofhir/hl7v2"
	"github.com/gofhir/hl7v2/cache"
	"github.com/gofhir/hl7v2/pkg/fhirmap"
	"github.com/gofhir/hl7v2/pkg/parser"
	"github.com/gofhir/hl7v2/pkg/query"
	"github.com/gofhir/hl7v2/stream"
)

// messageResponse is the JSON view of a parsed message.
type messageResponse struct {
	ControlID   string        `json:"control_id,omitempty"`
	MessageType string        `json:"message_type,omitempty"`
	Version     string        `json:"version,omitempty"`
	Structure   string        `json:"structure,omitempty"`
	Valid       bool          `json:"valid"`
	Issues      []hl7v2.Issue `json:"issues,omitempty"`
	Segments    []string      `json:"segments,omitempty"`
}

type batchResponse struct {
	Summary      string            `json:"summary"`
	Total        int               `json:"total"`
	WithErrors   int               `json:"with_errors"`
	WithWarnings int               `json:"with_warnings"`
	TotalIssues  int               `json:"total_issues"`
	Errors       []string          `json:"errors,omitempty"`
	Messages     []messageResponse `json:"messages"`
}

type queryResponse struct {
	Expression string   `json:"expression"`
	Result     []string `json:"result"`
}

type metricsResponse struct {
	Parse      hl7v2.Snapshot `json:"parse"`
	QueryCache cache.Stats    `json:"query_cache"`
}

// handleParse parses one message. XML content types go through the XML
// parser; ?output=fhir returns a FHIR Bundle instead of the message view.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.parseRequest(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("output") == "fhir" {
		w.Header().Set("Content-Type", "application/fhir+json")
		json.NewEncoder(w).Encode(fhirmap.Bundle(doc.Tree))
		return
	}
	writeJSON(w, http.StatusOK, s.describe(doc, true))
}

// handleEncode parses a message and returns it re-encoded.
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.parseRequest(w, r)
	if !ok {
		return
	}
	text, err := s.parser.Encode(doc.Tree)
	if err != nil {
		jsonError(w, "failed to encode message: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, text)
}

// handleBatch parses a multi-message body.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	agg := stream.Aggregate(s.stream.ParseStreamParallel(r.Context(), bytes.NewReader(body)))
	resp := batchResponse{
		Summary:      agg.Summary(),
		Total:        agg.TotalMessages,
		WithErrors:   agg.MessagesWithErrors,
		WithWarnings: agg.MessagesWithWarnings,
		TotalIssues:  agg.TotalIssues,
		Messages:     make([]messageResponse, 0, len(agg.Documents)),
	}
	for _, err := range agg.ProcessingErrors {
		resp.Errors = append(resp.Errors, err.Error())
	}
	for _, doc := range agg.Documents {
		resp.Messages = append(resp.Messages, s.describe(doc, false))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleQuery evaluates ?expr= over the message mapped to a FHIR Bundle.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	expr := strings.TrimSpace(r.URL.Query().Get("expr"))
	if expr == "" {
		jsonError(w, "expr query parameter is required", http.StatusBadRequest)
		return
	}
	if _, err := s.query.Compile(expr); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, ok := s.parseRequest(w, r)
	if !ok {
		return
	}
	result, err := s.query.Query(r.Context(), expr, doc.Tree)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{Expression: expr, Result: query.Strings(result)})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metricsResponse{
		Parse:      s.metrics.Snapshot(),
		QueryCache: s.query.Stats(),
	})
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	versions := hl7v2.Versions()
	out := make([]string, len(versions))
	for i, v := range versions {
		out[i] = v.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": out, "default": s.cfg.Options.DefaultVersion})
}

// parseRequest reads and parses the body, writing the error response itself
// when it fails.
func (s *Server) parseRequest(w http.ResponseWriter, r *http.Request) (*parser.Document, bool) {
	body, ok := readBody(w, r)
	if !ok {
		return nil, false
	}

	var (
		doc *parser.Document
		err error
	)
	if strings.Contains(r.Header.Get("Content-Type"), "xml") {
		doc, err = s.parser.ParseXML(bytes.NewReader(body))
	} else {
		doc, err = s.parser.ParseBytes(body)
	}
	switch {
	case errors.Is(err, parser.ErrEmptyMessage):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	case err != nil:
		s.log.Debug("parse failed: %v", err)
		jsonError(w, "failed to parse message: "+err.Error(), http.StatusUnprocessableEntity)
		return nil, false
	}
	return doc, true
}

func (s *Server) describe(doc *parser.Document, segments bool) messageResponse {
	resp := messageResponse{
		ControlID:   doc.ControlID(),
		MessageType: doc.MessageType(),
		Version:     doc.Version(),
	}
	if doc.Result != nil {
		resp.Structure = doc.Result.Structure
		resp.Valid = doc.Result.Valid
		resp.Issues = doc.Result.Issues
	}
	if segments && doc.Tree != nil {
		for _, seg := range doc.Tree.Segments() {
			resp.Segments = append(resp.Segments, s.parser.EncodeSegment(seg))
		}
	}
	return resp
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("body exceeds max size (%d bytes)", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
