// Package api exposes the counting session over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/roadmetrics/vcount/count"
	"github.com/roadmetrics/vcount/internal/db"
	"github.com/roadmetrics/vcount/internal/monitoring"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server serves the session state, the region and the event journal.
type Server struct {
	session *count.Session
	db      *db.DB
}

// NewServer creates a server. database may be nil, which disables the
// journal endpoints.
func NewServer(session *count.Session, database *db.DB) *Server {
	return &Server{
		session: session,
		db:      database,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status and duration per request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux registers all handlers.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/counts", s.showCounts)
	mux.HandleFunc("/api/frame", s.showFrame)
	mux.HandleFunc("/api/roi", s.handleRegion)
	mux.HandleFunc("/api/reset", s.handleReset)
	mux.HandleFunc("/api/events", s.listEvents)
	mux.HandleFunc("/api/summary", s.showSummary)
	mux.HandleFunc("/charts/counts", s.showCountsChart)
	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("api: encode response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

type countsResponse struct {
	Total   int            `json:"total"`
	ByClass map[string]int `json:"by_class"`
}

func (s *Server) showCounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, countsResponse{
		Total:   s.session.Total(),
		ByClass: s.session.ByClass(),
	})
}

type frameResponse struct {
	All   map[count.TrackID]count.Detection `json:"all"`
	InROI map[count.TrackID]count.Detection `json:"in_roi"`
}

func (s *Server) showFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, frameResponse{
		All:   s.session.FrameAll(),
		InROI: s.session.FrameInROI(),
	})
}

type regionResponse struct {
	Defined bool          `json:"defined"`
	Polygon count.Polygon `json:"polygon,omitempty"`
}

type regionRequest struct {
	Polygon count.Polygon `json:"polygon"`
}

func (s *Server) handleRegion(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		polygon := s.session.Region().Polygon()
		s.writeJSON(w, http.StatusOK, regionResponse{
			Defined: polygon != nil,
			Polygon: polygon,
		})
	case http.MethodPost:
		var req regionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := s.session.Region().Set(req.Polygon); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, regionResponse{
			Defined: true,
			Polygon: s.session.Region().Polygon(),
		})
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.session.Reset()
	if s.db != nil && r.URL.Query().Get("journal") == "1" {
		if err := s.db.Clear(); err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to clear the journal")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.db == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "Journal disabled")
		return
	}
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}
	events, err := s.db.CountEvents(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to read the journal")
		return
	}
	if events == nil {
		events = []db.CountEventRow{}
	}
	s.writeJSON(w, http.StatusOK, events)
}

// showSummary serves the journal's view of the totals. Unlike /api/counts
// it survives session resets, the journal is only cleared on request.
func (s *Server) showSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.db == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "Journal disabled")
		return
	}
	summary, err := s.db.Summary()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to read the journal")
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) showCountsChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	byClass := s.session.ByClass()
	classes := make([]string, 0, len(byClass))
	for class := range byClass {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	items := make([]opts.BarData, 0, len(classes))
	for _, class := range classes {
		items = append(items, opts.BarData{Value: byClass[class]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Vehicle Counts", Width: "720px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Vehicles counted by class", Subtitle: fmt.Sprintf("total=%d", s.session.Total())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(classes).AddSeries("vehicles", items)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
