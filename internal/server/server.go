package server

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agenthands/helix/internal/core"
	"github.com/agenthands/helix/internal/query"
	"github.com/agenthands/helix/internal/record"
)

// Server exposes the query library and the import pipeline over HTTP.
type Server struct {
	Library  *query.Library
	Pipeline *core.Pipeline
	Log      *log.Logger
}

func New(lib *query.Library, pipe *core.Pipeline, logger *log.Logger) *Server {
	return &Server{Library: lib, Pipeline: pipe, Log: logger}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/patients/:name", s.PatientByName)
	r.GET("/patients", s.Patients)
	r.GET("/visits", s.Visits)
	r.POST("/search/notes", s.SearchNotes)
	r.POST("/search/similar", s.SearchSimilar)
	r.POST("/search/nearby", s.SearchNearby)
	r.POST("/records", s.ImportRecords)
	r.GET("/healthz", s.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func (s *Server) fail(c *gin.Context, err error, msg string) {
	s.Log.Error(msg, "err", err)
	if errors.Is(err, query.ErrBadFilter) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, query.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func (s *Server) PatientByName(c *gin.Context) {
	trees, err := s.Library.PatientByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		s.fail(c, err, "Failed to look up patient")
		return
	}
	if len(trees) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No patient with that name"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": trees})
}

// Patients lists patients matching filter params of the form
// field:op:value, or field:has for existence checks. Filters combine
// with AND.
func (s *Server) Patients(c *gin.Context) {
	filters, err := parseFilters(c.QueryArray("filter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patients, err := s.Library.PatientsWhere(c.Request.Context(), filters)
	if err != nil {
		s.fail(c, err, "Failed to list patients")
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": patients})
}

func (s *Server) Visits(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required"})
		return
	}

	visits, err := s.Library.VisitsInRange(c.Request.Context(), from, to)
	if err != nil {
		s.fail(c, err, "Failed to list visits")
		return
	}
	c.JSON(http.StatusOK, gin.H{"visits": visits})
}

type searchNotesRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

func (s *Server) SearchNotes(c *gin.Context) {
	var req searchNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	hits, err := s.Library.SearchNotes(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		s.fail(c, err, "Failed to search notes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"hits": hits})
}

type searchSimilarRequest struct {
	Kind      string  `json:"kind"`
	Text      string  `json:"text" binding:"required"`
	Threshold float64 `json:"threshold"`
	Limit     int     `json:"limit"`
}

func (s *Server) SearchSimilar(c *gin.Context) {
	var req searchSimilarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	hits, err := s.Library.SimilarNodes(c.Request.Context(), req.Kind, req.Text, req.Threshold, req.Limit)
	if err != nil {
		s.fail(c, err, "Failed to run similarity search")
		return
	}
	c.JSON(http.StatusOK, gin.H{"hits": hits})
}

type searchNearbyRequest struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
	Limit        int     `json:"limit"`
}

func (s *Server) SearchNearby(c *gin.Context) {
	var req searchNearbyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.RadiusMeters <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "radius_meters must be positive"})
		return
	}

	providers, err := s.Library.ProvidersNear(c.Request.Context(),
		req.Latitude, req.Longitude, req.RadiusMeters, req.Limit)
	if err != nil {
		s.fail(c, err, "Failed to run nearby search")
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

type outcomeView struct {
	SourceID string `json:"source_id"`
	Patient  string `json:"patient,omitempty"`
	Nodes    int    `json:"nodes,omitempty"`
	Edges    int    `json:"edges,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ImportRecords accepts intermediate documents, one or an array, and
// imports them without extraction. Per-record failures are reported in
// the body, not as a request failure.
func (s *Server) ImportRecords(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	recs, err := record.ParseDocuments(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid documents"})
		return
	}
	if len(recs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No documents in request"})
		return
	}

	summary, err := s.Pipeline.ImportRecords(c.Request.Context(), recs)
	if err != nil {
		s.Log.Error("import failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import records"})
		return
	}

	outcomes := make([]outcomeView, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		view := outcomeView{SourceID: o.SourceID, Patient: o.Patient}
		if o.Result != nil {
			view.Nodes = o.Result.Nodes
			view.Edges = o.Result.Edges
		}
		if o.Err != nil {
			view.Error = o.Err.Error()
		}
		outcomes = append(outcomes, view)
	}
	c.JSON(http.StatusOK, gin.H{
		"processed": summary.Processed,
		"imported":  summary.Imported,
		"failed":    summary.Failed,
		"outcomes":  outcomes,
	})
}

func (s *Server) Healthz(c *gin.Context) {
	if _, err := s.Library.Driver.ExecuteQuery(c.Request.Context(), "RETURN 1", nil); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
