package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/agenthands/tydrodash/internal/core"
	"github.com/agenthands/tydrodash/internal/core/flow"
	"github.com/agenthands/tydrodash/internal/core/report"
	"github.com/agenthands/tydrodash/internal/driver"
)

const RequestIDHeader = "X-Request-ID"

type Server struct {
	Dashboard *core.Dashboard
	Warehouse driver.Warehouse
	Logger    *logrus.Entry
}

func NewServer(dashboard *core.Dashboard, warehouse driver.Warehouse, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{Dashboard: dashboard, Warehouse: warehouse, Logger: logger}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.accessLog())

	r.GET("/healthz", s.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/reports", s.ListReports)
	r.GET("/reports/:name", s.GetReport)
	r.GET("/dashboard", s.GetDashboard)

	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"duration":   time.Since(start),
			"request_id": c.GetString("request_id"),
		}).Info("Handled request")
	}
}

// ReportRequest carries the query parameters shared by /reports/:name and
// /dashboard. Range and Granularity are checked against the closed filter
// sets by report.ParseFilter.
type ReportRequest struct {
	Range       string `form:"range"`
	Granularity string `form:"granularity"`
	Preserve    string `form:"preserve" binding:"omitempty,oneof=before after"`
}

func (s *Server) options(c *gin.Context) (core.Options, bool) {
	var req ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "detail": "preserve must be before or after"})
		return core.Options{}, false
	}
	f, err := report.ParseFilter(req.Range, req.Granularity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "detail": err.Error()})
		return core.Options{}, false
	}
	mode := s.Dashboard.Mode
	if req.Preserve != "" {
		mode = flow.ParseMode(req.Preserve)
	}
	return core.Options{Filter: f, Mode: mode, RequestID: c.GetString("request_id")}, true
}

func (s *Server) Healthz(c *gin.Context) {
	if err := s.Warehouse.Ping(c.Request.Context()); err != nil {
		s.Logger.WithError(err).Warn("Warehouse health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type reportSummary struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Kind  string `json:"kind"`
}

func (s *Server) ListReports(c *gin.Context) {
	defs := report.Catalogue()
	out := make([]reportSummary, 0, len(defs))
	for _, d := range defs {
		out = append(out, reportSummary{Name: d.Name, Title: d.Title, Kind: string(d.Kind)})
	}
	c.JSON(http.StatusOK, gin.H{"reports": out})
}

func (s *Server) GetReport(c *gin.Context) {
	opts, ok := s.options(c)
	if !ok {
		return
	}

	rep, err := s.Dashboard.Run(c.Request.Context(), c.Param("name"), opts)
	if errors.Is(err, core.ErrUnknownReport) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "reports": report.Names()})
		return
	}
	if err != nil {
		s.Logger.WithError(err).Error("Failed to run report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run report"})
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) GetDashboard(c *gin.Context) {
	opts, ok := s.options(c)
	if !ok {
		return
	}

	reports := s.Dashboard.RunAll(c.Request.Context(), opts)
	c.JSON(http.StatusOK, gin.H{
		"filter": gin.H{
			"range":       opts.Filter.Range,
			"granularity": opts.Filter.Granularity,
		},
		"flow_mode": opts.Mode.String(),
		"reports":   reports,
	})
}
