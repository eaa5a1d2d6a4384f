// Package api serves the dashboard view models as JSON over a local HTTP
// endpoint. Rendering happens elsewhere; this is the query surface the UI
// consumes.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/user/routerpulse/internal/aggregate"
	"github.com/user/routerpulse/internal/history"
	"github.com/user/routerpulse/internal/inventory"
	"github.com/user/routerpulse/internal/model"
	"github.com/user/routerpulse/internal/storage"
	"github.com/user/routerpulse/internal/stream"
	"github.com/user/routerpulse/internal/timerange"
	"github.com/user/routerpulse/internal/util"
	"github.com/user/routerpulse/internal/view"
)

// Server exposes the telemetry core over HTTP.
type Server struct {
	engine     *gin.Engine
	srv        *http.Server
	history    *history.Store
	stream     *stream.Client
	inventory  *inventory.Cache
	aggregator *aggregate.Aggregator
	archive    *storage.SampleStorage
	statusFn   func() any
}

// NewServer builds the API server on top of the core components. archive may
// be nil when archiving is disabled; statusFn supplies the daemon status
// payload for /api/status.
func NewServer(port int, hist *history.Store, strm *stream.Client, inv *inventory.Cache, agg *aggregate.Aggregator, archive *storage.SampleStorage, statusFn func() any) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:     engine,
		history:    hist,
		stream:     strm,
		inventory:  inv,
		aggregator: agg,
		archive:    archive,
		statusFn:   statusFn,
	}
	s.registerRoutes()

	s.srv = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: engine,
	}
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/current", s.handleCurrent)
	api.GET("/interfaces", s.handleInterfaces)
	api.GET("/interfaces/:key/history", s.handleInterfaceHistory)
	api.GET("/interfaces/:key/archive", s.handleInterfaceArchive)
	api.GET("/devices", s.handleDevices)
}

// Start runs the listener until it fails or Shutdown is called.
func (s *Server) Start() error {
	util.Info("Dashboard API listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the underlying HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleStatus(c *gin.Context) {
	payload := gin.H{
		"stream":    s.stream.Status().String(),
		"timestamp": time.Now(),
	}
	if s.statusFn != nil {
		payload["daemon"] = s.statusFn()
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleCurrent(c *gin.Context) {
	snapshot := s.stream.Current()
	if snapshot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot received yet"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) handleInterfaces(c *gin.Context) {
	type ifaceSummary struct {
		Interface string                `json:"interface"`
		Latest    *model.InterfaceStats `json:"latest,omitempty"`
		Samples   int                   `json:"samples"`
	}

	var out []ifaceSummary
	for _, key := range s.history.Keys() {
		summary := ifaceSummary{Interface: key, Samples: s.history.Len(key)}
		if latest, ok := s.history.Latest(key); ok {
			summary.Latest = &latest
		}
		out = append(out, summary)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleInterfaceHistory(c *gin.Context) {
	key := c.Param("key")
	samples := s.history.Get(key)
	if samples == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown interface: " + key})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"interface": key,
		"samples":   samples,
	})
}

// handleInterfaceArchive serves archived samples of one interface, going
// back over a range much deeper than the live rolling buffer holds.
func (s *Server) handleInterfaceArchive(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "archive is disabled"})
		return
	}

	rng, err := timerange.Parse(c.DefaultQuery("range", "1d"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := c.Param("key")
	samples, err := s.archive.GetHistory(key, time.Now().Add(-rng.Approx()))
	if err != nil {
		util.Warn("Archive query for %s failed: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "archive query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"interface": key,
		"range":     rng.String(),
		"samples":   samples,
	})
}

// handleDevices serves the sorted, filtered device table for a time range.
// An unparsable range is rejected up front; the query is never issued.
func (s *Server) handleDevices(c *gin.Context) {
	rng, err := timerange.Parse(c.DefaultQuery("range", "1h"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	devices := s.inventory.Devices()
	keys := make([]string, len(devices))
	for i, d := range devices {
		keys[i] = d.MAC
	}

	interval := timerange.SelectInterval(rng)
	aggs, err := s.aggregator.Refresh(c.Request.Context(), rng, keys)
	if err != nil {
		// A superseded or failed refresh falls back to the last
		// published aggregates; the table degrades, it never breaks.
		if !errors.Is(err, aggregate.ErrStale) {
			util.Warn("Device bandwidth refresh failed: %v", err)
		}
		var prevRng timerange.Spec
		var prevInterval timerange.Interval
		aggs, prevRng, prevInterval = s.aggregator.Results()
		// Label the response with the range the fallback data was
		// actually computed for, not the one that was requested.
		if prevInterval != "" {
			rng, interval = prevRng, prevInterval
		}
	}

	rows := buildRows(devices, aggs)

	var sortSpec view.SortSpec
	if col := c.Query("sort"); col != "" {
		// Omitting dir applies the column's default direction.
		sortSpec = view.SortSpec{}.Select(col)
		switch c.Query("dir") {
		case "asc":
			sortSpec.Desc = false
		case "desc":
			sortSpec.Desc = true
		}
	}

	filter := view.Filter{
		Query:   c.Query("q"),
		Network: c.Query("network"),
		Status:  c.Query("status"),
		Type:    c.Query("type"),
	}

	c.JSON(http.StatusOK, gin.H{
		"range":    rng.String(),
		"interval": string(interval),
		"devices":  view.Project(rows, filter, sortSpec),
	})
}

func buildRows(devices []model.Device, aggs map[string]model.BandwidthAggregate) []view.Row {
	rows := make([]view.Row, 0, len(devices))
	for _, d := range devices {
		agg := aggs[d.MAC]
		rows = append(rows, view.Row{
			Key:      d.MAC,
			Name:     d.Name,
			IP:       d.IP,
			MAC:      d.MAC,
			Network:  d.Network,
			Online:   d.Online,
			Static:   d.Static,
			RxMB:     agg.RxTotalMB,
			TxMB:     agg.TxTotalMB,
			LastSeen: d.LastSeen,
		})
	}
	return rows
}
