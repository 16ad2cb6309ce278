package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/kratu/internal/dataset"
	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
	"github.com/ZanzyTHEbar/kratu/internal/kratu"
	"github.com/ZanzyTHEbar/kratu/internal/types"
	"github.com/ZanzyTHEbar/kratu/internal/widget"
)

const version = "1.0.0"

func (s *server) handleHealth(c *gin.Context) {
	services := map[string]string{
		"database": "ok",
		"redis":    "disabled",
	}
	status := "ok"

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		services["database"] = "unavailable"
		status = "degraded"
	}
	if s.redis.Enabled() {
		services["redis"] = "ok"
		if err := s.redis.Ping(ctx); err != nil {
			// Cache and limiter fall back to memory
			services["redis"] = "unavailable"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, types.HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   version,
		Widgets:   s.widgets.Count(),
		Services:  services,
		Metrics:   s.metrics.GetStats(),
	})
}

func (s *server) handleStats(c *gin.Context) {
	snapshots, err := s.rankings.Count(c.Request.Context())
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, types.StatsResponse{
		Widgets:     s.widgets.Count(),
		Snapshots:   snapshots,
		Database:    s.db.GetPoolStats(),
		Cache:       s.rankings.CacheStats(),
		Compression: s.compression.GetStats(),
		RateLimit:   s.limiter.GetStats(),
		Redis:       s.redis.Stats(),
	})
}

func (s *server) handleSignals(c *gin.Context) {
	c.JSON(http.StatusOK, types.NewSignalsResponse(s.registry))
}

func (s *server) handleListWidgets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"widgets": s.widgets.List()})
}

func (s *server) handleCreateWidget(c *gin.Context) {
	var req types.CreateWidgetRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.Abort(c, apperrors.NewValidationError("invalid request body", err.Error()))
			return
		}
	}

	name, entities := s.dataset, s.entities
	if req.Entities != nil {
		if req.Dataset == "" {
			apperrors.Abort(c, apperrors.NewValidationError("dataset name is required with inline entities"))
			return
		}
		var err error
		if entities, err = dataset.FromRows(req.Entities); err != nil {
			apperrors.Abort(c, err)
			return
		}
		name = req.Dataset
	} else if req.Dataset != "" && req.Dataset != s.dataset {
		apperrors.Abort(c, apperrors.NewNotFoundError("dataset", req.Dataset, s.dataset))
		return
	}

	w, err := s.widgets.Create(name, entities)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	if err := w.Configure(req.Disable, req.Weights); err != nil {
		_ = s.widgets.Destroy(w.ID)
		apperrors.Abort(c, err)
		return
	}

	s.metrics.RecordWidgetCreated()
	s.logger.WidgetLogger("created", w.ID, w.Registry().Len(), w.Len())

	c.JSON(http.StatusCreated, types.WidgetResponse{Summary: w.Summary(), Columns: w.Columns()})
}

func (s *server) widget(c *gin.Context) (*widget.Widget, bool) {
	w, err := s.widgets.Get(c.Param("id"))
	if err != nil {
		apperrors.Abort(c, err)
		return nil, false
	}
	return w, true
}

func (s *server) handleGetWidget(c *gin.Context) {
	w, ok := s.widget(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, types.WidgetResponse{Summary: w.Summary(), Columns: w.Columns()})
}

func (s *server) handleDestroyWidget(c *gin.Context) {
	id := c.Param("id")
	if err := s.widgets.Destroy(id); err != nil {
		apperrors.Abort(c, err)
		return
	}
	s.metrics.RecordWidgetDestroyed()
	s.logger.WidgetLogger("destroyed", id, 0, 0)
	c.Status(http.StatusNoContent)
}

func (s *server) handleRanking(c *gin.Context) {
	w, ok := s.widget(c)
	if !ok {
		return
	}

	start := time.Now()
	ranking, err := w.Rank()
	duration := time.Since(start)
	s.metrics.RecordRanking(duration, err)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	topScore := 0.0
	if len(ranking.Rows) > 0 {
		topScore = ranking.Rows[0].Score
	}
	s.logger.RankingLogger(w.ID, len(ranking.Rows), len(w.Registry().Weighted()), topScore, duration)

	c.JSON(http.StatusOK, ranking)
}

func (s *server) handleCell(c *gin.Context) {
	w, ok := s.widget(c)
	if !ok {
		return
	}
	cell, err := w.FormatCell(c.Param("entity"), c.Param("signal"))
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, cell)
}

func (s *server) handleHeaderEvent(c *gin.Context) {
	w, ok := s.widget(c)
	if !ok {
		return
	}

	var req types.HeaderEventRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.Abort(c, apperrors.NewValidationError("invalid request body", err.Error()))
			return
		}
	}

	signal, event := c.Param("signal"), c.Param("event")
	err := w.HandleHeaderEvent(signal, event, req.Weight)
	s.metrics.RecordHeaderEvent(event, err)
	s.logger.HeaderEventLogger(w.ID, signal, event, err)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, types.HeaderEventResponse{
		Event:   kratu.HeaderEvent{Type: event, Signal: signal, Weight: req.Weight},
		Columns: w.Columns(),
	})
}

func (s *server) handleSaveSnapshot(c *gin.Context) {
	w, ok := s.widget(c)
	if !ok {
		return
	}
	snapshot, err := s.rankings.Save(c.Request.Context(), w)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

func (s *server) handleListSnapshots(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		var err error
		if limit, err = strconv.Atoi(raw); err != nil {
			apperrors.Abort(c, apperrors.NewValidationError("limit must be an integer", raw))
			return
		}
	}

	resp, err := s.rankings.List(c.Request.Context(), c.Query("dataset"), limit)
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) handleGetSnapshot(c *gin.Context) {
	snapshot, err := s.rankings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *server) handleDeleteSnapshot(c *gin.Context) {
	if err := s.rankings.Delete(c.Request.Context(), c.Param("id")); err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) handleFlushCache(c *gin.Context) {
	if err := s.store.DeletePrefix(c.Request.Context(), ""); err != nil {
		apperrors.Abort(c, apperrors.NewInternalError("failed to flush cache", err))
		return
	}
	s.logger.SystemLogger("cache_flushed", "requested by "+c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"flushed": true})
}
