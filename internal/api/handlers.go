package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RouteRequest is the body of POST /api/tools/routes. All fields are
// optional; zero or missing values fall back to engine defaults.
type RouteRequest struct {
	TopN             *int     `json:"topN"`
	Quantity         *float64 `json:"quantity"`
	System           string   `json:"system"`
	AllowCrossSystem *bool    `json:"allowCrossSystem"`
}

func (s *Server) commodities(c *gin.Context) {
	summaries, err := s.engine.Summarize(c.Request.Context(), c.Query("q"))
	if err != nil {
		s.fail(c, "summarize failed", err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (s *Server) routesHandler(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	topN := 0
	if req.TopN != nil {
		topN = *req.TopN
	}
	quantity := 0.0
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	allowCross := req.AllowCrossSystem != nil && *req.AllowCrossSystem
	routes, err := s.engine.BestRoutes(c.Request.Context(), topN, quantity, req.System, allowCross)
	if err != nil {
		s.fail(c, "route planning failed", err)
		return
	}
	c.JSON(http.StatusOK, routes)
}

func (s *Server) best(c *gin.Context) {
	var commodityID *int64
	if raw := c.Query("commodityId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid commodityId"})
			return
		}
		commodityID = &id
	}
	best, err := s.engine.BestQuote(c.Request.Context(), commodityID, c.Query("name"))
	if err != nil {
		s.fail(c, "best quote lookup failed", err)
		return
	}
	if best == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, best)
}

func (s *Server) catalogNames(c *gin.Context) {
	entries, err := s.catalog.ListCatalogEntries(c.Request.Context(), c.Query("q"))
	if err != nil {
		s.fail(c, "catalog listing failed", err)
		return
	}
	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, gin.H{
			"id":   e.ExternalID,
			"name": e.Name,
			"code": e.Code,
			"kind": e.Kind,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) refresh(c *gin.Context) {
	n, err := s.ingest.Refresh(c.Request.Context())
	if err != nil {
		s.fail(c, "refresh failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upserts": n})
}

func (s *Server) refreshByCommodity(c *gin.Context) {
	n, err := s.ingest.RefreshByCommodity(c.Request.Context())
	if err != nil {
		s.fail(c, "refresh by commodity failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upserts": n})
}

func (s *Server) refreshCatalog(c *gin.Context) {
	n, err := s.ingest.RefreshCatalog(c.Request.Context())
	if err != nil {
		s.fail(c, "catalog refresh failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upserts": n})
}

func (s *Server) diagnostics(c *gin.Context) {
	d, err := s.ingest.Diagnostics(c.Request.Context())
	if err != nil {
		s.fail(c, "diagnostics failed", err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) probeCommodity(c *gin.Context) {
	id := int64(1)
	if raw := c.Query("id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		id = parsed
	}
	probe, err := s.ingest.ProbeCommodity(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "commodity probe failed", err)
		return
	}
	c.JSON(http.StatusOK, probe)
}

func (s *Server) fail(c *gin.Context, msg string, err error) {
	s.logger.Error(msg, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
