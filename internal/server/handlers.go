package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/crosstab"
	"github.com/YohanssenPardede/proyek-analisis-data/internal/rfm"
)

type errorResponse struct {
	Error string `json:"error"`
}

// RFMResponse is the body of GET /api/v1/rfm.
type RFMResponse struct {
	Reference time.Time      `json:"reference"`
	Tiers     int            `json:"tiers"`
	Total     int            `json:"total"`
	Skipped   int            `json:"skipped_rows"`
	Fallbacks []string       `json:"fallbacks,omitempty"`
	Customers []rfm.Customer `json:"customers"`
}

// SegmentsResponse is the body of GET /api/v1/segments.
type SegmentsResponse struct {
	Reference time.Time          `json:"reference"`
	Customers int                `json:"customers"`
	Segments  []rfm.SegmentCount `json:"segments"`
}

// BreakdownResponse is the body of GET /api/v1/breakdown.
type BreakdownResponse struct {
	By    crosstab.Dimension `json:"by"`
	Cells []crosstab.Cell    `json:"cells"`
}

// TrendResponse is the body of GET /api/v1/trend.
type TrendResponse struct {
	Points []crosstab.TrendPoint `json:"points"`
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// respondComputeError maps engine failures: degenerate quantiles and reference
// violations are 422, anything else is logged and reported as 500.
func (s *Server) respondComputeError(c *gin.Context, err error) {
	if errors.Is(err, rfm.ErrInsufficientDistinctValues) || errors.Is(err, rfm.ErrReferenceNotAfterData) {
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	s.log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
	c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// engineOptions overlays query parameters on the dataset's engine options.
func (s *Server) engineOptions(c *gin.Context) (rfm.Options, error) {
	opt := s.data.Engine
	if v := c.Query("frequency_mode"); v != "" {
		opt.FrequencyMode = rfm.FrequencyMode(strings.ToLower(v))
	}
	if v := c.Query("recency_order"); v != "" {
		opt.RecencyOrder = rfm.Order(strings.ToLower(v))
	}
	if v := c.Query("fallback"); v != "" {
		opt.Fallback = rfm.Fallback(strings.ToLower(v))
	}
	if v := c.Query("tiers"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opt, fmt.Errorf("invalid tiers %q", v)
		}
		opt.Tiers = n
	}
	err := opt.Validate()
	return opt, err
}

func intQuery(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q (must be a non-negative integer)", name, v)
	}
	return n, nil
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "dataset": s.data.Path})
}

func (s *Server) getRFM(c *gin.Context) {
	opt, err := s.engineOptions(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	res, _, err := s.data.Result(opt)
	if err != nil {
		s.respondComputeError(c, err)
		return
	}
	customers := res.Customers
	if seg := c.Query("segment"); seg != "" {
		sel, err := res.ResolveSegment(seg)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		customers = res.Filter(sel)
	}
	total := len(customers)
	if limit > 0 && len(customers) > limit {
		customers = customers[:limit]
	}
	if customers == nil {
		customers = []rfm.Customer{}
	}
	c.JSON(http.StatusOK, RFMResponse{
		Reference: res.Reference,
		Tiers:     res.Tiers,
		Total:     total,
		Skipped:   res.Skipped,
		Fallbacks: res.Fallbacks,
		Customers: customers,
	})
}

func (s *Server) getSegments(c *gin.Context) {
	opt, err := s.engineOptions(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	res, _, err := s.data.Result(opt)
	if err != nil {
		s.respondComputeError(c, err)
		return
	}
	c.JSON(http.StatusOK, SegmentsResponse{Reference: res.Reference, Customers: len(res.Customers), Segments: res.Summary()})
}

func (s *Server) getBreakdown(c *gin.Context) {
	opt, err := s.engineOptions(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	by := c.DefaultQuery("by", string(crosstab.ByCategory))
	dim, err := crosstab.ParseDimension(by)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	top, err := intQuery(c, "top")
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	var ascending bool
	switch strings.ToLower(c.DefaultQuery("order", "desc")) {
	case "desc", "top":
	case "asc", "bottom":
		ascending = true
	default:
		respondBadRequest(c, fmt.Errorf("invalid order %q (use asc or desc)", c.Query("order")))
		return
	}

	res, table, err := s.data.Result(opt)
	if err != nil {
		s.respondComputeError(c, err)
		return
	}
	cells := crosstab.Breakdown(crosstab.Join(table.Records, res.Customers), dim)

	var segments []rfm.Segment
	if seg := c.Query("segment"); seg != "" {
		sel, err := res.ResolveSegment(seg)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		segments = []rfm.Segment{sel}
	} else {
		for _, sc := range res.Summary() {
			segments = append(segments, sc.Segment)
		}
	}
	out := []crosstab.Cell{}
	for _, seg := range segments {
		out = append(out, crosstab.Top(cells, seg, top, ascending)...)
	}
	c.JSON(http.StatusOK, BreakdownResponse{By: dim, Cells: out})
}

func (s *Server) getTrend(c *gin.Context) {
	opt, err := s.engineOptions(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	res, table, err := s.data.Result(opt)
	if err != nil {
		s.respondComputeError(c, err)
		return
	}
	points := crosstab.SegmentTrend(crosstab.Join(table.Records, res.Customers))
	c.JSON(http.StatusOK, TrendResponse{Points: points})
}

func (s *Server) getOverview(c *gin.Context) {
	rep, err := s.data.Overview()
	if err != nil {
		s.respondComputeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}
