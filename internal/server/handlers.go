package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"SwingScore/internal/analysis"
	"SwingScore/internal/collector"
	"SwingScore/internal/model"
	"SwingScore/internal/pipeline"
	"SwingScore/internal/profile"
	"SwingScore/internal/render"
)

type factorJSON struct {
	Name       string   `json:"name"`
	Raw        *float64 `json:"raw"`
	Cap        float64  `json:"cap"`
	Score      float64  `json:"score"`
	Divergence bool     `json:"divergence,omitempty"`
	Commentary string   `json:"commentary,omitempty"`
}

type rowJSON struct {
	Date        string       `json:"date"`
	Close       float64      `json:"close"`
	MA          *float64     `json:"ma"`
	Buy         float64      `json:"buy"`
	Sell        float64      `json:"sell"`
	BuyTier     string       `json:"buy_tier"`
	SellTier    string       `json:"sell_tier"`
	BuyFactors  []factorJSON `json:"buy_factors,omitempty"`
	SellFactors []factorJSON `json:"sell_factors,omitempty"`
}

type scoresJSON struct {
	Symbol  string    `json:"symbol"`
	Profile string    `json:"profile"`
	Source  string    `json:"source"`
	Rows    []rowJSON `json:"rows"`
}

// optional maps undefined values to JSON null.
func optional(v float64) *float64 {
	if !model.Defined(v) {
		return nil
	}
	return &v
}

func factorsJSON(fs []model.FactorScore) []factorJSON {
	out := make([]factorJSON, len(fs))
	for i, f := range fs {
		out[i] = factorJSON{Name: f.Name, Raw: optional(f.Raw), Cap: f.Cap, Score: f.Score, Divergence: f.Divergence, Commentary: f.Commentary}
	}
	return out
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (s *Server) listProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"profiles": s.Profiles.Profiles()})
}

// request parses the shared query parameters of score endpoints.
func request(c *gin.Context) (analysis.Request, error) {
	req := analysis.Request{Symbol: c.Param("symbol"), Profile: c.Query("profile")}
	var err error
	if v := c.Query("start"); v != "" {
		if req.Start, err = time.Parse(pipeline.DateLayout, v); err != nil {
			return req, fmt.Errorf("invalid start: %w", err)
		}
	}
	if v := c.Query("end"); v != "" {
		if req.End, err = time.Parse(pipeline.DateLayout, v); err != nil {
			return req, fmt.Errorf("invalid end: %w", err)
		}
	}
	if !req.Start.IsZero() && !req.End.IsZero() && req.End.Before(req.Start) {
		return req, errors.New("end before start")
	}
	return req, nil
}

// analyze runs req and writes the error response when it fails.
func (s *Server) analyze(c *gin.Context) (*analysis.Report, []analysis.Row, bool) {
	req, err := request(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	rep, err := s.Analyzer.Analyze(c.Request.Context(), req)
	switch {
	case errors.Is(err, profile.ErrUnknownProfile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	case errors.Is(err, collector.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, nil, false
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return nil, nil, false
	}

	rows := rep.Rows()
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return nil, nil, false
		}
		if len(rows) > limit {
			rows = rows[len(rows)-limit:]
		}
	}
	return rep, rows, true
}

func (s *Server) scores(c *gin.Context) {
	rep, rows, ok := s.analyze(c)
	if !ok {
		return
	}
	withFactors := c.Query("factors") == "1" || c.Query("factors") == "true"
	out := scoresJSON{Symbol: rep.Symbol, Profile: rep.Profile, Source: rep.Source, Rows: make([]rowJSON, len(rows))}
	for i, r := range rows {
		out.Rows[i] = rowJSON{
			Date:     r.Time.Format(pipeline.DateLayout),
			Close:    r.Close,
			MA:       optional(r.MA),
			Buy:      r.Buy,
			Sell:     r.Sell,
			BuyTier:  r.BuyTier.Label,
			SellTier: r.SellTier.Label,
		}
		if withFactors {
			out.Rows[i].BuyFactors = factorsJSON(r.Score.BuyFactors)
			out.Rows[i].SellFactors = factorsJSON(r.Score.SellFactors)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) chart(c *gin.Context) {
	rep, rows, ok := s.analyze(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := render.Chart(c.Writer, rep, rows); err != nil {
		c.Error(err)
	}
}

func (s *Server) runs(c *gin.Context) {
	if s.History == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run history is not recorded"})
		return
	}
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	runs, err := s.History.RecentRuns(c.Request.Context(), c.Param("symbol"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
