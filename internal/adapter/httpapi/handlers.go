package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/floatchat/argo-data-service/internal/domain"
	"github.com/floatchat/argo-data-service/internal/store"
)

const (
	defaultListLimit   = 100
	maxListLimit       = 1000
	defaultExportLimit = 1000
	maxExportLimit     = 10000
)

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseProfileQuery reads the shared bounding-box/date/region filter
// parameters. Limits above cap are clamped, not rejected.
func parseProfileQuery(c *gin.Context, defaultLimit, maxLimit int) (store.ProfileQuery, error) {
	q := store.ProfileQuery{
		LatMin: -90, LatMax: 90,
		LonMin: -180, LonMax: 180,
		Limit: defaultLimit,
	}

	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"lat_min", &q.LatMin}, {"lat_max", &q.LatMax},
		{"lon_min", &q.LonMin}, {"lon_max", &q.LonMax},
	} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, fmt.Errorf("invalid %s", p.name)
		}
		*p.dst = v
	}

	if raw := c.Query("start_date"); raw != "" {
		t := domain.ParseIndexTime(raw)
		if t == nil {
			return q, errors.New("invalid start_date")
		}
		q.Start = t
	}
	if raw := c.Query("end_date"); raw != "" {
		t := domain.ParseIndexTime(raw)
		if t == nil {
			return q, errors.New("invalid end_date")
		}
		q.End = t
	}

	q.OceanRegion = c.Query("ocean_region")

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return q, errors.New("invalid limit")
		}
		q.Limit = n
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return q, nil
}

func (s *Server) handleListProfiles(c *gin.Context) {
	q, err := parseProfileQuery(c, defaultListLimit, maxListLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profiles, err := s.store.ListProfiles(c.Request.Context(), q)
	if err != nil {
		s.logger.Error("profile listing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func (s *Server) handleListFloats(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	floats, err := s.store.ListFloats(c.Request.Context(), c.Query("platform"), limit)
	if err != nil {
		s.logger.Error("float listing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, floats)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.store.CountStats(c.Request.Context())
	if err != nil {
		s.logger.Error("stats query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleProfileMeasurements(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile id"})
		return
	}

	ctx := c.Request.Context()
	if _, err := s.store.GetProfile(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		s.logger.Error("profile lookup failed", "profile_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	measurements, err := s.measurements.MeasurementsForProfile(ctx, id)
	if err != nil {
		s.logger.Error("measurement read failed", "profile_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "measurement fetch failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile_id":   id,
		"count":        len(measurements),
		"measurements": measurements,
	})
}

// handleExportCSV streams filtered profiles as a CSV attachment. Rows
// are written as they are formatted; the header line goes out before the
// first row.
func (s *Server) handleExportCSV(c *gin.Context) {
	q, err := parseProfileQuery(c, defaultExportLimit, maxExportLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profiles, err := s.store.ListProfiles(c.Request.Context(), q)
	if err != nil {
		s.logger.Error("export query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename=argo_profiles.csv`)
	c.Writer.WriteHeader(http.StatusOK)

	fmt.Fprintln(c.Writer, "platform_number,cycle_number,profile_date,latitude,longitude,ocean_region")
	for _, p := range profiles {
		date := ""
		if p.ProfileDate != nil {
			date = p.ProfileDate.UTC().Format(time.RFC3339)
		}
		region := ""
		if p.OceanRegion != nil {
			region = *p.OceanRegion
		}
		fmt.Fprintf(c.Writer, "%s,%d,%s,%s,%s,%s\n",
			p.PlatformNumber, p.CycleNumber, date,
			strconv.FormatFloat(p.Latitude, 'f', -1, 64),
			strconv.FormatFloat(p.Longitude, 'f', -1, 64),
			region)
	}
}

type chatQuery struct {
	Message string `json:"message" binding:"required"`
}

type chatResponse struct {
	Message       string  `json:"message"`
	SQLQuery      string  `json:"sql_query"`
	ExecutionTime float64 `json:"execution_time"`
}

// handleChatQuery is a mock passthrough: it echoes the question with a
// canned query, standing in for a real language-model integration.
func (s *Server) handleChatQuery(c *gin.Context) {
	start := time.Now()

	var q chatQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	sql := "SELECT * FROM argo_profiles LIMIT 10;"
	c.JSON(http.StatusOK, chatResponse{
		Message:       fmt.Sprintf("You asked: %q. Mock SQL: %s", q.Message, sql),
		SQLQuery:      sql,
		ExecutionTime: time.Since(start).Seconds(),
	})
}
