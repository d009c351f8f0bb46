package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"jetcharter/internal/catalog"
	"jetcharter/internal/models"

	"github.com/gin-gonic/gin"
)

// handleDirectory serves the fixed airport list of the legacy endpoint.
func (s *HTTPServer) handleDirectory(c *gin.Context) {
	c.JSON(http.StatusOK, catalog.Directory())
}

func (s *HTTPServer) handleAirportSuggestions(c *gin.Context) {
	matches := catalog.Suggestions(c.Query("q"))
	out := make([]gin.H, 0, len(matches))
	for _, a := range matches {
		out = append(out, gin.H{
			"code":    a.Code,
			"name":    a.Name,
			"city":    a.City,
			"country": a.Country,
			"label":   catalog.Format(a),
		})
	}
	c.JSON(http.StatusOK, gin.H{"airports": out})
}

func (s *HTTPServer) handleAirportValidate(c *gin.Context) {
	input := c.Query("input")
	c.JSON(http.StatusOK, gin.H{"input": input, "valid": catalog.IsValid(input)})
}

func (s *HTTPServer) handleAircraft(c *gin.Context) {
	fleet := s.svc.Booking.Fleet()
	c.JSON(http.StatusOK, gin.H{"aircraft": fleet, "max_capacity": fleet.MaxCapacity()})
}

// handleRoute computes distance and time zone details for the route panel.
// Offsets are taken at noon UTC of the flight date, today when none is given.
func (s *HTTPServer) handleRoute(c *gin.Context) {
	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))
	if from == "" || to == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required"})
		return
	}

	day := s.now().UTC()
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format; expected YYYY-MM-DD"})
			return
		}
		day = parsed
	}
	at := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.UTC)

	info, err := catalog.Route(from, to, at)
	if err != nil {
		if errors.Is(err, catalog.ErrUnknownAirport) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// handleRateCard exports the fleet rate card as an xlsx attachment.
func (s *HTTPServer) handleRateCard(c *gin.Context) {
	now := s.now()
	data, err := catalog.WriteRateCard(s.svc.Booking.Fleet(), now)
	if err != nil {
		s.internalError(c, err)
		return
	}
	s.log.Info().
		Str("client", c.GetString(apiClientKey)).
		Str("request_id", GetRequestID(c)).
		Msg("Rate card exported")

	filename := "rate-card-" + now.Format(models.DateLayout) + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
