package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"jetcharter/internal/service"
	"jetcharter/internal/wizard"

	"github.com/gin-gonic/gin"
)

// respondBooking writes the wizard view, or the view plus an error when the
// operation was blocked or not allowed.
func (s *HTTPServer) respondBooking(c *gin.Context, view *service.BookingView, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, view)
	case errors.Is(err, wizard.ErrBlocked):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": view.Errors, "booking": view})
	case errors.Is(err, wizard.ErrUnknownField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, wizard.ErrWrongStage), errors.Is(err, wizard.ErrTerminal):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "booking": view})
	default:
		s.internalError(c, err)
	}
}

func (s *HTTPServer) handleBookingView(c *gin.Context) {
	view, err := s.svc.Booking.View(c.Request.Context(), sessionID(c))
	s.respondBooking(c, view, err)
}

// handleBookingDraft accepts any subset of departure, arrival, date and
// passengers. Passengers may be sent as a number or a string.
func (s *HTTPServer) handleBookingDraft(c *gin.Context) {
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		badJSON(c)
		return
	}

	fields := make(map[string]string, len(body))
	for name, raw := range body {
		value, err := draftValue(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("field %s: %v", name, err)})
			return
		}
		fields[name] = value
	}

	view, err := s.svc.Booking.UpdateDraft(c.Request.Context(), sessionID(c), fields)
	s.respondBooking(c, view, err)
}

func draftValue(raw json.RawMessage) (string, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		if _, err := strconv.ParseFloat(num.String(), 64); err == nil {
			return num.String(), nil
		}
	}
	return "", errors.New("expected a string or a number")
}

func (s *HTTPServer) handleBookingNext(c *gin.Context) {
	view, err := s.svc.Booking.Next(c.Request.Context(), sessionID(c))
	s.respondBooking(c, view, err)
}

func (s *HTTPServer) handleBookingBack(c *gin.Context) {
	view, err := s.svc.Booking.Back(c.Request.Context(), sessionID(c))
	s.respondBooking(c, view, err)
}

type selectAircraftRequest struct {
	AircraftID string `json:"aircraft_id"`
}

func (s *HTTPServer) handleBookingAircraft(c *gin.Context) {
	var req selectAircraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	view, err := s.svc.Booking.SelectAircraft(c.Request.Context(), sessionID(c), req.AircraftID)
	s.respondBooking(c, view, err)
}

func (s *HTTPServer) handleBookingConfirm(c *gin.Context) {
	view, err := s.svc.Booking.Confirm(c.Request.Context(), sessionID(c))
	s.respondBooking(c, view, err)
}

func (s *HTTPServer) handleBookingReset(c *gin.Context) {
	view, err := s.svc.Booking.Reset(c.Request.Context(), sessionID(c))
	s.respondBooking(c, view, err)
}
