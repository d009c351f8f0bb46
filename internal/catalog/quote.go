package catalog

import (
	"math"

	"jetcharter/internal/models"
)

// Quote is one aircraft option for a draft route.
type Quote struct {
	Aircraft      models.Aircraft `json:"aircraft"`
	FlightTime    FlightTime      `json:"flight_time"`
	EstimatedCost int64           `json:"estimated_cost"`
	Eligible      bool            `json:"eligible"`
	Reason        string          `json:"reason,omitempty"`
}

// Quotes prices every aircraft for the given distance and party size.
// A zero distance means the route is not known yet; cost stays zero and only
// capacity decides eligibility.
func (f Fleet) Quotes(distanceNM float64, passengers int) []Quote {
	out := make([]Quote, 0, len(f))
	for _, a := range f {
		q := Quote{Aircraft: a, Eligible: true}
		if distanceNM > 0 {
			q.FlightTime = EstimateFlightTime(distanceNM, a.CruiseSpeedKnots)
			hours := distanceNM / float64(a.CruiseSpeedKnots)
			q.EstimatedCost = int64(math.Round(hours * float64(a.HourlyRate)))
		}
		if reason := Unsuitable(a, distanceNM, passengers); reason != "" {
			q.Eligible = false
			q.Reason = reason
		}
		out = append(out, q)
	}
	return out
}

// Unsuitable explains why a cannot fly the trip, or returns "".
func Unsuitable(a models.Aircraft, distanceNM float64, passengers int) string {
	if passengers > a.PassengerCapacity {
		return "Selected aircraft cannot carry this many passengers"
	}
	if distanceNM > float64(a.RangeNauticalMiles) {
		return "Selected aircraft cannot fly this route nonstop"
	}
	return ""
}
