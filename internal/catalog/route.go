package catalog

import (
	"errors"
	"fmt"
	"math"
	"time"
	_ "time/tzdata"

	"jetcharter/internal/models"
)

const earthRadiusNM = 3440.065

var ErrUnknownAirport = errors.New("unknown airport")

// FlightTime is a whole hours and minutes estimate.
type FlightTime struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

func (ft FlightTime) Duration() time.Duration {
	return time.Duration(ft.Hours)*time.Hour + time.Duration(ft.Minutes)*time.Minute
}

// ZoneInfo describes an airport's time zone on the flight date.
type ZoneInfo struct {
	ZoneName  string  `json:"zone_name"`
	GMTOffset float64 `json:"gmt_offset"`
	LocalTime string  `json:"local_time"`
}

// RouteInfo is what the route details panel shows.
type RouteInfo struct {
	Origin         models.Airport `json:"origin"`
	Destination    models.Airport `json:"destination"`
	DistanceNM     int            `json:"distance_nm"`
	OriginZone     ZoneInfo       `json:"origin_timezone"`
	DestZone       ZoneInfo       `json:"destination_timezone"`
	TimeDifference float64        `json:"time_difference"`
}

// DistanceNM is the great-circle distance between two points in nautical miles.
func DistanceNM(from, to models.Coordinates) float64 {
	lat1 := from.Lat * math.Pi / 180
	lat2 := to.Lat * math.Pi / 180
	dLat := (to.Lat - from.Lat) * math.Pi / 180
	dLng := (to.Lng - from.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusNM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// EstimateFlightTime divides distance by cruise speed, rounded to the minute.
func EstimateFlightTime(distanceNM float64, cruiseKnots int) FlightTime {
	if cruiseKnots <= 0 || distanceNM <= 0 {
		return FlightTime{}
	}
	total := int(math.Round(distanceNM / float64(cruiseKnots) * 60))
	return FlightTime{Hours: total / 60, Minutes: total % 60}
}

// Route resolves both airports and computes distance and time zone data.
// at is the moment used for the offsets, normally noon of the flight date.
func Route(from, to string, at time.Time) (RouteInfo, error) {
	origin, ok := Lookup(from)
	if !ok {
		return RouteInfo{}, fmt.Errorf("%w: %q", ErrUnknownAirport, from)
	}
	dest, ok := Lookup(to)
	if !ok {
		return RouteInfo{}, fmt.Errorf("%w: %q", ErrUnknownAirport, to)
	}

	oz, err := zoneInfo(origin, at)
	if err != nil {
		return RouteInfo{}, err
	}
	dz, err := zoneInfo(dest, at)
	if err != nil {
		return RouteInfo{}, err
	}

	return RouteInfo{
		Origin:         origin,
		Destination:    dest,
		DistanceNM:     int(math.Round(DistanceNM(origin.Coordinates, dest.Coordinates))),
		OriginZone:     oz,
		DestZone:       dz,
		TimeDifference: dz.GMTOffset - oz.GMTOffset,
	}, nil
}

func zoneInfo(a models.Airport, at time.Time) (ZoneInfo, error) {
	loc, err := time.LoadLocation(a.TimeZone)
	if err != nil {
		return ZoneInfo{}, fmt.Errorf("load zone %s for %s: %w", a.TimeZone, a.Code, err)
	}
	local := at.In(loc)
	_, offset := local.Zone()
	return ZoneInfo{
		ZoneName:  a.TimeZone,
		GMTOffset: float64(offset) / 3600,
		LocalTime: local.Format("2006-01-02 15:04"),
	}, nil
}
