package catalog

import (
	"errors"
	"fmt"
	"strings"

	"jetcharter/internal/models"
)

var (
	ErrEmptyFleet        = errors.New("fleet is empty")
	ErrDuplicateAircraft = errors.New("duplicate aircraft id")
	ErrInvalidAircraft   = errors.New("invalid aircraft")
)

// Fleet is the ordered list of aircraft offered in the wizard.
type Fleet []models.Aircraft

// DefaultFleet returns the two aircraft the site ships with.
func DefaultFleet() Fleet {
	return Fleet{
		{
			ID:                 "1",
			Name:               "Gulfstream G650",
			PassengerCapacity:  19,
			RangeNauticalMiles: 7000,
			HourlyRate:         12000,
			CruiseSpeedKnots:   488,
			ImageURL:           "https://images.unsplash.com/photo-1540962351504-03099e0a754b?auto=format&fit=crop&w=2070&q=80",
		},
		{
			ID:                 "2",
			Name:               "Bombardier Global 7500",
			PassengerCapacity:  17,
			RangeNauticalMiles: 7700,
			HourlyRate:         15000,
			CruiseSpeedKnots:   516,
			ImageURL:           "https://images.unsplash.com/photo-1583416750470-965b2707b355?auto=format&fit=crop&w=2070&q=80",
		},
	}
}

// ByID returns the aircraft with the given id.
func (f Fleet) ByID(id string) (models.Aircraft, bool) {
	for _, a := range f {
		if a.ID == id {
			return a, true
		}
	}
	return models.Aircraft{}, false
}

// MaxCapacity is the largest passenger count any aircraft can carry.
func (f Fleet) MaxCapacity() int {
	maxPax := 0
	for _, a := range f {
		if a.PassengerCapacity > maxPax {
			maxPax = a.PassengerCapacity
		}
	}
	return maxPax
}

// ValidateFleet checks that a fleet loaded from configuration is usable.
func ValidateFleet(f Fleet) error {
	if len(f) == 0 {
		return ErrEmptyFleet
	}
	seen := make(map[string]struct{}, len(f))
	for i, a := range f {
		if strings.TrimSpace(a.ID) == "" {
			return fmt.Errorf("%w: aircraft #%d has no id", ErrInvalidAircraft, i+1)
		}
		if _, ok := seen[a.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateAircraft, a.ID)
		}
		seen[a.ID] = struct{}{}

		switch {
		case strings.TrimSpace(a.Name) == "":
			return fmt.Errorf("%w: %s has no name", ErrInvalidAircraft, a.ID)
		case a.PassengerCapacity <= 0:
			return fmt.Errorf("%w: %s capacity must be positive", ErrInvalidAircraft, a.ID)
		case a.HourlyRate <= 0:
			return fmt.Errorf("%w: %s hourly rate must be positive", ErrInvalidAircraft, a.ID)
		case a.RangeNauticalMiles <= 0:
			return fmt.Errorf("%w: %s range must be positive", ErrInvalidAircraft, a.ID)
		case a.CruiseSpeedKnots <= 0:
			return fmt.Errorf("%w: %s cruise speed must be positive", ErrInvalidAircraft, a.ID)
		}
	}
	return nil
}
