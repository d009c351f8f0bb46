// Package wizard is the booking wizard state machine:
// flight details -> aircraft selection -> payment -> confirmed.
// Every function takes a State and returns the next one without side effects.
package wizard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"jetcharter/internal/catalog"
	"jetcharter/internal/models"
	"jetcharter/internal/validation"
)

// Acknowledgement is shown once the request is confirmed.
const Acknowledgement = "Thank you for your booking request! Our team will contact you shortly to confirm the details."

var (
	// ErrBlocked means a guard failed; the returned state carries the errors.
	ErrBlocked = errors.New("wizard: transition blocked")
	// ErrTerminal is returned for any move out of the confirmed stage.
	ErrTerminal = errors.New("wizard: booking already confirmed")
	// ErrWrongStage is returned when an operation does not apply to the current stage.
	ErrWrongStage   = errors.New("wizard: operation not allowed at this stage")
	ErrUnknownField = errors.New("wizard: unknown field")
)

type State struct {
	Stage  models.Stage        `json:"stage"`
	Draft  models.BookingDraft `json:"draft"`
	Errors models.FormErrors   `json:"errors,omitempty"`
}

// Env is the outside input the guards depend on.
type Env struct {
	Fleet catalog.Fleet
	Now   time.Time
}

func New() State {
	return State{Stage: models.StageFlightDetails, Draft: models.NewBookingDraft()}
}

// FromSession extracts the wizard part of a stored session state.
func FromSession(s *models.SessionState) State {
	if s == nil || !s.Stage.Valid() {
		return New()
	}
	return State{Stage: s.Stage, Draft: s.Draft, Errors: s.Errors.Clone()}
}

// Store writes st back into the session state.
func (st State) Store(s *models.SessionState) {
	s.Stage = st.Stage
	s.Draft = st.Draft
	s.Errors = st.Errors.Clone()
}

func (st State) Confirmed() bool {
	return st.Stage == models.StageConfirmed
}

// Update edits one flight detail field and drops that field's error.
func Update(st State, field, value string) (State, error) {
	if st.Stage == models.StageConfirmed {
		return st, ErrTerminal
	}
	if st.Stage != models.StageFlightDetails {
		return st, ErrWrongStage
	}

	next := st
	next.Errors = st.Errors.Clone()
	switch field {
	case models.FieldDeparture:
		next.Draft.Departure = value
	case models.FieldArrival:
		next.Draft.Arrival = value
	case models.FieldDate:
		next.Draft.Date = value
	case models.FieldPassengers:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			n = 0
		}
		next.Draft.Passengers = n
	default:
		return st, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	next.Errors.Clear(field)
	return next, nil
}

// SelectAircraft picks an aircraft for the draft. The aircraft must exist and
// be able to carry the party over the route.
func SelectAircraft(st State, env Env, id string) (State, error) {
	if st.Stage == models.StageConfirmed {
		return st, ErrTerminal
	}
	if st.Stage != models.StageAircraftSelection {
		return st, ErrWrongStage
	}

	next := st
	next.Errors = models.FormErrors{}

	aircraft, ok := env.Fleet.ByID(id)
	if !ok {
		next.Errors.Set(models.FieldSelectedAircraft, "Please select an aircraft from our fleet")
		return next, ErrBlocked
	}
	if reason := catalog.Unsuitable(aircraft, Distance(st.Draft), st.Draft.Passengers); reason != "" {
		next.Errors.Set(models.FieldSelectedAircraft, reason)
		return next, ErrBlocked
	}

	next.Draft.SelectedAircraftID = aircraft.ID
	next.Errors = nil
	return next, nil
}

// Advance moves one stage forward if the current stage's guard passes.
// Leaving payment confirms the request and discards the draft.
func Advance(st State, env Env) (State, error) {
	next := st
	switch st.Stage {
	case models.StageFlightDetails:
		errs := validation.FlightDetails(st.Draft, validation.FlightOptions{
			Now:           env.Now,
			MaxPassengers: env.Fleet.MaxCapacity(),
		})
		if !errs.Empty() {
			next.Errors = errs
			return next, ErrBlocked
		}
		if id := st.Draft.SelectedAircraftID; id != "" {
			if a, ok := env.Fleet.ByID(id); !ok || catalog.Unsuitable(a, Distance(st.Draft), st.Draft.Passengers) != "" {
				next.Draft.SelectedAircraftID = ""
			}
		}
		next.Stage = models.StageAircraftSelection
	case models.StageAircraftSelection:
		if st.Draft.SelectedAircraftID == "" {
			next.Errors = models.FormErrors{models.FieldSelectedAircraft: "Please select an aircraft"}
			return next, ErrBlocked
		}
		next.Stage = models.StagePayment
	case models.StagePayment:
		next.Stage = models.StageConfirmed
		next.Draft = models.BookingDraft{}
	case models.StageConfirmed:
		return st, ErrTerminal
	default:
		return New(), nil
	}
	next.Errors = nil
	return next, nil
}

// Back moves one stage backwards keeping the draft. It is a no-op on the first stage.
func Back(st State) (State, error) {
	next := st
	switch st.Stage {
	case models.StageFlightDetails:
		return st, nil
	case models.StageAircraftSelection:
		next.Stage = models.StageFlightDetails
	case models.StagePayment:
		next.Stage = models.StageAircraftSelection
	case models.StageConfirmed:
		return st, ErrTerminal
	default:
		return New(), nil
	}
	next.Errors = nil
	return next, nil
}

// Reset starts a new request.
func Reset() State {
	return New()
}

// Distance is the great-circle length of the draft route, zero while either
// airport is unknown.
func Distance(d models.BookingDraft) float64 {
	from, ok := catalog.Lookup(d.Departure)
	if !ok {
		return 0
	}
	to, ok := catalog.Lookup(d.Arrival)
	if !ok {
		return 0
	}
	return catalog.DistanceNM(from.Coordinates, to.Coordinates)
}
