package service

import (
	"context"
	"errors"
	"math"
	"time"

	"jetcharter/internal/catalog"
	"jetcharter/internal/domain"
	"jetcharter/internal/events"
	"jetcharter/internal/logging"
	"jetcharter/internal/metrics"
	"jetcharter/internal/models"
	"jetcharter/internal/session"
	"jetcharter/internal/wizard"

	"github.com/rs/zerolog"
)

// BookingView is the wizard as the page renders it.
type BookingView struct {
	Session    session.Session     `json:"session"`
	Stage      models.Stage        `json:"stage"`
	StageName  string              `json:"stage_name"`
	Draft      models.BookingDraft `json:"draft"`
	Errors     models.FormErrors   `json:"errors,omitempty"`
	DistanceNM int                 `json:"distance_nm,omitempty"`
	Options    []catalog.Quote     `json:"options,omitempty"`
	Message    string              `json:"message,omitempty"`
}

// draftFieldOrder fixes the order in which a multi-field update is applied.
var draftFieldOrder = []string{
	models.FieldDeparture,
	models.FieldArrival,
	models.FieldDate,
	models.FieldPassengers,
}

type BookingService struct {
	states   *StateService
	fleet    catalog.Fleet
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingService(states *StateService, fleet catalog.Fleet, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		states:   states,
		fleet:    fleet,
		eventBus: eventBus,
		logger:   logging.Component(logger, "booking_service"),
		now:      time.Now,
	}
}

func (s *BookingService) Fleet() catalog.Fleet {
	return s.fleet
}

func (s *BookingService) env() wizard.Env {
	return wizard.Env{Fleet: s.fleet, Now: s.now()}
}

func (s *BookingService) View(ctx context.Context, sessionID string) (*BookingView, error) {
	state, err := s.states.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(state), nil
}

// UpdateDraft edits flight detail fields. Unknown fields are rejected before
// anything is applied.
func (s *BookingService) UpdateDraft(ctx context.Context, sessionID string, fields map[string]string) (*BookingView, error) {
	for name := range fields {
		if !knownDraftField(name) {
			return nil, wizard.ErrUnknownField
		}
	}
	return s.apply(ctx, sessionID, "update", func(st wizard.State) (wizard.State, error) {
		var err error
		for _, name := range draftFieldOrder {
			value, ok := fields[name]
			if !ok {
				continue
			}
			if st, err = wizard.Update(st, name, value); err != nil {
				return st, err
			}
		}
		return st, nil
	})
}

func knownDraftField(name string) bool {
	for _, f := range draftFieldOrder {
		if f == name {
			return true
		}
	}
	return false
}

func (s *BookingService) SelectAircraft(ctx context.Context, sessionID, aircraftID string) (*BookingView, error) {
	return s.apply(ctx, sessionID, "select_aircraft", func(st wizard.State) (wizard.State, error) {
		return wizard.SelectAircraft(st, s.env(), aircraftID)
	})
}

func (s *BookingService) Next(ctx context.Context, sessionID string) (*BookingView, error) {
	return s.apply(ctx, sessionID, "next", func(st wizard.State) (wizard.State, error) {
		return wizard.Advance(st, s.env())
	})
}

func (s *BookingService) Back(ctx context.Context, sessionID string) (*BookingView, error) {
	return s.apply(ctx, sessionID, "back", wizard.Back)
}

// Confirm submits the mock payment stage. It only applies at payment.
func (s *BookingService) Confirm(ctx context.Context, sessionID string) (*BookingView, error) {
	return s.apply(ctx, sessionID, "confirm", func(st wizard.State) (wizard.State, error) {
		if st.Stage == models.StageConfirmed {
			return st, wizard.ErrTerminal
		}
		if st.Stage != models.StagePayment {
			return st, wizard.ErrWrongStage
		}
		return wizard.Advance(st, s.env())
	})
}

func (s *BookingService) Reset(ctx context.Context, sessionID string) (*BookingView, error) {
	return s.apply(ctx, sessionID, "reset", func(wizard.State) (wizard.State, error) {
		return wizard.Reset(), nil
	})
}

// apply runs one wizard operation on the stored state. Blocked transitions are
// saved too so the field errors survive a reload; the view is returned with the error.
func (s *BookingService) apply(
	ctx context.Context,
	sessionID, operation string,
	op func(wizard.State) (wizard.State, error),
) (*BookingView, error) {
	state, err := s.states.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	before := wizard.FromSession(state)
	after, opErr := op(before)

	outcome := "ok"
	switch {
	case opErr == nil:
	case errors.Is(opErr, wizard.ErrBlocked):
		outcome = "blocked"
	default:
		metrics.IncWizard(operation, before.Stage.String(), "rejected")
		return s.view(state), opErr
	}
	metrics.IncWizard(operation, before.Stage.String(), outcome)

	after.Store(state)
	if err := s.states.Save(ctx, state); err != nil {
		return nil, err
	}

	if opErr == nil && before.Stage == models.StagePayment && after.Confirmed() {
		s.publishConfirmed(state, before.Draft)
	}
	return s.view(state), opErr
}

func (s *BookingService) publishConfirmed(state *models.SessionState, draft models.BookingDraft) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingRequestPayload{
		SessionID:  state.SessionID,
		Username:   state.Username,
		Departure:  draft.Departure,
		Arrival:    draft.Arrival,
		Date:       draft.Date,
		Passengers: draft.Passengers,
		AircraftID: draft.SelectedAircraftID,
		At:         s.now(),
	}
	if err := s.eventBus.PublishJSON(events.EventBookingRequestConfirmed, payload); err != nil {
		s.logger.Error().Err(err).Str("session_id", state.SessionID).Msg("publish event error")
		return
	}
	s.logger.Info().
		Str("session_id", state.SessionID).
		Str("aircraft_id", draft.SelectedAircraftID).
		Int("passengers", draft.Passengers).
		Msg("Booking request confirmed")
}

func (s *BookingService) view(state *models.SessionState) *BookingView {
	st := wizard.FromSession(state)
	v := &BookingView{
		Session:   session.FromState(state),
		Stage:     st.Stage,
		StageName: st.Stage.String(),
		Draft:     st.Draft,
		Errors:    st.Errors,
	}
	if st.Confirmed() {
		v.Message = wizard.Acknowledgement
		return v
	}
	if d := wizard.Distance(st.Draft); d > 0 {
		v.DistanceNM = int(math.Round(d))
		v.Options = s.fleet.Quotes(d, st.Draft.Passengers)
	}
	return v
}
