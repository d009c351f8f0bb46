package models

// Stage is a step of the booking wizard.
type Stage int

const (
	StageFlightDetails Stage = iota + 1
	StageAircraftSelection
	StagePayment
	StageConfirmed
)

func (s Stage) String() string {
	switch s {
	case StageFlightDetails:
		return "flight_details"
	case StageAircraftSelection:
		return "aircraft_selection"
	case StagePayment:
		return "payment"
	case StageConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the four wizard stages.
func (s Stage) Valid() bool {
	return s >= StageFlightDetails && s <= StageConfirmed
}

// BookingDraft holds the wizard input of one browser session.
// Date is kept as entered (YYYY-MM-DD) so that invalid input can be reported back.
type BookingDraft struct {
	Departure          string `json:"departure"`
	Arrival            string `json:"arrival"`
	Date               string `json:"date"`
	Passengers         int    `json:"passengers"`
	SelectedAircraftID string `json:"selected_aircraft_id,omitempty"`
}

// Draft field names, shared by the validators, the wizard and the API.
const (
	FieldDeparture        = "departure"
	FieldArrival          = "arrival"
	FieldDate             = "date"
	FieldPassengers       = "passengers"
	FieldSelectedAircraft = "selectedAircraftId"
)

// NewBookingDraft returns the draft a fresh wizard starts with.
func NewBookingDraft() BookingDraft {
	return BookingDraft{Passengers: 1}
}
