package catalog

import (
	"fmt"
	"strings"

	"jetcharter/internal/models"
)

var airports = []models.Airport{
	{Code: "JFK", Name: "John F. Kennedy International Airport", City: "New York", Country: "United States",
		Coordinates: models.Coordinates{Lat: 40.6413, Lng: -73.7781}, TimeZone: "America/New_York"},
	{Code: "LHR", Name: "London Heathrow Airport", City: "London", Country: "United Kingdom",
		Coordinates: models.Coordinates{Lat: 51.4700, Lng: -0.4543}, TimeZone: "Europe/London"},
	{Code: "CDG", Name: "Charles de Gaulle Airport", City: "Paris", Country: "France",
		Coordinates: models.Coordinates{Lat: 49.0097, Lng: 2.5479}, TimeZone: "Europe/Paris"},
	{Code: "DXB", Name: "Dubai International Airport", City: "Dubai", Country: "United Arab Emirates",
		Coordinates: models.Coordinates{Lat: 25.2532, Lng: 55.3657}, TimeZone: "Asia/Dubai"},
	{Code: "HND", Name: "Haneda Airport", City: "Tokyo", Country: "Japan",
		Coordinates: models.Coordinates{Lat: 35.5494, Lng: 139.7798}, TimeZone: "Asia/Tokyo"},
	{Code: "SIN", Name: "Singapore Changi Airport", City: "Singapore", Country: "Singapore",
		Coordinates: models.Coordinates{Lat: 1.3644, Lng: 103.9915}, TimeZone: "Asia/Singapore"},
	{Code: "LAX", Name: "Los Angeles International Airport", City: "Los Angeles", Country: "United States",
		Coordinates: models.Coordinates{Lat: 33.9416, Lng: -118.4085}, TimeZone: "America/Los_Angeles"},
	{Code: "FRA", Name: "Frankfurt Airport", City: "Frankfurt", Country: "Germany",
		Coordinates: models.Coordinates{Lat: 50.0379, Lng: 8.5622}, TimeZone: "Europe/Berlin"},
	{Code: "HKG", Name: "Hong Kong International Airport", City: "Hong Kong", Country: "Hong Kong",
		Coordinates: models.Coordinates{Lat: 22.3080, Lng: 113.9185}, TimeZone: "Asia/Hong_Kong"},
	{Code: "SYD", Name: "Sydney Airport", City: "Sydney", Country: "Australia",
		Coordinates: models.Coordinates{Lat: -33.9399, Lng: 151.1753}, TimeZone: "Australia/Sydney"},
	{Code: "AMS", Name: "Amsterdam Airport Schiphol", City: "Amsterdam", Country: "Netherlands",
		Coordinates: models.Coordinates{Lat: 52.3105, Lng: 4.7683}, TimeZone: "Europe/Amsterdam"},
	{Code: "MAD", Name: "Adolfo Suárez Madrid–Barajas Airport", City: "Madrid", Country: "Spain",
		Coordinates: models.Coordinates{Lat: 40.4983, Lng: -3.5676}, TimeZone: "Europe/Madrid"},
	{Code: "ICN", Name: "Incheon International Airport", City: "Seoul", Country: "South Korea",
		Coordinates: models.Coordinates{Lat: 37.4602, Lng: 126.4407}, TimeZone: "Asia/Seoul"},
	{Code: "YYZ", Name: "Toronto Pearson International Airport", City: "Toronto", Country: "Canada",
		Coordinates: models.Coordinates{Lat: 43.6777, Lng: -79.6248}, TimeZone: "America/Toronto"},
	{Code: "BCN", Name: "Barcelona–El Prat Airport", City: "Barcelona", Country: "Spain",
		Coordinates: models.Coordinates{Lat: 41.2974, Lng: 2.0833}, TimeZone: "Europe/Madrid"},
}

// DirectoryEntry is the short airport record served by the legacy /airports endpoint.
type DirectoryEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var directory = []DirectoryEntry{
	{Code: "JFK", Name: "John F. Kennedy International Airport"},
	{Code: "LAX", Name: "Los Angeles International Airport"},
	{Code: "DFW", Name: "Dallas/Fort Worth International Airport"},
	{Code: "DEN", Name: "Denver International Airport"},
}

// Airports returns a copy of the airport table in display order.
func Airports() []models.Airport {
	out := make([]models.Airport, len(airports))
	copy(out, airports)
	return out
}

// Directory returns the fixed list served by GET /airports.
func Directory() []DirectoryEntry {
	out := make([]DirectoryEntry, len(directory))
	copy(out, directory)
	return out
}

// Suggestions returns up to five airports whose code, name, city or country
// contains query, ignoring case. Table order is kept.
func Suggestions(query string) []models.Airport {
	term := strings.ToLower(query)
	out := make([]models.Airport, 0, models.MaxAirportSuggestions)
	for _, a := range airports {
		if strings.Contains(strings.ToLower(a.Code), term) ||
			strings.Contains(strings.ToLower(a.Name), term) ||
			strings.Contains(strings.ToLower(a.City), term) ||
			strings.Contains(strings.ToLower(a.Country), term) {
			out = append(out, a)
			if len(out) == models.MaxAirportSuggestions {
				break
			}
		}
	}
	return out
}

// IsValid reports whether input names an airport exactly, by code, full name
// or "City, Country", ignoring case.
func IsValid(input string) bool {
	_, ok := Resolve(input)
	return ok
}

// Resolve returns the airport IsValid would match.
func Resolve(input string) (models.Airport, bool) {
	for _, a := range airports {
		if matches(a, input) {
			return a, true
		}
	}
	return models.Airport{}, false
}

// Lookup is Resolve that also accepts the "City, Country (CODE)" text the
// autocomplete writes into the input.
func Lookup(input string) (models.Airport, bool) {
	if a, ok := Resolve(input); ok {
		return a, true
	}
	input = strings.TrimSpace(input)
	open := strings.LastIndexByte(input, '(')
	if open < 0 || !strings.HasSuffix(input, ")") {
		return models.Airport{}, false
	}
	a, ok := ByCode(input[open+1 : len(input)-1])
	if !ok || !strings.EqualFold(Format(a), input) {
		return models.Airport{}, false
	}
	return a, true
}

// ByCode looks an airport up by its IATA code.
func ByCode(code string) (models.Airport, bool) {
	for _, a := range airports {
		if strings.EqualFold(a.Code, code) {
			return a, true
		}
	}
	return models.Airport{}, false
}

// Format renders an airport the way the autocomplete fills the input.
func Format(a models.Airport) string {
	return fmt.Sprintf("%s, %s (%s)", a.City, a.Country, a.Code)
}

func matches(a models.Airport, input string) bool {
	return strings.EqualFold(a.Code, input) ||
		strings.EqualFold(a.Name, input) ||
		strings.EqualFold(a.City+", "+a.Country, input)
}
