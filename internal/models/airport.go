package models

// Coordinates is a WGS84 position in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

type Airport struct {
	Code        string      `json:"code" yaml:"code"`
	Name        string      `json:"name" yaml:"name"`
	City        string      `json:"city" yaml:"city"`
	Country     string      `json:"country" yaml:"country"`
	Coordinates Coordinates `json:"coordinates" yaml:"coordinates"`
	TimeZone    string      `json:"time_zone" yaml:"time_zone"`
}
