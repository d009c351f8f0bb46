package models

type Aircraft struct {
	ID                 string `json:"id" yaml:"id"`
	Name               string `json:"name" yaml:"name"`
	PassengerCapacity  int    `json:"passenger_capacity" yaml:"passenger_capacity"`
	RangeNauticalMiles int    `json:"range_nm" yaml:"range_nm"`
	HourlyRate         int64  `json:"hourly_rate" yaml:"hourly_rate"`
	CruiseSpeedKnots   int    `json:"cruise_speed_kt" yaml:"cruise_speed_kt"`
	ImageURL           string `json:"image_url" yaml:"image_url"`
}
