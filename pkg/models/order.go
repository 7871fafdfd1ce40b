package models

import "time"

// Order is one delivery event as it exists in the warehouse table: the raw
// text-encoded fields as ingested, plus the derived columns the cleaning
// pipeline populates. Derived and imputable fields are pointers so that
// "not yet computed" is distinguishable from a zero value.
type Order struct {
	OrderID          string
	OrderDate        string // raw text, DD-MM-YYYY
	TimeOrdered      string // time of day, HH:MM:SS or HH:MM
	TimeTakenRaw     string // raw text, "(min) <integer>"
	DeliveryPersonID string
	City             string

	// Imputable raw fields
	DeliveryPersonAge     *float64
	DeliveryPersonRatings *float64
	WeatherConditions     *string
	RoadTrafficDensity    *string
	Festival              *string

	// Derived columns
	CleanOrderDate   *time.Time
	DeliveryDuration *int
	SLABreachFlag    *bool
	PeakHourFlag     *bool
}

// AnalyticsRecord is one row of the analytics projection: the narrowed,
// fully-cleaned snapshot the reporting layer reads. Only rows with every
// derived column populated make it into the projection.
type AnalyticsRecord struct {
	OrderID            string
	OrderDate          time.Time
	TimeOrdered        string
	DeliveryDuration   int
	SLABreachFlag      bool
	PeakHourFlag       bool
	City               string
	WeatherConditions  string
	RoadTrafficDensity string
}
