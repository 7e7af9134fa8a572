// Package weather provides current weather and air quality observations for a location.
package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrNoAirQualityData    = errors.New("no air quality data for location")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

// Observation is a point-in-time weather snapshot for a location.
// It is produced by a Provider and treated as read-only afterwards.
type Observation struct {
	// Location coordinates, only meaningful when HasCoordinates is set.
	Lat            float64
	Lon            float64
	HasCoordinates bool

	// LocationName is the provider's name for the nearest place, if any.
	LocationName string

	// Temperature in Celsius, nil when the provider did not report it.
	Temperature *float64

	// Humidity percentage (0-100), nil when the provider did not report it.
	Humidity *float64

	// Condition is the primary condition category ("Rain", "Clear", "Clouds", ...).
	Condition string

	// Description is the free-text description ("light rain").
	Description string

	// Raw is the unmodified provider payload.
	Raw json.RawMessage

	ObservedAt time.Time
	FetchedAt  time.Time
}

// TemperatureOrZero returns the temperature, or 0 when it is missing.
func (o *Observation) TemperatureOrZero() float64 {
	if o == nil || o.Temperature == nil {
		return 0
	}
	return *o.Temperature
}

// HumidityOrZero returns the humidity, or 0 when it is missing.
func (o *Observation) HumidityOrZero() float64 {
	if o == nil || o.Humidity == nil {
		return 0
	}
	return *o.Humidity
}

// CoordinatesLabel formats the coordinates as "lat,lon".
// Returns an empty string when no coordinates are known.
func (o *Observation) CoordinatesLabel() string {
	if o == nil || !o.HasCoordinates {
		return ""
	}
	return fmt.Sprintf("%g,%g", o.Lat, o.Lon)
}

// AQI is an air quality index on a 1 (good) to 5 (very poor) scale.
type AQI int

const (
	AQIGood     AQI = 1
	AQIFair     AQI = 2
	AQIModerate AQI = 3
	AQIPoor     AQI = 4
	AQIVeryPoor AQI = 5
)

// Valid reports whether the index is on the 1-5 scale.
func (a AQI) Valid() bool {
	return a >= AQIGood && a <= AQIVeryPoor
}

// Ptr returns a pointer to a copy of the index.
func (a AQI) Ptr() *AQI {
	return &a
}

// AirQuality is an air quality reading for a location.
type AirQuality struct {
	Lat        float64
	Lon        float64
	Index      AQI
	Components map[string]float64
	MeasuredAt time.Time
	FetchedAt  time.Time
}

// Float64 returns a pointer to v. Handy for building observations.
func Float64(v float64) *float64 {
	return &v
}
