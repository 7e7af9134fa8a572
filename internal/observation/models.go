// Package observation holds the append-only record of each ingested
// observation together with the advisory and risk derived from it.
package observation

import (
	"encoding/json"
	"time"

	"github.com/weatherwise/weatherwise/internal/advisory"
	"github.com/weatherwise/weatherwise/internal/weather"
)

// Record is one stored observation. Records are never updated or deleted.
type Record struct {
	// ID is assigned by the store.
	ID string

	UserID string

	// Location is the place name or "lat,lon"; nil when neither is known.
	Location *string

	Temperature *float64
	Humidity    *float64

	// Condition is the provider's free-text description ("light rain").
	Condition *string

	AQI *weather.AQI

	Advice string

	// Risk is the overall risk sentence.
	Risk string

	// Raw is the provider payload as received.
	Raw json.RawMessage

	// CreatedAt is assigned by the store and never decreases in insertion
	// order. It is the only ordering and windowing key.
	CreatedAt time.Time
}

// Input is everything needed to build a Record.
type Input struct {
	UserID      string
	Observation *weather.Observation
	AQI         *weather.AQI
	Advice      string
	Risk        advisory.RiskAssessment
}

func (r *Record) clone() *Record {
	cpy := *r
	if r.Raw != nil {
		cpy.Raw = append(json.RawMessage(nil), r.Raw...)
	}
	return &cpy
}
