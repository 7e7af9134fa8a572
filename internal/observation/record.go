package observation

import (
	"github.com/weatherwise/weatherwise/internal/weather"
)

// NewRecord builds an unsaved Record from an ingestion input.
// ID and CreatedAt are left for the store to assign.
func NewRecord(in Input) (*Record, error) {
	if err := ValidateUserID(in.UserID); err != nil {
		return nil, err
	}

	rec := &Record{
		UserID:   in.UserID,
		Location: locationLabel(in.Observation),
		Advice:   in.Advice,
		Risk:     in.Risk.Overall,
	}

	if obs := in.Observation; obs != nil {
		rec.Temperature = copyFloat(obs.Temperature)
		rec.Humidity = copyFloat(obs.Humidity)
		if obs.Description != "" {
			desc := obs.Description
			rec.Condition = &desc
		}
		if len(obs.Raw) > 0 {
			rec.Raw = append(rec.Raw, obs.Raw...)
		}
	}

	if in.AQI != nil {
		rec.AQI = in.AQI.Ptr()
	}

	return rec, nil
}

// locationLabel prefers the provider's place name, then "lat,lon".
func locationLabel(obs *weather.Observation) *string {
	if obs == nil {
		return nil
	}
	if obs.LocationName != "" {
		name := obs.LocationName
		return &name
	}
	if label := obs.CoordinatesLabel(); label != "" {
		return &label
	}
	return nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return weather.Float64(*v)
}
