package handler

import (
	"github.com/weatherwise/weatherwise/internal/api/models"
	"github.com/weatherwise/weatherwise/internal/history"
	"github.com/weatherwise/weatherwise/internal/ingest"
	"github.com/weatherwise/weatherwise/internal/observation"
	"github.com/weatherwise/weatherwise/internal/weather"
)

func toIngestResponse(res *ingest.Result) models.IngestResponse {
	resp := models.IngestResponse{
		Advice: res.Advice,
		HealthRisk: models.HealthRisk{
			Overall: res.Risk.Overall,
			Details: res.Risk.Details,
		},
	}
	if resp.HealthRisk.Details == nil {
		resp.HealthRisk.Details = []string{}
	}
	if obs := res.Observation; obs != nil && obs.HasCoordinates {
		resp.Coords = &models.Coords{Lat: obs.Lat, Lon: obs.Lon}
	}
	if rec := res.Record; rec != nil {
		resp.ID = rec.ID
		resp.Location = rec.Location
		resp.Temperature = rec.Temperature
		resp.Humidity = rec.Humidity
		resp.Condition = rec.Condition
		resp.AQIIndex = aqiIndex(rec.AQI)
		resp.CreatedAt = models.Timestamp(rec.CreatedAt)
	}
	return resp
}

func toObservationRecord(rec *observation.Record) models.ObservationRecord {
	return models.ObservationRecord{
		ID:          rec.ID,
		UserID:      rec.UserID,
		Location:    rec.Location,
		Temperature: rec.Temperature,
		Humidity:    rec.Humidity,
		Condition:   rec.Condition,
		AQIIndex:    aqiIndex(rec.AQI),
		Advice:      rec.Advice,
		Risk:        rec.Risk,
		Raw:         rec.Raw,
		CreatedAt:   models.Timestamp(rec.CreatedAt),
	}
}

func toAlertItem(a history.Alert) models.AlertItem {
	return models.AlertItem{
		ID:       a.ID,
		Date:     models.Timestamp(a.Timestamp),
		Location: a.Location,
		Alert:    a.Alert,
		Advice:   a.Advice,
	}
}

func aqiIndex(aqi *weather.AQI) *int {
	if aqi == nil {
		return nil
	}
	v := int(*aqi)
	return &v
}
