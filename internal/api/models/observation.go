package models

// IngestRequest is the body of POST /weather.
// IncludeAQI defaults to true when omitted.
type IngestRequest struct {
	UserID     string   `json:"userId" validate:"required"`
	Lat        *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon        *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
	IncludeAQI *bool    `json:"includeAQI"`
}

// SampleRequest is the body of POST /mock.
type SampleRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// Coords is a latitude/longitude pair.
type Coords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// HealthRisk is the overall risk sentence and the individual risk factors.
type HealthRisk struct {
	Overall string   `json:"overall"`
	Details []string `json:"details"`
}

// IngestResponse is returned by the ingestion endpoints. Values the provider
// did not report are null.
type IngestResponse struct {
	ID          string     `json:"id"`
	Location    *string    `json:"location"`
	Coords      *Coords    `json:"coords"`
	Temperature *float64   `json:"temperature"`
	Humidity    *float64   `json:"humidity"`
	Condition   *string    `json:"condition"`
	AQIIndex    *int       `json:"aqiIndex"`
	Advice      string     `json:"advice"`
	HealthRisk  HealthRisk `json:"healthRisk"`
	CreatedAt   Timestamp  `json:"createdAt"`
}
