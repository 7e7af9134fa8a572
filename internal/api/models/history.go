package models

import "encoding/json"

// ObservationRecord is one stored observation as returned by GET /history.
type ObservationRecord struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Location    *string         `json:"location"`
	Temperature *float64        `json:"temperature"`
	Humidity    *float64        `json:"humidity"`
	Condition   *string         `json:"condition"`
	AQIIndex    *int            `json:"aqiIndex"`
	Advice      string          `json:"advice"`
	Risk        string          `json:"risk"`
	Raw         json.RawMessage `json:"raw,omitempty"`
	CreatedAt   Timestamp       `json:"createdAt"`
}

// HistoryResponse is the body of GET /history/{userId}.
type HistoryResponse struct {
	History []ObservationRecord `json:"history"`
}

// AlertItem is a stored observation that carried a health risk.
type AlertItem struct {
	ID       string    `json:"id"`
	Date     Timestamp `json:"date"`
	Location *string   `json:"location"`
	Alert    string    `json:"alert"`
	Advice   string    `json:"advice"`
}

// AlertsResponse is the body of GET /alerts/{userId}.
type AlertsResponse struct {
	Alerts []AlertItem `json:"alerts"`
}

// SummaryResponse is the body of GET /summary/{userId} when the last
// 7 days hold data.
type SummaryResponse struct {
	DaysOfData  int     `json:"daysOfData"`
	AvgTemp     float64 `json:"avgTemp"`
	AvgHumidity float64 `json:"avgHumidity"`
	RecentRisk  string  `json:"recentRisk"`
}
