// Package advisory derives a health advisory and a risk assessment from a
// weather observation and an optional air quality index. Both evaluators are
// pure functions of their inputs.
package advisory

import (
	"strings"

	"github.com/weatherwise/weatherwise/internal/weather"
)

// Advisory sentences.
const (
	AdviceExtremeHeat = "Extreme heat! Stay indoors, drink plenty of water, and avoid direct sunlight."
	AdviceVeryHot     = "Very hot today — wear light clothing and stay hydrated."
	AdviceWarm        = "Warm weather — drink water frequently and avoid heavy physical activity at midday."
	AdviceCold        = "Cold weather — wear warm layers and cover your head and hands."
	AdviceFreezing    = "Freezing conditions! Stay indoors if possible and wear insulated clothing."

	AdviceHumid = "The humidity is high — watch for mold growth and dehydration."
	AdviceDry   = "Air is dry — use a humidifier and apply moisturizer to prevent dry skin."

	AdviceRain   = "Carry an umbrella and wear waterproof shoes."
	AdviceSnow   = "Snowy weather — wear non-slip shoes and stay warm."
	AdviceStorm  = "Thunderstorms possible — stay indoors until it clears."
	AdviceCloudy = "Cloudy day — UV exposure is lower, but stay active!"
	AdviceClear  = "Great weather — ideal for outdoor activities."

	AdviceAQIVeryPoor = "Air quality is very poor — wear a mask and avoid outdoor activity."
	AdviceAQIPoor     = "Poor air quality — sensitive individuals should limit outdoor exposure."
	AdviceAQIModerate = "Moderate air quality — mild caution advised for those with asthma."
	AdviceAQIFair     = "Air quality is good — safe for outdoor activities."
	AdviceAQIGood     = "Excellent air quality — breathe easy!"

	AdviceNormal = "Weather looks normal — maintain a balanced routine and stay healthy."
)

// DefaultCondition is assumed when an observation carries no condition label.
const DefaultCondition = "clear"

// conditions is checked in order; the first substring found in the
// lower-cased condition label wins.
var conditions = []struct {
	substr string
	advice string
}{
	{"rain", AdviceRain},
	{"snow", AdviceSnow},
	{"storm", AdviceStorm},
	{"cloud", AdviceCloudy},
	{"clear", AdviceClear},
}

var aqiAdvice = map[weather.AQI]string{
	weather.AQIVeryPoor: AdviceAQIVeryPoor,
	weather.AQIPoor:     AdviceAQIPoor,
	weather.AQIModerate: AdviceAQIModerate,
	weather.AQIFair:     AdviceAQIFair,
	weather.AQIGood:     AdviceAQIGood,
}

// inputs is the defaulted view of an observation both evaluators work on.
type inputs struct {
	temp      float64
	humidity  float64
	condition string
	aqi       *weather.AQI
}

func newInputs(obs *weather.Observation, aqi *weather.AQI) inputs {
	in := inputs{
		temp:      obs.TemperatureOrZero(),
		humidity:  obs.HumidityOrZero(),
		condition: DefaultCondition,
		aqi:       aqi,
	}
	if obs != nil && obs.Condition != "" {
		in.condition = strings.ToLower(obs.Condition)
	}
	return in
}

// clause produces one optional advisory fragment.
type clause func(in inputs) string

// clauses is the fixed order in which fragments appear in the advisory.
var clauses = []clause{
	temperatureClause,
	humidityClause,
	conditionClause,
	aqiClause,
}

func temperatureClause(in inputs) string {
	switch t := in.temp; {
	case t > 40:
		return AdviceExtremeHeat
	case t > 35:
		return AdviceVeryHot
	case t > 30:
		return AdviceWarm
	case t < 0:
		return AdviceFreezing
	case t < 10:
		return AdviceCold
	default:
		return ""
	}
}

func humidityClause(in inputs) string {
	switch {
	case in.humidity > 85:
		return AdviceHumid
	case in.humidity < 30:
		return AdviceDry
	default:
		return ""
	}
}

func conditionClause(in inputs) string {
	for _, c := range conditions {
		if strings.Contains(in.condition, c.substr) {
			return c.advice
		}
	}
	return ""
}

func aqiClause(in inputs) string {
	if in.aqi == nil {
		return ""
	}
	return aqiAdvice[*in.aqi]
}

// DeriveAdvisory builds the health advisory for an observation.
//
// A nil observation, missing temperature or humidity count as 0 and an empty
// condition counts as "clear". The result is never empty: when no clause
// fires the normal-weather sentence is returned.
func DeriveAdvisory(obs *weather.Observation, aqi *weather.AQI) string {
	in := newInputs(obs, aqi)

	fragments := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if f := c(in); f != "" {
			fragments = append(fragments, f)
		}
	}

	advice := strings.TrimSpace(strings.Join(fragments, " "))
	if advice == "" {
		return AdviceNormal
	}
	return advice
}
