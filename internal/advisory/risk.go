package advisory

import (
	"strings"

	"github.com/weatherwise/weatherwise/internal/weather"
)

// Risk sentences.
const (
	RiskHeatstroke  = "High risk of heatstroke"
	RiskHeatFatigue = "Moderate heat-related fatigue"
	RiskColdStress  = "Risk of cold stress or hypothermia"
	RiskPoorAir     = "Poor air quality — respiratory irritation likely"
	RiskModerateAir = "Moderate air pollution — sensitive groups beware"
	RiskDehydration = "Dehydration risk due to high humidity and heat"

	// NoRiskSentence is the overall risk when no rule fires.
	NoRiskSentence = "No major health risks today"
)

// RiskAssessment is the structured result of the risk rules.
type RiskAssessment struct {
	// Overall is Details joined with "; ", or NoRiskSentence.
	Overall string `json:"overall"`

	// Details lists the fired risks in rule order. Never nil.
	Details []string `json:"details"`
}

// HasRisk reports whether any risk rule fired.
func (r RiskAssessment) HasRisk() bool {
	return len(r.Details) > 0
}

// riskRule yields a risk sentence, or "" when it does not apply.
type riskRule func(in inputs) string

// riskRules are evaluated independently and in order.
var riskRules = []riskRule{
	func(in inputs) string {
		switch {
		case in.temp > 35:
			return RiskHeatstroke
		case in.temp > 30:
			return RiskHeatFatigue
		}
		return ""
	},
	func(in inputs) string {
		if in.temp < 10 {
			return RiskColdStress
		}
		return ""
	},
	func(in inputs) string {
		if in.aqi == nil {
			return ""
		}
		switch {
		case *in.aqi >= weather.AQIPoor:
			return RiskPoorAir
		case *in.aqi == weather.AQIModerate:
			return RiskModerateAir
		}
		return ""
	},
	func(in inputs) string {
		if in.humidity > 80 && in.temp > 30 {
			return RiskDehydration
		}
		return ""
	},
}

// DeriveRisk evaluates the risk rules for an observation, defaulting missing
// values the same way DeriveAdvisory does.
func DeriveRisk(obs *weather.Observation, aqi *weather.AQI) RiskAssessment {
	in := newInputs(obs, aqi)

	details := []string{}
	for _, rule := range riskRules {
		if d := rule(in); d != "" {
			details = append(details, d)
		}
	}

	if len(details) == 0 {
		return RiskAssessment{Overall: NoRiskSentence, Details: details}
	}
	return RiskAssessment{Overall: strings.Join(details, "; "), Details: details}
}

// IsNoRisk reports whether an overall risk string is the no-risk sentence.
// The check is a case-insensitive match on "no major" so that records
// written with older wording are still recognised.
func IsNoRisk(overall string) bool {
	return strings.Contains(strings.ToLower(overall), "no major")
}
