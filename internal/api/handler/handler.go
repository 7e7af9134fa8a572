// Package handler provides HTTP handlers for the WeatherWise API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/weatherwise/weatherwise/internal/api/models"
	"github.com/weatherwise/weatherwise/internal/api/response"
	"github.com/weatherwise/weatherwise/internal/ingest"
	"github.com/weatherwise/weatherwise/internal/observation"
	"github.com/weatherwise/weatherwise/internal/weather"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// newValidator returns a validator that reports fields by their JSON name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and validates it. On failure
// it writes a 400 problem and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return false
	}

	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			response.BadRequest(w, r, "invalid request", nil)
			return false
		}
		fields := make([]models.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, models.FieldError{
				Field:   fe.Field(),
				Message: fieldMessage(fe),
				Code:    strings.ToUpper(fe.Tag()),
			})
		}
		response.BadRequest(w, r, "request validation failed", fields)
		return false
	}
	return true
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *observation.ValidationError
		perr *observation.PersistenceError
	)

	switch {
	case errors.As(err, &verr):
		fields := make([]models.FieldError, 0, len(verr.Errors))
		for _, fe := range verr.Errors {
			fields = append(fields, models.FieldError{Field: fe.Field, Message: fe.Message})
		}
		response.BadRequest(w, r, verr.Error(), fields)
	case errors.Is(err, ingest.ErrUpstreamUnavailable), errors.Is(err, weather.ErrProviderUnavailable):
		response.BadGateway(w, r, "weather data is currently unavailable")
	case errors.As(err, &perr):
		response.InternalError(w, r, "observation store is unavailable")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("unhandled error")
		response.InternalError(w, r, "an unexpected error occurred")
	}
}
