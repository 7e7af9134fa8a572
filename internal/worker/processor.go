// Package worker consumes queued ingestion requests from Pub/Sub.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherwise/weatherwise/internal/ingest"
	"github.com/weatherwise/weatherwise/internal/observation"
)

// ErrMalformedMessage is returned for payloads that can never be processed.
var ErrMalformedMessage = errors.New("malformed ingestion message")

// IngestMessage is the JSON payload of an ingestion request.
// Lat and Lon are required unless Sample is set.
type IngestMessage struct {
	UserID     string   `json:"user_id"`
	Lat        *float64 `json:"lat"`
	Lon        *float64 `json:"lon"`
	IncludeAQI *bool    `json:"include_aqi,omitempty"`

	// Sample stores the fixed sample observation instead of calling the provider.
	Sample bool `json:"sample,omitempty"`
}

// Ingester runs ingestions. *ingest.Orchestrator satisfies it.
type Ingester interface {
	Ingest(ctx context.Context, req ingest.Request) (*ingest.Result, error)
	IngestSample(ctx context.Context, userID string) (*ingest.Result, error)
}

// Outcome tells the subscriber what to do with a message.
type Outcome int

const (
	// Ack removes the message. Used for success and permanent failures.
	Ack Outcome = iota
	// Nack asks Pub/Sub to redeliver the message later.
	Nack
)

func (o Outcome) String() string {
	if o == Nack {
		return "nack"
	}
	return "ack"
}

// ProcessorConfig holds configuration for the message processor.
type ProcessorConfig struct {
	Ingester Ingester
	Logger   zerolog.Logger

	// Timeout bounds one message (default: 30 seconds).
	Timeout time.Duration
}

// Processor turns ingestion messages into ingestions.
type Processor struct {
	ingester Ingester
	logger   zerolog.Logger
	timeout  time.Duration
}

// NewProcessor creates a message processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Processor{
		ingester: cfg.Ingester,
		logger:   cfg.Logger,
		timeout:  timeout,
	}
}

// Process runs the ingestion described by data.
func (p *Processor) Process(ctx context.Context, data []byte) error {
	var msg IngestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if msg.Sample {
		_, err := p.ingester.IngestSample(ctx, msg.UserID)
		return err
	}

	var missing []observation.FieldError
	if msg.Lat == nil {
		missing = append(missing, observation.FieldError{Field: "lat", Message: "is required"})
	}
	if msg.Lon == nil {
		missing = append(missing, observation.FieldError{Field: "lon", Message: "is required"})
	}
	if len(missing) > 0 {
		return &observation.ValidationError{Errors: missing}
	}

	includeAQI := true
	if msg.IncludeAQI != nil {
		includeAQI = *msg.IncludeAQI
	}

	_, err := p.ingester.Ingest(ctx, ingest.Request{
		UserID:     msg.UserID,
		Lat:        *msg.Lat,
		Lon:        *msg.Lon,
		IncludeAQI: includeAQI,
	})
	return err
}

// Handle processes one message and decides its fate. Malformed and invalid
// messages are acked; upstream and store failures are nacked for redelivery.
func (p *Processor) Handle(ctx context.Context, messageID string, data []byte) Outcome {
	start := time.Now()
	logger := p.logger.With().Str("message_id", messageID).Logger()

	err := p.Process(ctx, data)
	if err == nil {
		logger.Info().Dur("duration", time.Since(start)).Msg("ingestion message processed")
		return Ack
	}

	var verr *observation.ValidationError
	if errors.Is(err, ErrMalformedMessage) || errors.As(err, &verr) {
		logger.Warn().Err(err).Msg("dropping invalid ingestion message")
		return Ack
	}

	logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("ingestion message failed, will retry")
	return Nack
}
