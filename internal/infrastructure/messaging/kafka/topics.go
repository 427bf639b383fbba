package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
	types "github.com/marcuskncheung/new-intel-platform-sub000/pkg/types/intel"
)

// Topic constants. The configured topic prefix is prepended at wire time.
const (
	TopicPoiCreated         = "poi.created"
	TopicPoiUpdated         = "poi.updated"
	TopicLinkRegistered     = "intel.link.registered"
	TopicCandidateExtracted = "intel.candidate.extracted"
)

// EventEnvelope standardizes event messages across topics.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type PoiEventPayload struct {
	ProfileID   string `json:"profile_id"`
	PoiID       string `json:"poi_id"`
	NameEnglish string `json:"name_english,omitempty"`
	NameChinese string `json:"name_chinese,omitempty"`
	Status      string `json:"status"`
	Version     int    `json:"version"`
}

type LinkRegisteredPayload struct {
	PoiID            string                 `json:"poi_id"`
	SourceType       types.SourceType       `json:"source_type"`
	SourceID         string                 `json:"source_id"`
	ExtractionMethod types.ExtractionMethod `json:"extraction_method"`
	ConfidenceScore  float64                `json:"confidence_score"`
}

// CandidateExtractedPayload is the intake message consumed by the worker.
// It mirrors the resolution request body accepted over HTTP.
type CandidateExtractedPayload struct {
	SourceType types.SourceType       `json:"source_type"`
	SourceID   string                 `json:"source_id"`
	Method     types.ExtractionMethod `json:"extraction_method"`
	Mode       types.UpdateMode       `json:"update_mode"`
	Candidates []CandidatePayload     `json:"candidates"`
}

type CandidatePayload struct {
	NameEnglish   string  `json:"name_english"`
	NameChinese   string  `json:"name_chinese"`
	AgentNumber   string  `json:"agent_number"`
	LicenseNumber string  `json:"license_number"`
	Company       string  `json:"company"`
	Role          string  `json:"role"`
	Confidence    float64 `json:"confidence"`
}

func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal payload")
	}
	return nil
}

func DecodeEnvelope(value []byte) (*EventEnvelope, error) {
	if len(value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal envelope")
	}
	return &env, nil
}
