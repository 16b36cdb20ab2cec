package api

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entity paths on the CEP backend
const (
	EventTypesPath = "event-types"
	TargetsPath    = "targets"
	RulesPath      = "rules"
	EventLogsPath  = "events"
)

// Rule types supported by the backend
const (
	RuleTypeRealtime = "realtime"
	RuleTypeSliding  = "sliding"
	RuleTypeHopping  = "hopping"
	RuleTypeTumbling = "tumbling"
)

// EventType is an ingestion endpoint definition
type EventType struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EntityID implements selection.Entity
func (e EventType) EntityID() string { return e.ID }

// Target is a webhook invoked when a rule matches
type Target struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// EntityID implements selection.Entity
func (t Target) EntityID() string { return t.ID }

// Rule wires an event type to a target through a query filter
type Rule struct {
	ID                        string          `json:"id"`
	Name                      string          `json:"name"`
	Type                      string          `json:"type"`
	EventTypeID               string          `json:"eventTypeId"`
	EventTypeName             string          `json:"eventTypeName,omitempty"`
	TargetID                  string          `json:"targetId"`
	TargetName                string          `json:"targetName,omitempty"`
	SkipOnConsecutivesMatches bool            `json:"skipOnConsecutivesMatches"`
	Filters                   json.RawMessage `json:"filters,omitempty"`
	CreatedAt                 time.Time       `json:"createdAt"`
	UpdatedAt                 time.Time       `json:"updatedAt"`
}

// EntityID implements selection.Entity
func (r Rule) EntityID() string { return r.ID }

// RuleCreate is the rule creation request body
type RuleCreate struct {
	Name                      string          `json:"name"`
	Type                      string          `json:"type"`
	EventTypeID               string          `json:"eventTypeId"`
	TargetID                  string          `json:"targetId"`
	SkipOnConsecutivesMatches bool            `json:"skipOnConsecutivesMatches"`
	Filters                   json.RawMessage `json:"filters"`
}

// EventLog is one ingested event as recorded by the backend
type EventLog struct {
	ID            string          `json:"id"`
	EventTypeID   string          `json:"eventTypeId"`
	EventTypeName string          `json:"eventTypeName,omitempty"`
	RequestID     string          `json:"requestId,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// EntityID implements selection.Entity
func (e EventLog) EntityID() string { return e.ID }

// Page is the paginated list envelope returned by every list endpoint
type Page[E any] struct {
	Results []E    `json:"results"`
	Next    string `json:"next,omitempty"`
	Prev    string `json:"prev,omitempty"`
}

// ErrorBody is the REST-ish error body the backend attaches to non-2xx
// responses
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// Error is the normalized error shape every client operation reports.
// Transport failures carry code 500; HTTP failures carry the response
// status and, when parseable, the backend's error body.
type Error struct {
	ErrorCode    int        `json:"errorCode"`
	ErrorMessage string     `json:"errorMessage"`
	Details      *ErrorBody `json:"error,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Details != nil && e.Details.Message != "" {
		return fmt.Sprintf("%s: %s", e.ErrorMessage, e.Details.Message)
	}
	return e.ErrorMessage
}
