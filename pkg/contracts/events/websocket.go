// Package events contains the message contracts broadcast over the
// StockPulse websocket hub.
package events

import (
	"time"

	"github.com/google/uuid"

	"stockpulse/pkg/contracts/domain"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Dataset lifecycle
	MessageTypeDatasetLoaded MessageType = "dataset:loaded"
	MessageTypeDatasetFailed MessageType = "dataset:failed"

	// Query state changes
	MessageTypeFiltersChanged MessageType = "filters:changed"
	MessageTypeFiltersReset   MessageType = "filters:reset"

	// Connection messages
	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`       // Unique message ID
	Type      MessageType `json:"type"`               // Message type
	Timestamp time.Time   `json:"timestamp"`          // Message timestamp
	TraceID   string      `json:"trace_id,omitempty"` // Request trace ID
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"` // Message payload
}

// NewMessage stamps a message with a fresh ID and the current time
func NewMessage(t MessageType, data interface{}, traceID string) WebSocketMessage {
	return WebSocketMessage{
		BaseMessage: BaseMessage{
			ID:        uuid.NewString(),
			Type:      t,
			Timestamp: time.Now().UTC(),
			TraceID:   traceID,
		},
		Data: data,
	}
}

// DatasetFailed is the payload of dataset:failed
type DatasetFailed struct {
	FileName string `json:"file_name"`
	Error    string `json:"error"`
	Source   string `json:"source"` // upload|reload
}

// FiltersChanged is the payload of filters:changed
type FiltersChanged struct {
	Query           domain.QueryState `json:"query"`
	FilteredRecords int               `json:"filtered_records"`
}

// ConnectionInfo is sent to a client right after it registers
type ConnectionInfo struct {
	ClientID string              `json:"client_id"`
	Status   string              `json:"status"`
	Version  string              `json:"version"`
	Dataset  *domain.DatasetInfo `json:"dataset,omitempty"`
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
