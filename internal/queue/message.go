// Package queue carries advisory jobs from the API to the worker.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MessageVersion is the current advisory job payload version.
const MessageVersion = 1

var (
	// ErrMissingAnalysisID is returned for payloads without an analysisId.
	ErrMissingAnalysisID = errors.New("queue: message has no analysisId")
	// ErrUnsupportedVersion is returned for payloads newer than this binary.
	ErrUnsupportedVersion = errors.New("queue: unsupported message version")
)

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Message asks a worker to run advisory generation for a queued analysis.
type Message struct {
	AnalysisID string    `json:"analysisId"`
	RequestID  string    `json:"requestId,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	Version    int       `json:"version"`
}

// NewMessage builds a current-version job for analysisID.
func NewMessage(analysisID, requestID string, now time.Time) Message {
	return Message{
		AnalysisID: analysisID,
		RequestID:  requestID,
		EnqueuedAt: now.UTC().Truncate(time.Second),
		Version:    MessageVersion,
	}
}

// Validate rejects messages a worker can never process. A missing version
// is read as version 1.
func (m Message) Validate() error {
	if strings.TrimSpace(m.AnalysisID) == "" {
		return ErrMissingAnalysisID
	}
	if m.Version > MessageVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, m.Version)
	}
	return nil
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
