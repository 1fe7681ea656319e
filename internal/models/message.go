package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// MessageType identifies a push event from the live update channel.
type MessageType string

const (
	MessagePRCreated        MessageType = "pr_created"
	MessageAnalysisComplete MessageType = "analysis_complete"
)

var (
	ErrMalformedMessage = errors.New("malformed push message")
	ErrMissingType      = fmt.Errorf("%w: missing type", ErrMalformedMessage)
	ErrMissingPRID      = fmt.Errorf("%w: missing data.pr_id", ErrMalformedMessage)
)

// PushMessage is one decoded frame: {"type": ..., "data": {...}}.
type PushMessage struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// DecodePushMessage parses a frame, rejecting invalid JSON and frames without a type.
func DecodePushMessage(frame []byte) (PushMessage, error) {
	var msg PushMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		return PushMessage{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.Type == "" {
		return PushMessage{}, ErrMissingType
	}
	return msg, nil
}

// PRID extracts data.pr_id as its decimal string form.
//
// The backend sends integers; strings are accepted as-is.
func (m PushMessage) PRID() (string, error) {
	var data struct {
		PRID json.RawMessage `json:"pr_id"`
	}
	if len(m.Data) == 0 {
		return "", ErrMissingPRID
	}
	if err := json.Unmarshal(m.Data, &data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	raw := bytes.TrimSpace(data.PRID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", ErrMissingPRID
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return "", ErrMissingPRID
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: pr_id %s", ErrMalformedMessage, raw)
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	// 42.0 and 4.2e1 name the same pull request as 42
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		return strconv.FormatInt(int64(f), 10), nil
	}
	return n.String(), nil
}
