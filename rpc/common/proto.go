package common

import (
	"encoding/json"
	"fmt"

	"github.com/signalserve/skv/lib/lookup"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses
// of the lookup protocol. Which fields are used depends on the message type.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// RequestID propagates the request identifier to the remote shard so
	// both sides attribute work to the same request.
	RequestID string `json:"request_id,omitempty"`

	// Request fields
	Keys  []string `json:"keys,omitempty"`  // Used for: GetKeyValues, GetKeyValueSet
	Query string   `json:"query,omitempty"` // Used for: RunQuery

	// Response fields
	Results  map[string]lookup.KeyResult `json:"results,omitempty"`  // Used for: GetKeyValues, GetKeyValueSet
	Elements []string                    `json:"elements,omitempty"` // Used for: RunQuery
	Err      string                      `json:"err,omitempty"`      // Empty if no error
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewGetKeyValuesRequest creates a new GetKeyValues request
func NewGetKeyValuesRequest(requestID string, keys []string) *Message {
	return &Message{
		MsgType:   MsgTGetKeyValues,
		RequestID: requestID,
		Keys:      keys,
	}
}

// NewGetKeyValuesResponse creates a new GetKeyValues response
func NewGetKeyValuesResponse(results map[string]lookup.KeyResult, err error) *Message {
	msg := &Message{
		MsgType: MsgTGetKeyValues,
		Results: results,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewGetKeyValueSetRequest creates a new GetKeyValueSet request
func NewGetKeyValueSetRequest(requestID string, keys []string) *Message {
	return &Message{
		MsgType:   MsgTGetKeyValueSet,
		RequestID: requestID,
		Keys:      keys,
	}
}

// NewGetKeyValueSetResponse creates a new GetKeyValueSet response
func NewGetKeyValueSetResponse(results map[string]lookup.KeyResult, err error) *Message {
	msg := &Message{
		MsgType: MsgTGetKeyValueSet,
		Results: results,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewRunQueryRequest creates a new RunQuery request
func NewRunQueryRequest(requestID string, query string) *Message {
	return &Message{
		MsgType:   MsgTRunQuery,
		RequestID: requestID,
		Query:     query,
	}
}

// NewRunQueryResponse creates a new RunQuery response
func NewRunQueryResponse(elements []string, err error) *Message {
	msg := &Message{
		MsgType:  MsgTRunQuery,
		Elements: elements,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTGetKeyValues:
		return "getKeyValues"
	case MsgTGetKeyValueSet:
		return "getKeyValueSet"
	case MsgTRunQuery:
		return "runQuery"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "getKeyValues":
		*t = MsgTGetKeyValues
	case "getKeyValueSet":
		*t = MsgTGetKeyValueSet
	case "runQuery":
		*t = MsgTRunQuery
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// ILookup operations

	MsgTGetKeyValues   // Point lookup for a set of keys
	MsgTGetKeyValueSet // Value-set lookup for a set of keys
	MsgTRunQuery       // Evaluate a set-algebra query
)
