package serializer

import (
	"reflect"
	"testing"

	"github.com/signalserve/skv/lib/lookup"
	"github.com/signalserve/skv/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Point lookup request
		{
			MsgType:   common.MsgTGetKeyValues,
			RequestID: "req-1",
			Keys:      []string{"bid-key-1", "bid-key-2"},
		},

		// Point lookup response
		{
			MsgType: common.MsgTGetKeyValues,
			Results: map[string]lookup.KeyResult{
				"bid-key-1": {Value: "signal-a"},
				"bid-key-2": {NotFound: true},
			},
		},

		// Set lookup response with value sets
		{
			MsgType: common.MsgTGetKeyValueSet,
			Results: map[string]lookup.KeyResult{
				"segment-1": {ValueSet: []string{"id-1", "id-2"}},
				"segment-2": {NotFound: true},
			},
		},

		// Query request
		{
			MsgType:   common.MsgTRunQuery,
			RequestID: "req-2",
			Query:     "segment-1 UNION segment-2",
		},

		// Query response
		{
			MsgType:  common.MsgTRunQuery,
			Elements: []string{"id-1", "id-2", "id-3"},
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Err:     "test error message",
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// Test each message type (don't test for MsgTUnknown since this should raise an error)
			for msgType := common.MsgTSuccess; msgType <= common.MsgTRunQuery; msgType++ {
				msg := common.Message{MsgType: msgType}

				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Check type
				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	// Test cases for empty or zero values
	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Message with empty slices but not nil",
			msg: common.Message{
				MsgType:  common.MsgTRunQuery,
				Keys:     []string{},
				Elements: []string{},
			},
		},
		{
			name: "Message with empty results map",
			msg: common.Message{
				MsgType: common.MsgTGetKeyValues,
				Results: map[string]lookup.KeyResult{},
			},
		},
		{
			name: "Result with empty value and not-found flag",
			msg: common.Message{
				MsgType: common.MsgTGetKeyValues,
				Results: map[string]lookup.KeyResult{
					"missing": {NotFound: true},
				},
			},
		},
		{
			name: "Result with empty value set but not nil",
			msg: common.Message{
				MsgType: common.MsgTGetKeyValueSet,
				Results: map[string]lookup.KeyResult{
					"empty-set": {ValueSet: []string{}},
				},
			},
		},
		{
			name: "Keys containing empty strings",
			msg: common.Message{
				MsgType: common.MsgTGetKeyValues,
				Keys:    []string{"", "k", ""},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Serialize
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			// Deserialize
			var result common.Message
			err = serializer.Deserialize(data, &result)
			if err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			// Verify MsgType
			if tc.msg.MsgType != result.MsgType {
				t.Errorf("MsgType mismatch: expected %v, got %v", tc.msg.MsgType, result.MsgType)
			}

			// Verify RequestID
			if tc.msg.RequestID != result.RequestID {
				t.Errorf("RequestID mismatch: expected '%s', got '%s'", tc.msg.RequestID, result.RequestID)
			}

			// Verify Err
			if tc.msg.Err != result.Err {
				t.Errorf("Err mismatch: expected '%s', got '%s'", tc.msg.Err, result.Err)
			}

			// Special handling for slices that may be nil or empty
			if (tc.msg.Keys == nil) != (result.Keys == nil) {
				t.Errorf("Keys nil/non-nil mismatch: expected %v, got %v", tc.msg.Keys, result.Keys)
			} else if !reflect.DeepEqual(tc.msg.Keys, result.Keys) {
				t.Errorf("Keys mismatch: expected %v, got %v", tc.msg.Keys, result.Keys)
			}

			if (tc.msg.Elements == nil) != (result.Elements == nil) {
				t.Errorf("Elements nil/non-nil mismatch: expected %v, got %v", tc.msg.Elements, result.Elements)
			} else if !reflect.DeepEqual(tc.msg.Elements, result.Elements) {
				t.Errorf("Elements mismatch: expected %v, got %v", tc.msg.Elements, result.Elements)
			}

			// Same for the results map
			if (tc.msg.Results == nil) != (result.Results == nil) {
				t.Errorf("Results nil/non-nil mismatch: expected %v, got %v", tc.msg.Results, result.Results)
			} else if !reflect.DeepEqual(tc.msg.Results, result.Results) {
				t.Errorf("Results mismatch: expected %v, got %v", tc.msg.Results, result.Results)
			}
		})
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{3}, // Only message type, no flags
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{3, 0}, // Message type 3, no flags
			expectError: false,
		},
		{
			name:        "Invalid length for request id",
			data:        []byte{3, 1, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Truncated keys slice",
			data:        []byte{3, 2, 0, 0, 0, 2, 0, 0, 0, 1, 'a'}, // Claims 2 keys but only 1 present
			expectError: true,
		},
		{
			name:        "Truncated results map",
			data:        []byte{3, 8, 0, 0, 0, 1}, // Claims 1 result entry but no data
			expectError: true,
		},
		{
			name:        "Keys count larger than remaining data",
			data:        []byte{3, 2, 0xFF, 0xFF, 0xFF, 0xFF}, // Claims 2^32-1 keys, no data
			expectError: true,
		},
		{
			name:        "Results count larger than remaining data",
			data:        []byte{3, 8, 0xFF, 0xFF, 0xFF, 0xFF}, // Claims 2^32-1 result entries, no data
			expectError: true,
		},
		{
			name:        "Elements count larger than remaining data",
			data:        []byte{3, 16, 0xFF, 0xFF, 0xFF, 0xFF}, // Claims 2^32-1 elements, no data
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}
