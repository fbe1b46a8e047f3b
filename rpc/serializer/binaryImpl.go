package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/signalserve/skv/lib/lookup"
	"github.com/signalserve/skv/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasRequestID byte = 1 << 0
	hasKeys      byte = 1 << 1
	hasQuery     byte = 1 << 2
	hasResults   byte = 1 << 3
	hasElements  byte = 1 << 4
	hasErr       byte = 1 << 5
)

// Per-result flags
const (
	resultNotFound    byte = 1 << 0
	resultHasValueSet byte = 1 << 1
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	totalSize := b.sizeBytes(msg)
	result := make([]byte, totalSize)

	// Write message type
	result[0] = byte(msg.MsgType)

	// Initialize flags byte
	var flags byte = 0

	// Set position for writing
	pos := 2 // Start after MsgType and flags

	// Handle RequestID
	if msg.RequestID != "" {
		flags |= hasRequestID
		pos = putString(result, pos, msg.RequestID)
	}

	// Handle Keys
	if msg.Keys != nil {
		flags |= hasKeys
		pos = putStringSlice(result, pos, msg.Keys)
	}

	// Handle Query
	if msg.Query != "" {
		flags |= hasQuery
		pos = putString(result, pos, msg.Query)
	}

	// Handle Results
	if msg.Results != nil {
		flags |= hasResults

		// Write entry count
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(msg.Results)))
		pos += 4

		// Write each key and its result
		for key, kr := range msg.Results {
			pos = putString(result, pos, key)

			var resultFlags byte
			if kr.NotFound {
				resultFlags |= resultNotFound
			}
			if kr.ValueSet != nil {
				resultFlags |= resultHasValueSet
			}
			result[pos] = resultFlags
			pos++

			pos = putString(result, pos, kr.Value)
			if kr.ValueSet != nil {
				pos = putStringSlice(result, pos, kr.ValueSet)
			}
		}
	}

	// Handle Elements
	if msg.Elements != nil {
		flags |= hasElements
		pos = putStringSlice(result, pos, msg.Elements)
	}

	// Handle Err
	if msg.Err != "" {
		flags |= hasErr
		pos = putString(result, pos, msg.Err)
	}

	// Set flags byte after knowing which fields are present
	result[1] = flags

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	// Read message type
	msg.MsgType = common.MessageType(data[0])

	// Read flags
	flags := data[1]

	// Initialize read position
	pos := 2
	var err error

	// Read RequestID if present
	if flags&hasRequestID != 0 {
		if msg.RequestID, pos, err = readString(data, pos); err != nil {
			return fmt.Errorf("request id: %v", err)
		}
	} else {
		msg.RequestID = ""
	}

	// Read Keys if present
	if flags&hasKeys != 0 {
		if msg.Keys, pos, err = readStringSlice(data, pos); err != nil {
			return fmt.Errorf("keys: %v", err)
		}
	} else {
		msg.Keys = nil
	}

	// Read Query if present
	if flags&hasQuery != 0 {
		if msg.Query, pos, err = readString(data, pos); err != nil {
			return fmt.Errorf("query: %v", err)
		}
	} else {
		msg.Query = ""
	}

	// Read Results if present
	if flags&hasResults != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for results count")
		}
		count := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		// Each entry needs at least a key length prefix, a flags byte and
		// a value length prefix; a count claiming more entries than the
		// remaining data can hold is corrupt
		if int(count) > (len(data)-pos)/9 {
			return fmt.Errorf("results count %d exceeds remaining data", count)
		}

		results := make(map[string]lookup.KeyResult, count)
		for i := uint32(0); i < count; i++ {
			var key string
			if key, pos, err = readString(data, pos); err != nil {
				return fmt.Errorf("result key: %v", err)
			}

			if pos+1 > len(data) {
				return fmt.Errorf("data too short for result flags")
			}
			resultFlags := data[pos]
			pos++

			var kr lookup.KeyResult
			kr.NotFound = resultFlags&resultNotFound != 0
			if kr.Value, pos, err = readString(data, pos); err != nil {
				return fmt.Errorf("result value: %v", err)
			}
			if resultFlags&resultHasValueSet != 0 {
				if kr.ValueSet, pos, err = readStringSlice(data, pos); err != nil {
					return fmt.Errorf("result value set: %v", err)
				}
			}
			results[key] = kr
		}
		msg.Results = results
	} else {
		msg.Results = nil
	}

	// Read Elements if present
	if flags&hasElements != 0 {
		if msg.Elements, pos, err = readStringSlice(data, pos); err != nil {
			return fmt.Errorf("elements: %v", err)
		}
	} else {
		msg.Elements = nil
	}

	// Read Err if present
	if flags&hasErr != 0 {
		if msg.Err, _, err = readString(data, pos); err != nil {
			return fmt.Errorf("err: %v", err)
		}
	} else {
		msg.Err = ""
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// putString writes a length-prefixed string and returns the new position
func putString(buf []byte, pos int, s string) int {
	binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(len(s)))
	pos += 4
	copy(buf[pos:pos+len(s)], s)
	return pos + len(s)
}

// putStringSlice writes a count-prefixed slice of length-prefixed strings
func putStringSlice(buf []byte, pos int, elems []string) int {
	binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(len(elems)))
	pos += 4
	for _, e := range elems {
		pos = putString(buf, pos, e)
	}
	return pos
}

// readString reads a length-prefixed string and returns it with the new position
func readString(data []byte, pos int) (string, int, error) {
	if pos+4 > len(data) {
		return "", pos, fmt.Errorf("data too short for string length")
	}
	strLen := binary.BigEndian.Uint32(data[pos : pos+4])
	pos += 4

	if pos+int(strLen) > len(data) {
		return "", pos, fmt.Errorf("data too short for string data")
	}
	s := string(data[pos : pos+int(strLen)])
	return s, pos + int(strLen), nil
}

// readStringSlice reads a count-prefixed slice of length-prefixed strings
func readStringSlice(data []byte, pos int) ([]string, int, error) {
	if pos+4 > len(data) {
		return nil, pos, fmt.Errorf("data too short for slice count")
	}
	count := binary.BigEndian.Uint32(data[pos : pos+4])
	pos += 4

	// Each element needs at least its 4 byte length prefix; a count claiming
	// more elements than the remaining data can hold is corrupt
	if int(count) > (len(data)-pos)/4 {
		return nil, pos, fmt.Errorf("slice count %d exceeds remaining data", count)
	}

	elems := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		var (
			e   string
			err error
		)
		if e, pos, err = readString(data, pos); err != nil {
			return nil, pos, err
		}
		elems = append(elems, e)
	}
	return elems, pos, nil
}

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	// Add sizes for fields that require length encoding
	if msg.RequestID != "" {
		size += 4 + len(msg.RequestID)
	}
	if msg.Keys != nil {
		size += sliceSize(msg.Keys)
	}
	if msg.Query != "" {
		size += 4 + len(msg.Query)
	}
	if msg.Results != nil {
		size += 4 // entry count
		for key, kr := range msg.Results {
			// key string + result flags + value string
			size += 4 + len(key) + 1 + 4 + len(kr.Value)
			if kr.ValueSet != nil {
				size += sliceSize(kr.ValueSet)
			}
		}
	}
	if msg.Elements != nil {
		size += sliceSize(msg.Elements)
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}

	return size
}

// sliceSize calculates the encoded size of a string slice
func sliceSize(elems []string) int {
	size := 4 // element count
	for _, e := range elems {
		size += 4 + len(e)
	}
	return size
}
