package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Request fields
	Key   string `json:"key,omitempty"`   // Used for: Post, Get, Flush, Crash, Stop, Status
	Date  string `json:"date,omitempty"`  // Used for: Post, Get (YYYY-MM-DD)
	Title string `json:"title,omitempty"` // Used for: Post

	// Response only fields
	Entries []Entry   `json:"entries,omitempty"` // Used for: Get responses
	Keys    []string  `json:"keys,omitempty"`    // Used for: Keys responses
	Value   []byte    `json:"value,omitempty"`   // Used for: Status responses (json encoded)
	Ok      bool      `json:"ok,omitempty"`      // Used for: Stop responses (worker existed)
	Err     string    `json:"err,omitempty"`     // Empty if no error, otherwise contains the error message
	Code    ErrorCode `json:"code,omitempty"`    // Category of Err
}

// Entry is the wire form of a todo entry.
type Entry struct {
	Date  string `json:"date"`
	Title string `json:"title"`
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

func withErr(msg *Message, err error) *Message {
	if err != nil {
		msg.Err = err.Error()
		msg.Code = ErrorCodeOf(err)
	}
	return msg
}

// NewPostRequest creates a new Post request
func NewPostRequest(key, date, title string) *Message {
	return &Message{
		MsgType: MsgTTodoPost,
		Key:     key,
		Date:    date,
		Title:   title,
	}
}

// NewPostResponse creates a new Post response
func NewPostResponse(err error) *Message {
	return withErr(&Message{MsgType: MsgTTodoPost}, err)
}

// NewGetRequest creates a new Get request
func NewGetRequest(key, date string) *Message {
	return &Message{
		MsgType: MsgTTodoGet,
		Key:     key,
		Date:    date,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(entries []Entry, err error) *Message {
	return withErr(&Message{MsgType: MsgTTodoGet, Entries: entries}, err)
}

// NewFlushRequest creates a new Flush request
func NewFlushRequest(key string) *Message {
	return &Message{
		MsgType: MsgTTodoFlush,
		Key:     key,
	}
}

// NewFlushResponse creates a new Flush response
func NewFlushResponse(err error) *Message {
	return withErr(&Message{MsgType: MsgTTodoFlush}, err)
}

// NewCrashRequest creates a new Crash request
func NewCrashRequest(key string) *Message {
	return &Message{
		MsgType: MsgTTodoCrash,
		Key:     key,
	}
}

// NewCrashResponse creates a new Crash response
func NewCrashResponse(err error) *Message {
	return withErr(&Message{MsgType: MsgTTodoCrash}, err)
}

// NewStopRequest creates a new Stop request
func NewStopRequest(key string) *Message {
	return &Message{
		MsgType: MsgTTodoStop,
		Key:     key,
	}
}

// NewStopResponse creates a new Stop response
func NewStopResponse(err error) *Message {
	return withErr(&Message{MsgType: MsgTTodoStop}, err)
}

// NewStatusRequest creates a new Status request
func NewStatusRequest(key string) *Message {
	return &Message{
		MsgType: MsgTTodoStatus,
		Key:     key,
	}
}

// NewStatusResponse creates a new Status response, status is json encoded into Value
func NewStatusResponse(status any, err error) *Message {
	msg := &Message{MsgType: MsgTTodoStatus}
	if err != nil {
		return withErr(msg, err)
	}
	value, mErr := json.Marshal(status)
	if mErr != nil {
		return withErr(msg, mErr)
	}
	msg.Value = value
	return msg
}

// NewKeysRequest creates a new Keys request
func NewKeysRequest() *Message {
	return &Message{MsgType: MsgTTodoKeys}
}

// NewKeysResponse creates a new Keys response
func NewKeysResponse(keys []string, err error) *Message {
	return withErr(&Message{MsgType: MsgTTodoKeys, Keys: keys}, err)
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(code ErrorCode, err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
		Code:    code,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

var messageTypeNames = map[MessageType]string{
	MsgTSuccess:    "success",
	MsgTError:      "error",
	MsgTTodoPost:   "post",
	MsgTTodoGet:    "get",
	MsgTTodoFlush:  "flush",
	MsgTTodoCrash:  "crash",
	MsgTTodoStop:   "stop",
	MsgTTodoStatus: "status",
	MsgTTodoKeys:   "keys",
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "unknown"
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
	for msgType, name := range messageTypeNames {
		if name == s {
			*t = msgType
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// Todo operations

	MsgTTodoPost   // Append an entry to a key's list
	MsgTTodoGet    // Get the entries of one date
	MsgTTodoFlush  // Wait until a key's list is persisted
	MsgTTodoCrash  // Make a key's worker fail
	MsgTTodoStop   // Stop a key's worker normally
	MsgTTodoStatus // Get the bookkeeping of a key's worker
	MsgTTodoKeys   // List the keys with a live worker
)
