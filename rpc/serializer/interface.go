package serializer

import "github.com/ValentinKolb/dTodo/rpc/common"

// IRPCSerializer converts todo messages to and from their wire form.
// Client and server must use the same implementation; the encodings are not compatible.
type IRPCSerializer interface {
	// Name is the value of the --serializer flag that selects this implementation
	Name() string
	// Serialize encodes a request or response message
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize decodes b into msg. Fields of a reused msg are reset first,
	// so nothing of the previous message leaks into the new one.
	Deserialize(b []byte, msg *common.Message) error
}
