package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dTodo/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Layout: MsgType (1 byte) | flags (2 bytes) | Code (1 byte) | fields in flag order.
// Strings and byte slices are prefixed with a uint32 length, lists with a uint32 count.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey     uint16 = 1 << 0
	hasDate    uint16 = 1 << 1
	hasTitle   uint16 = 1 << 2
	hasEntries uint16 = 1 << 3
	hasKeys    uint16 = 1 << 4
	hasValue   uint16 = 1 << 5
	hasOk      uint16 = 1 << 6
	hasErr     uint16 = 1 << 7
)

const headerSize = 4

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Name() string {
	return "binary"
}

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	result := make([]byte, headerSize, b.sizeBytes(msg))
	result[0] = byte(msg.MsgType)
	result[3] = byte(msg.Code)

	var flags uint16
	if msg.Key != "" {
		flags |= hasKey
		result = appendString(result, msg.Key)
	}
	if msg.Date != "" {
		flags |= hasDate
		result = appendString(result, msg.Date)
	}
	if msg.Title != "" {
		flags |= hasTitle
		result = appendString(result, msg.Title)
	}
	if len(msg.Entries) > 0 {
		flags |= hasEntries
		result = binary.BigEndian.AppendUint32(result, uint32(len(msg.Entries)))
		for _, e := range msg.Entries {
			result = appendString(result, e.Date)
			result = appendString(result, e.Title)
		}
	}
	if len(msg.Keys) > 0 {
		flags |= hasKeys
		result = binary.BigEndian.AppendUint32(result, uint32(len(msg.Keys)))
		for _, k := range msg.Keys {
			result = appendString(result, k)
		}
	}
	// a non nil but empty value is kept
	if msg.Value != nil {
		flags |= hasValue
		result = binary.BigEndian.AppendUint32(result, uint32(len(msg.Value)))
		result = append(result, msg.Value...)
	}
	if msg.Ok {
		flags |= hasOk
	}
	if msg.Err != "" {
		flags |= hasErr
		result = appendString(result, msg.Err)
	}

	// Set flags after knowing which fields are present
	binary.BigEndian.PutUint16(result[1:3], flags)

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	if len(data) < headerSize {
		return fmt.Errorf("data too short for message header")
	}

	*msg = common.Message{
		MsgType: common.MessageType(data[0]),
		Code:    common.ErrorCode(data[3]),
	}
	flags := binary.BigEndian.Uint16(data[1:3])
	r := reader{data: data, pos: headerSize}

	if flags&hasKey != 0 {
		msg.Key = r.readString("key")
	}
	if flags&hasDate != 0 {
		msg.Date = r.readString("date")
	}
	if flags&hasTitle != 0 {
		msg.Title = r.readString("title")
	}
	if flags&hasEntries != 0 {
		n := r.readCount("entries", 8)
		if r.err == nil {
			msg.Entries = make([]common.Entry, 0, n)
		}
		for i := 0; i < n && r.err == nil; i++ {
			msg.Entries = append(msg.Entries, common.Entry{
				Date:  r.readString("entry date"),
				Title: r.readString("entry title"),
			})
		}
	}
	if flags&hasKeys != 0 {
		n := r.readCount("keys", 4)
		if r.err == nil {
			msg.Keys = make([]string, 0, n)
		}
		for i := 0; i < n && r.err == nil; i++ {
			msg.Keys = append(msg.Keys, r.readString("keys"))
		}
	}
	if flags&hasValue != 0 {
		msg.Value = r.readBytes("value")
	}
	msg.Ok = flags&hasOk != 0
	if flags&hasErr != 0 {
		msg.Err = r.readString("err")
	}

	return r.err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the exact size needed for the serialized message
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	size := headerSize
	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Date != "" {
		size += 4 + len(msg.Date)
	}
	if msg.Title != "" {
		size += 4 + len(msg.Title)
	}
	if len(msg.Entries) > 0 {
		size += 4
		for _, e := range msg.Entries {
			size += 8 + len(e.Date) + len(e.Title)
		}
	}
	if len(msg.Keys) > 0 {
		size += 4
		for _, k := range msg.Keys {
			size += 4 + len(k)
		}
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	return size
}

func appendString(dst []byte, s string) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(s)))
	return append(dst, s...)
}

// reader reads length prefixed fields, after the first error all reads return zero values
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) readUint32(field string) uint32 {
	if r.err != nil {
		return 0
	}
	if r.pos+4 > len(r.data) {
		r.err = fmt.Errorf("data too short for %s length", field)
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.pos : r.pos+4])
	r.pos += 4
	return v
}

// readCount reads a list length, minElemSize guards against absurd counts in corrupt data
func (r *reader) readCount(field string, minElemSize int) int {
	n := int(r.readUint32(field))
	if r.err == nil && n*minElemSize > len(r.data)-r.pos {
		r.err = fmt.Errorf("data too short for %d %s", n, field)
		return 0
	}
	return n
}

func (r *reader) readBytes(field string) []byte {
	n := int(r.readUint32(field))
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.data) {
		r.err = fmt.Errorf("data too short for %s data", field)
		return nil
	}
	b := make([]byte, n)
	copy(b, r.data[r.pos:r.pos+n])
	r.pos += n
	return b
}

func (r *reader) readString(field string) string {
	n := int(r.readUint32(field))
	if r.err != nil {
		return ""
	}
	if r.pos+n > len(r.data) {
		r.err = fmt.Errorf("data too short for %s data", field)
		return ""
	}
	s := string(r.data[r.pos : r.pos+n])
	r.pos += n
	return s
}
