package common

import (
	"encoding/binary"
	"fmt"
)

// EncodeKeys packs a key list into a byte slice suitable for carrying in a
// Message's Value field, so MsgTKVKeys responses don't need a dedicated
// bit-flag field in the binary serializer. Format: 4 bytes count, then
// per-key 4 bytes length + key bytes, all big endian.
func EncodeKeys(keys []string) []byte {
	size := 4
	for _, k := range keys {
		size += 4 + len(k)
	}
	buf := make([]byte, size)
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(keys)))
	pos := 4
	for _, k := range keys {
		binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(len(k)))
		pos += 4
		copy(buf[pos:pos+len(k)], k)
		pos += len(k)
	}
	return buf
}

// DecodeKeys reverses EncodeKeys.
func DecodeKeys(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("data too short for key count")
	}
	count := binary.BigEndian.Uint32(data[0:4])
	pos := 4
	keys := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		if pos+4 > len(data) {
			return nil, fmt.Errorf("data too short for key length")
		}
		klen := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4
		if pos+int(klen) > len(data) {
			return nil, fmt.Errorf("data too short for key data")
		}
		keys = append(keys, string(data[pos:pos+int(klen)]))
		pos += int(klen)
	}
	return keys, nil
}
