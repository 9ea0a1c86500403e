package common

import (
	"errors"
	"testing"
)

// TestKeysCodecRoundTrip tests that key lists survive an encode/decode cycle.
func TestKeysCodecRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		keys []string
	}{
		{name: "nil slice", keys: nil},
		{name: "empty slice", keys: []string{}},
		{name: "single key", keys: []string{"hello"}},
		{name: "multiple keys", keys: []string{"aaa", "bbb", "ccc"}},
		{name: "empty string key", keys: []string{""}},
		{name: "key containing null byte", keys: []string{"a\x00b"}},
		{name: "mixed lengths", keys: []string{"a", "bb", "ccc", ""}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded := EncodeKeys(tc.keys)

			decoded, err := DecodeKeys(encoded)
			if err != nil {
				t.Fatalf("DecodeKeys returned error: %v", err)
			}

			if len(decoded) != len(tc.keys) {
				t.Fatalf("DecodeKeys returned %d keys, want %d", len(decoded), len(tc.keys))
			}
			for i := range tc.keys {
				if decoded[i] != tc.keys[i] {
					t.Errorf("key %d = %q, want %q", i, decoded[i], tc.keys[i])
				}
			}
		})
	}
}

// TestDecodeKeysEmptyData confirms that decoding a nil/empty buffer yields no
// keys rather than an error, matching the zero-value Message.Value seen when
// a Keys response carries an empty result.
func TestDecodeKeysEmptyData(t *testing.T) {
	keys, err := DecodeKeys(nil)
	if err != nil {
		t.Fatalf("DecodeKeys(nil) returned error: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("DecodeKeys(nil) = %v, want empty", keys)
	}
}

// TestDecodeKeysTruncatedData tests that malformed/truncated buffers are
// rejected rather than silently producing garbage keys.
func TestDecodeKeysTruncatedData(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{name: "count only, no keys", data: []byte{0, 0, 0, 1}},
		{name: "count header too short", data: []byte{0, 0}},
		{name: "key length header too short", data: []byte{0, 0, 0, 1, 0, 0}},
		{name: "key data too short", data: []byte{0, 0, 0, 1, 0, 0, 0, 5, 'a', 'b'}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeKeys(tc.data); err == nil {
				t.Error("expected error for truncated data, got none")
			}
		})
	}
}

// TestKeysRequestResponseRoundTrip exercises the factory functions the RPC
// client and server adapter use, not just the raw codec.
func TestKeysRequestResponseRoundTrip(t *testing.T) {
	req := NewKeysRequest("pre*")
	if req.MsgType != MsgTKVKeys {
		t.Errorf("NewKeysRequest MsgType = %v, want %v", req.MsgType, MsgTKVKeys)
	}
	if req.Key != "pre*" {
		t.Errorf("NewKeysRequest Key = %q, want %q", req.Key, "pre*")
	}

	keys := []string{"prefix1", "prefix2"}
	resp := NewKeysResponse(keys, nil)
	if resp.MsgType != MsgTKVKeys {
		t.Errorf("NewKeysResponse MsgType = %v, want %v", resp.MsgType, MsgTKVKeys)
	}
	if resp.Err != "" {
		t.Errorf("NewKeysResponse Err = %q, want empty", resp.Err)
	}

	decoded, err := DecodeKeys(resp.Value)
	if err != nil {
		t.Fatalf("DecodeKeys returned error: %v", err)
	}
	if len(decoded) != len(keys) {
		t.Fatalf("decoded %d keys, want %d", len(decoded), len(keys))
	}
	for i := range keys {
		if decoded[i] != keys[i] {
			t.Errorf("key %d = %q, want %q", i, decoded[i], keys[i])
		}
	}
}

// TestKeysResponseWithError confirms that an error response carries the
// error text and does not populate Value with a key list.
func TestKeysResponseWithError(t *testing.T) {
	wantErr := errors.New("keys operation is not supported")
	resp := NewKeysResponse(nil, wantErr)
	if resp.Err != wantErr.Error() {
		t.Errorf("NewKeysResponse Err = %q, want %q", resp.Err, wantErr.Error())
	}
}
