package trie

import (
	"bytes"
	"errors"
	"testing"
)

func TestByteAlphabetRoundTrip(t *testing.T) {
	a := NewByteAlphabet()
	key := []byte{0x00, 0x10, 0x7f, 0xfe}
	encoded, err := a.Encode(key)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if encoded[len(encoded)-1] != Term {
		t.Fatalf("Encode() did not terminate with Term: %v", encoded)
	}
	decoded := a.Decode(encoded[:len(encoded)-1])
	if !bytes.Equal(decoded, key) {
		t.Errorf("Decode(Encode(key)) = %v, want %v", decoded, key)
	}
}

func TestByteAlphabetRejects255(t *testing.T) {
	a := NewByteAlphabet()
	_, err := a.Encode([]byte{0xff})
	if !errors.Is(err, ErrCharOutOfRange) {
		t.Fatalf("Encode(0xff) error = %v, want ErrCharOutOfRange", err)
	}
}

func TestASCIIAlphabetRoundTrip(t *testing.T) {
	a := NewASCIIAlphabet()
	key := []byte("pool")
	encoded, err := a.Encode(key)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	decoded := a.Decode(encoded[:len(encoded)-1])
	if !bytes.Equal(decoded, key) {
		t.Errorf("Decode(Encode(%q)) = %q, want %q", key, decoded, key)
	}
}

func TestASCIIAlphabetRejectsOutOfRange(t *testing.T) {
	a := NewASCIIAlphabet()
	_, err := a.Encode([]byte{0x01})
	if !errors.Is(err, ErrCharOutOfRange) {
		t.Fatalf("Encode(0x01) error = %v, want ErrCharOutOfRange", err)
	}
}

func TestRangeAlphabetRejectsOverlap(t *testing.T) {
	_, err := NewRangeAlphabet([2]byte{'a', 'z'}, [2]byte{'m', 'q'})
	if err == nil {
		t.Fatal("NewRangeAlphabet() with overlapping ranges should fail")
	}
}

func TestRangeAlphabetRejectsInverted(t *testing.T) {
	_, err := NewRangeAlphabet([2]byte{'z', 'a'})
	if err == nil {
		t.Fatal("NewRangeAlphabet() with lo > hi should fail")
	}
}

func TestRangeAlphabetMultipleRangesAreDense(t *testing.T) {
	a, err := NewRangeAlphabet([2]byte{'0', '9'}, [2]byte{'a', 'z'})
	if err != nil {
		t.Fatalf("NewRangeAlphabet() error = %v", err)
	}
	key := []byte("trie42")
	encoded, err := a.Encode(key)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	for _, sym := range encoded[:len(encoded)-1] {
		if sym == 0 || sym > CharMax {
			t.Fatalf("Encode() produced out-of-range symbol %d", sym)
		}
	}
	decoded := a.Decode(encoded[:len(encoded)-1])
	if !bytes.Equal(decoded, key) {
		t.Errorf("Decode(Encode(%q)) = %q, want %q", key, decoded, key)
	}
}
