package trie

import "testing"

func TestSymbolsAddSorted(t *testing.T) {
	s := NewSymbols()
	s.AddSorted('a')
	s.AddSorted('c')
	s.AddSorted('z')
	if s.Num() != 3 {
		t.Fatalf("Num() = %d, want 3", s.Num())
	}
	want := []byte{'a', 'c', 'z'}
	for i, w := range want {
		if got := s.Get(i); got != w {
			t.Errorf("Get(%d) = %q, want %q", i, got, w)
		}
	}
}

func TestSymbolsAddMaintainsOrder(t *testing.T) {
	s := NewSymbols()
	for _, c := range []byte{'d', 'b', 'f', 'a', 'e', 'c'} {
		s.Add(c)
	}
	want := []byte{'a', 'b', 'c', 'd', 'e', 'f'}
	if s.Num() != len(want) {
		t.Fatalf("Num() = %d, want %d", s.Num(), len(want))
	}
	for i, w := range want {
		if got := s.Get(i); got != w {
			t.Errorf("Get(%d) = %q, want %q", i, got, w)
		}
	}
}

func TestSymbolsAddDuplicateIsNoOp(t *testing.T) {
	s := NewSymbols()
	s.Add('m')
	s.Add('m')
	if s.Num() != 1 {
		t.Fatalf("Num() = %d, want 1 after adding a duplicate", s.Num())
	}
}
