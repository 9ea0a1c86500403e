package trie

import (
	"bytes"
	"testing"
)

func TestTailPoolAllocFreeReuse(t *testing.T) {
	p := NewTailPool(EntryOptions{})
	a := p.Alloc()
	b := p.Alloc()
	if a < 0 || b < 0 {
		t.Fatalf("Alloc() returned a=%d b=%d, want non-negative", a, b)
	}
	if p.Used() != 2 {
		t.Fatalf("Used() = %d, want 2", p.Used())
	}

	p.Free(a)
	if p.Used() != 1 {
		t.Fatalf("Used() = %d after Free, want 1", p.Used())
	}

	c := p.Alloc()
	if c != a {
		t.Errorf("Alloc() after Free(%d) = %d, want reuse of %d", a, c, a)
	}
}

func TestTailPoolFreeRunsDestructors(t *testing.T) {
	var freedKeys [][]byte
	var freedVals []interface{}
	p := NewTailPool(EntryOptions{
		KeyDestructor: func(key []byte) { freedKeys = append(freedKeys, key) },
		ValDestructor: func(val interface{}) { freedVals = append(freedVals, val) },
	})

	block := p.Alloc()
	p.SetKey(block, []byte("pool"))
	p.SetVal(block, 42)
	p.Free(block)

	if len(freedKeys) != 1 || !bytes.Equal(freedKeys[0], []byte("pool")) {
		t.Errorf("KeyDestructor calls = %v, want one call with %q", freedKeys, "pool")
	}
	if len(freedVals) != 1 || freedVals[0] != 42 {
		t.Errorf("ValDestructor calls = %v, want one call with 42", freedVals)
	}
}

func TestTailPoolFreeTwiceIsNoOp(t *testing.T) {
	var calls int
	p := NewTailPool(EntryOptions{ValDestructor: func(interface{}) { calls++ }})
	block := p.Alloc()
	p.SetVal(block, "x")
	p.Free(block)
	p.Free(block)
	if calls != 1 {
		t.Errorf("ValDestructor called %d times, want exactly 1 for a double Free", calls)
	}
}

func TestTailPoolSetKeyDupsOnWrite(t *testing.T) {
	var dupCalls int
	p := NewTailPool(EntryOptions{
		KeyDup: func(key []byte) []byte {
			dupCalls++
			dup := make([]byte, len(key))
			copy(dup, key)
			return dup
		},
	})
	block := p.Alloc()
	original := []byte("prize")
	p.SetKey(block, original)

	entry := p.Get(block)
	if !bytes.Equal(entry.Key, original) {
		t.Fatalf("Get(block).Key = %q, want %q", entry.Key, original)
	}
	if dupCalls != 1 {
		t.Fatalf("KeyDup called %d times, want 1", dupCalls)
	}

	original[0] = 'X'
	if bytes.Equal(entry.Key, original) {
		t.Error("entry.Key aliases the caller's slice; SetKey should have duplicated it")
	}
}

func TestTailPoolWalkTail(t *testing.T) {
	p := NewTailPool(EntryOptions{})
	block := p.Alloc()
	p.SetSuffix(block, []byte{'o', 'o', 'l', Term})

	idx := 0
	for _, c := range []byte{'o', 'o', 'l', Term} {
		if !p.WalkTail(block, &idx, c) {
			t.Fatalf("WalkTail(%q) = false, want true", c)
		}
	}
}

func TestTailPoolWalkTailMismatch(t *testing.T) {
	p := NewTailPool(EntryOptions{})
	block := p.Alloc()
	p.SetSuffix(block, []byte{'o', 'o', 'l', Term})

	idx := 0
	if !p.WalkTail(block, &idx, 'o') {
		t.Fatal("WalkTail('o') = false, want true")
	}
	if p.WalkTail(block, &idx, 'x') {
		t.Fatal("WalkTail('x') after 'o' = true, want false (suffix is 'ool')")
	}
}

func TestTailPoolGrowsPastInitialCapacity(t *testing.T) {
	p := NewTailPool(EntryOptions{})
	var blocks []int
	for i := 0; i < 100; i++ {
		blocks = append(blocks, p.Alloc())
	}
	if p.Used() != 100 {
		t.Fatalf("Used() = %d, want 100", p.Used())
	}
	seen := make(map[int]bool)
	for _, b := range blocks {
		if seen[b] {
			t.Fatalf("Alloc() returned duplicate block %d", b)
		}
		seen[b] = true
	}
}

func TestTailPoolSuffixAliasingToleratesSharedSlice(t *testing.T) {
	p := NewTailPool(EntryOptions{})
	block := p.Alloc()
	shared := []byte{'a', 'b', Term}
	p.SetSuffix(block, shared)

	// Re-set the suffix to a sub-slice of the currently stored suffix, the
	// way insertInTail does when splitting a tail in place.
	entry := p.Get(block)
	p.SetSuffix(block, entry.Suffix[1:])

	got := p.Get(block).Suffix
	if !bytes.Equal(got, []byte{'b', Term}) {
		t.Errorf("SetSuffix(self-subslice) = %v, want %v", got, []byte{'b', Term})
	}
}
