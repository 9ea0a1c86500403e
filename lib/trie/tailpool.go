package trie

// TailEntry holds the suffix of a trie path that currently has no
// branching, plus the full external key and opaque value for that path.
type TailEntry struct {
	// Suffix is the remaining internal-symbol suffix, including the
	// trailing Term, or nil.
	Suffix []byte
	// Key is the full external key for this entry, duplicated or
	// borrowed per the EntryOptions supplied at Trie construction.
	Key []byte
	// Val is the opaque value associated with Key.
	Val interface{}
	// nextFree chains free slots; -1 marks an in-use slot.
	nextFree int
}

func (e *TailEntry) inUse() bool {
	return e.nextFree == -1
}

// EntryOptions configures ownership semantics for tail entries: a
// caller-supplied duplicator/destructor pair per field. A nil Key/ValDup
// means keys/values are borrowed and the caller guarantees their lifetime;
// a nil destructor means no cleanup action runs on delete/replace/teardown.
type EntryOptions struct {
	KeyDup        func(key []byte) []byte
	ValDup        func(val interface{}) interface{}
	KeyDestructor func(key []byte)
	ValDestructor func(val interface{})
}

// TailPool is a slab allocator for TailEntry, with a singly-linked free
// list threaded through TailEntry.nextFree. The free-list sentinel here is
// -1, not 0, so a freed slot at index 0 can never be confused with "list
// empty" — see DESIGN.md.
type TailPool struct {
	entries   []TailEntry
	firstFree int
	used      int
	opts      EntryOptions
}

// NewTailPool returns an empty pool. Storage is allocated lazily on first
// Alloc, matching the Trie's own lazy setup.
func NewTailPool(opts EntryOptions) *TailPool {
	return &TailPool{firstFree: -1, opts: opts}
}

// Used returns the number of in-use tail slots.
func (p *TailPool) Used() int {
	return p.used
}

// Len returns the current slab capacity (number of slots, used or free).
func (p *TailPool) Len() int {
	return len(p.entries)
}

// Get returns a pointer to the entry at the given block index (0-based, not
// offset by TAIL_START_BLOCKNO — callers in Trie apply that offset).
func (p *TailPool) Get(block int) *TailEntry {
	if block < 0 || block >= len(p.entries) {
		return nil
	}
	return &p.entries[block]
}

// Alloc reserves a new tail slot, growing the pool (power-of-two) if the
// free list is exhausted. Returns the block index, or -1 on allocation
// failure.
func (p *TailPool) Alloc() int {
	var block int
	if p.firstFree != -1 {
		block = p.firstFree
		p.firstFree = p.entries[block].nextFree
	} else {
		block = len(p.entries)
		newSize := nextPower(block + 1)
		if newSize <= block {
			return -1
		}
		grown := make([]TailEntry, newSize)
		copy(grown, p.entries)
		p.entries = grown

		for i := block + 1; i < newSize-1; i++ {
			p.entries[i].nextFree = i + 1
		}
		p.entries[newSize-1].nextFree = -1
		if block+1 < newSize {
			p.firstFree = block + 1
		} else {
			p.firstFree = -1
		}
	}

	p.entries[block] = TailEntry{nextFree: -1}
	p.used++
	return block
}

// Free releases a tail slot: runs destructors on Key/Val, drops the
// suffix, and reinserts the slot into the free list in ascending order.
// Ascending order isn't load-bearing here the way it is for DoubleArray's
// free list, but it keeps both pools' allocation behavior predictable for
// tests.
func (p *TailPool) Free(block int) {
	if block < 0 || block >= len(p.entries) {
		return
	}
	e := &p.entries[block]
	if !e.inUse() {
		return
	}

	if p.opts.KeyDestructor != nil {
		p.opts.KeyDestructor(e.Key)
	}
	if p.opts.ValDestructor != nil {
		p.opts.ValDestructor(e.Val)
	}
	e.Suffix = nil
	e.Key = nil
	e.Val = nil

	prev := -1
	i := p.firstFree
	for i != -1 && i < block {
		prev = i
		i = p.entries[i].nextFree
	}

	e.nextFree = i
	if prev == -1 {
		p.firstFree = block
	} else {
		p.entries[prev].nextFree = block
	}
	p.used--
}

// SetSuffix duplicates bytes and installs it as the entry's suffix,
// tolerating the incoming slice aliasing the currently stored one: it
// always duplicates before freeing the old suffix.
func (p *TailPool) SetSuffix(block int, suffix []byte) {
	e := p.Get(block)
	if e == nil {
		return
	}
	var dup []byte
	if suffix != nil {
		dup = make([]byte, len(suffix))
		copy(dup, suffix)
	}
	e.Suffix = dup
}

// SetKey installs key on the entry, duplicating it when a KeyDup is
// configured. This always assigns the duplicator's return value, never the
// original slice, so a duplicator that copies into new storage is honored.
func (p *TailPool) SetKey(block int, key []byte) {
	e := p.Get(block)
	if e == nil {
		return
	}
	if p.opts.KeyDup != nil {
		e.Key = p.opts.KeyDup(key)
	} else {
		e.Key = key
	}
}

// SetVal installs val on the entry, duplicating it when a ValDup is
// configured (see SetKey).
func (p *TailPool) SetVal(block int, val interface{}) {
	e := p.Get(block)
	if e == nil {
		return
	}
	if p.opts.ValDup != nil {
		e.Val = p.opts.ValDup(val)
	} else {
		e.Val = val
	}
}

// WalkTail advances suffixIdx past c if the entry's suffix matches c at the
// current position; Term never advances the index once matched. Returns
// false on mismatch or a missing suffix.
func (p *TailPool) WalkTail(block int, suffixIdx *int, c byte) bool {
	e := p.Get(block)
	if e == nil || e.Suffix == nil {
		return false
	}
	if *suffixIdx >= len(e.Suffix) {
		return false
	}
	if e.Suffix[*suffixIdx] != c {
		return false
	}
	if c != Term {
		*suffixIdx++
	}
	return true
}

// Range calls fn for every in-use slot, in ascending block order, stopping
// early if fn returns false. Used by Trie.Empty and by persistence/export
// code; callers needing progress callbacks drive that from outside Range
// via the returned count.
func (p *TailPool) Range(fn func(block int, e *TailEntry) bool) {
	for i := range p.entries {
		if p.entries[i].inUse() {
			if !fn(i, &p.entries[i]) {
				return
			}
		}
	}
}
