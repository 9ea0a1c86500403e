package trie

import "bytes"

// TrieIterator enumerates the entries under a prefix match in ascending
// byte-lexicographic order of the encoded key. The set of entries is
// snapshotted (as absolute tail indices) at construction time rather than
// by retaining raw pointers into base[], so a later insert that relocates
// a subtree cannot corrupt iteration; a mutation instead trips the
// fingerprint check in Next.
type TrieIterator struct {
	t           *Trie
	indices     []int
	pos         int
	fingerprint int64
}

// newIteratorFrom runs an explicit depth-first walk rooted at state,
// pushing children in reverse symbol order so popping them visits each
// level in ascending label order, and records a tail index at every leaf.
func (t *Trie) newIteratorFrom(state int) *TrieIterator {
	iter := &TrieIterator{t: t, fingerprint: t.fingerprint}
	if t.da == nil {
		return iter
	}

	stack := NewIntStack()
	stack.Push(state)
	for !stack.Empty() {
		s, _ := stack.Pop()
		base := t.da.getBase(s)
		if base < 0 {
			iter.indices = append(iter.indices, -base)
			continue
		}
		symbols := t.da.fillSymbols(s)
		for i := symbols.Num() - 1; i >= 0; i-- {
			stack.Push(base + int(symbols.Get(i)))
		}
	}
	return iter
}

func (t *Trie) emptyIterator() *TrieIterator {
	return &TrieIterator{t: t, fingerprint: t.fingerprint}
}

// PrefixSearch walks pattern's literal portion (everything before the
// first '*', or the whole pattern if there is none) through the trie, and
// returns an iterator over every entry reached once that literal prefix
// is exhausted. A pattern of "*" alone enumerates the whole trie; a
// pattern with no matching path returns an iterator with no entries.
func (t *Trie) PrefixSearch(pattern []byte) (*TrieIterator, error) {
	if t.da == nil {
		return t.emptyIterator(), nil
	}

	literal := pattern
	if starIdx := bytes.IndexByte(pattern, '*'); starIdx >= 0 {
		literal = pattern[:starIdx]
	}

	full, err := t.alphabet.Encode(literal)
	if err != nil {
		return nil, err
	}
	encoded := full[:len(full)-1] // the literal prefix, without the forced terminator

	s := PoolRoot
	i := 0
	for i < len(encoded) && !t.da.branchEnd(s) {
		if !t.da.walk(&s, encoded[i]) {
			return t.emptyIterator(), nil
		}
		i++
	}
	if i == len(encoded) {
		return t.newIteratorFrom(s), nil
	}

	tailIdx := t.da.tailIndex(s)
	suffixIdx := 0
	for ; i < len(encoded); i++ {
		if !t.tailWalk(tailIdx, &suffixIdx, encoded[i]) {
			return t.emptyIterator(), nil
		}
	}
	return t.newIteratorFrom(s), nil
}

// Next returns the next entry in iteration order, or nil when exhausted.
// It returns ErrIteratorStale if the trie was mutated since the iterator
// was constructed.
func (it *TrieIterator) Next() (*TailEntry, error) {
	if it.t.fingerprint != it.fingerprint {
		return nil, ErrIteratorStale
	}
	if it.pos >= len(it.indices) {
		return nil, nil
	}
	idx := it.indices[it.pos]
	it.pos++
	return it.t.tailGet(idx), nil
}

// Len returns the total number of entries this iterator will yield,
// regardless of how many Next has already returned.
func (it *TrieIterator) Len() int {
	return len(it.indices)
}
