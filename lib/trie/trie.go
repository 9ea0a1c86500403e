package trie

// TailStartBlockNo offsets absolute tail indices (as stored in base[]) from
// raw TailPool block numbers, mirroring the source's two reserved DA slots
// that sit below the first tail block.
const TailStartBlockNo = 2

// Trie orchestrates double-array walks, tail insertion and splitting,
// relocation, and pruning behind the four point operations (Insert,
// Replace, Find, Delete) plus prefix enumeration.
type Trie struct {
	da        *DoubleArray
	tails     *TailPool
	alphabet  AlphabetMap
	entryOpts EntryOptions

	fingerprint int64
	resizeable  bool
}

// NewTrie returns a trie with no backing storage yet; base/check/tails are
// allocated lazily on the first mutating call.
func NewTrie(alphabet AlphabetMap, opts EntryOptions) *Trie {
	return &Trie{alphabet: alphabet, entryOpts: opts, resizeable: true}
}

// Used reports the number of live keys. It is a thin view over the tail
// pool's own in-use count, which is the single source of truth for key
// count (mirroring the source's single counter, rather than threading a
// second one through Trie that could drift out of sync).
func (t *Trie) Used() int {
	if t.tails == nil {
		return 0
	}
	return t.tails.Used()
}

// EnableResize and DisableResize toggle whether Resize acts; both default
// to enabled. This models the source's process-wide toggle as per-instance
// configuration instead of a package global.
func (t *Trie) EnableResize()  { t.resizeable = true }
func (t *Trie) DisableResize() { t.resizeable = false }

// Resize grows the double array to fit the current key count if resizing
// is enabled. The array never shrinks, so this is only useful after a
// bulk load that bypassed the normal insert path.
func (t *Trie) Resize() {
	if !t.resizeable || t.da == nil {
		return
	}
	minimal := t.Used()
	if minimal < PoolBegin {
		minimal = PoolBegin
	}
	t.da.expand(minimal)
}

func (t *Trie) tailGet(absIdx int) *TailEntry {
	if t.tails == nil {
		return nil
	}
	return t.tails.Get(absIdx - TailStartBlockNo)
}

func (t *Trie) tailWalk(absIdx int, suffixIdx *int, c byte) bool {
	return t.tails.WalkTail(absIdx-TailStartBlockNo, suffixIdx, c)
}

func (t *Trie) tailFree(absIdx int) {
	t.tails.Free(absIdx - TailStartBlockNo)
}

func (t *Trie) tailSetKey(absIdx int, key []byte) {
	t.tails.SetKey(absIdx-TailStartBlockNo, key)
}

func (t *Trie) tailSetVal(absIdx int, val interface{}) {
	t.tails.SetVal(absIdx-TailStartBlockNo, val)
}

func (t *Trie) tailSetSuffix(absIdx int, suffix []byte) {
	t.tails.SetSuffix(absIdx-TailStartBlockNo, suffix)
}

func (t *Trie) tailAlloc() (absIdx int, ok bool) {
	block := t.tails.Alloc()
	if block < 0 {
		return 0, false
	}
	return block + TailStartBlockNo, true
}

func (t *Trie) addTailSuffix(suffix []byte) (int, error) {
	absIdx, ok := t.tailAlloc()
	if !ok {
		return 0, ErrAllocation
	}
	t.tailSetSuffix(absIdx, suffix)
	return absIdx, nil
}

func (t *Trie) bumpFingerprint() {
	t.fingerprint++
}

// locate walks encoded (an alphabet-encoded key ending in Term) through
// the branches and then the tail at the point where branching stops. It
// reports the branch state reached, the absolute tail index examined
// there, the position in encoded where tail matching began, whether a
// full match was found, and whether the walk reached the tail phase at
// all (false means it failed while still inside the branches).
func (t *Trie) locate(encoded []byte) (state, tailIdx, sepIdx int, found, reachedTail bool) {
	s := PoolRoot
	i := 0
	for !t.da.branchEnd(s) {
		c := encoded[i]
		if !t.da.walk(&s, c) {
			return s, 0, i, false, false
		}
		if c == Term {
			break
		}
		i++
	}

	sep := i
	idx := t.da.tailIndex(s)
	suffixIdx := 0
	for j := sep; ; j++ {
		c := encoded[j]
		if !t.tailWalk(idx, &suffixIdx, c) {
			return s, idx, sep, false, true
		}
		if c == Term {
			break
		}
	}

	return s, idx, sep, true, true
}

// addKey walks key through the trie, inserting a branch or splitting a
// tail as needed, and returns the absolute tail index of the (possibly
// pre-existing) entry. existed reports whether the key was already
// present; callers decide insert-vs-replace semantics from that.
func (t *Trie) addKey(key []byte) (tailIdx int, existed bool, err error) {
	if t.da == nil {
		t.da = NewDoubleArray()
		t.tails = NewTailPool(t.entryOpts)
	}

	encoded, err := t.alphabet.Encode(key)
	if err != nil {
		return 0, false, err
	}

	s, idx, sep, found, reachedTail := t.locate(encoded)
	if found {
		return idx, true, nil
	}

	t.bumpFingerprint()
	if !reachedTail {
		idx, err = t.insertInBranch(s, encoded[sep:])
		return idx, false, err
	}
	idx, err = t.insertInTail(s, encoded[sep:])
	return idx, false, err
}

func (t *Trie) insertInBranch(sepNode int, remaining []byte) (int, error) {
	c := remaining[0]
	newDA, err := t.da.insertEdge(sepNode, c)
	if err != nil {
		return 0, err
	}

	suffix := remaining
	if c != Term {
		suffix = remaining[1:]
	}

	newTail, err := t.addTailSuffix(suffix)
	if err != nil {
		return 0, err
	}
	t.da.setTailIndex(newDA, newTail)
	return newTail, nil
}

// insertInTail splits the tail at sepNode: it threads DAT edges for the
// prefix shared between the old suffix and the new key's remaining
// suffix, then re-attaches the old (shortened) suffix and inserts a fresh
// branch carrying the new suffix at the point of divergence.
func (t *Trie) insertInTail(sepNode int, newSuffix []byte) (int, error) {
	oldTail := t.da.tailIndex(sepNode)
	oldEntry := t.tailGet(oldTail)
	if oldEntry == nil || oldEntry.Suffix == nil {
		return 0, ErrAllocation
	}
	oldSuffix := oldEntry.Suffix

	s := sepNode
	oi, ni := 0, 0
	for oi < len(oldSuffix) && ni < len(newSuffix) && oldSuffix[oi] == newSuffix[ni] {
		next, err := t.da.insertEdge(s, oldSuffix[oi])
		if err != nil {
			t.da.prune(sepNode, s)
			t.da.setTailIndex(sepNode, oldTail)
			return 0, err
		}
		s = next
		oi++
		ni++
	}

	oldChar := byte(Term)
	if oi < len(oldSuffix) {
		oldChar = oldSuffix[oi]
	}
	oldDA, err := t.da.insertEdge(s, oldChar)
	if err != nil {
		t.da.prune(sepNode, s)
		t.da.setTailIndex(sepNode, oldTail)
		return 0, err
	}
	if oldChar != Term {
		oi++
	}
	t.tailSetSuffix(oldTail, oldSuffix[oi:])
	t.da.setTailIndex(oldDA, oldTail)

	return t.insertInBranch(s, newSuffix[ni:])
}

// Set installs key/val, overwriting any existing entry for key, and
// reports whether an existing entry was overwritten.
func (t *Trie) Set(key []byte, val interface{}) (existed bool, err error) {
	tailIdx, existed, err := t.addKey(key)
	if err != nil {
		return false, err
	}
	t.tailSetKey(tailIdx, key)
	t.tailSetVal(tailIdx, val)
	return existed, nil
}

// Insert adds key/val only if key is not already present.
func (t *Trie) Insert(key []byte, val interface{}) error {
	tailIdx, existed, err := t.addKey(key)
	if err != nil {
		return err
	}
	if existed {
		return ErrDuplicate
	}
	t.tailSetKey(tailIdx, key)
	t.tailSetVal(tailIdx, val)
	return nil
}

// Find returns the tail entry for key, or ErrNotFound.
func (t *Trie) Find(key []byte) (*TailEntry, error) {
	if t.da == nil {
		return nil, ErrNotFound
	}
	encoded, err := t.alphabet.Encode(key)
	if err != nil {
		return nil, err
	}
	_, tailIdx, _, found, _ := t.locate(encoded)
	if !found {
		return nil, ErrNotFound
	}
	entry := t.tailGet(tailIdx)
	if entry == nil {
		return nil, ErrNotFound
	}
	return entry, nil
}

// Replace sets entry's value to val and then runs the old value's
// destructor, in that order, so that destroying the previous value never
// observes entry in a half-updated state (tolerates val aliasing the old
// value, e.g. reference-counted values).
func (t *Trie) Replace(entry *TailEntry, val interface{}) error {
	if entry == nil {
		return ErrNotFound
	}
	oldVal := entry.Val
	if t.entryOpts.ValDup != nil {
		entry.Val = t.entryOpts.ValDup(val)
	} else {
		entry.Val = val
	}
	if t.entryOpts.ValDestructor != nil {
		t.entryOpts.ValDestructor(oldVal)
	}
	return nil
}

// Delete removes key, pruning any DAT states left childless in its wake.
func (t *Trie) Delete(key []byte) error {
	if t.da == nil {
		return ErrNotFound
	}
	encoded, err := t.alphabet.Encode(key)
	if err != nil {
		return err
	}
	s, tailIdx, _, found, _ := t.locate(encoded)
	if !found {
		return ErrNotFound
	}

	t.tailFree(tailIdx)
	t.da.setBase(s, 0)
	t.da.prune(PoolRoot, s)
	t.bumpFingerprint()
	return nil
}

// Empty destroys every entry, invoking callback (if non-nil) every 65536
// slots for cooperative progress, then resets the trie to its freshly
// constructed state.
func (t *Trie) Empty(callback func()) {
	if t.tails != nil {
		i := 0
		t.tails.Range(func(block int, e *TailEntry) bool {
			if callback != nil && i&65535 == 0 {
				callback()
			}
			i++
			t.tails.Free(block)
			return true
		})
	}
	t.da = nil
	t.tails = nil
	t.bumpFingerprint()
}
