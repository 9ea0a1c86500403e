package trie

import "errors"

// Sentinel errors surfaced by the engine. Every fallible operation returns
// either a value and nil, or a zero value and one of these sentinels, so
// callers can branch with errors.Is.
var (
	// ErrNotFound is returned by Find/Delete when the key does not exist.
	ErrNotFound = errors.New("trie: key not found")

	// ErrAllocation is returned when growing base/check or the tail pool
	// would exceed TrieIndexMax, or when the allocator otherwise cannot
	// satisfy a request. Structure is left consistent: prune reclaims any
	// dangling states from a partial insert.
	ErrAllocation = errors.New("trie: allocation failure")

	// ErrCharOutOfRange is surfaced when an AlphabetMap encoder reports
	// ALPHA_CHAR_ERROR for an input byte.
	ErrCharOutOfRange = errors.New("trie: character out of alphabet range")

	// ErrIteratorStale is returned by TrieIterator.Next when the trie was
	// mutated after the iterator was constructed.
	ErrIteratorStale = errors.New("trie: iterator invalidated by mutation")

	// ErrDuplicate is returned by Insert when the key already exists. The
	// lower-level add path never rejects duplicates on its own; Insert
	// layers this check on top for callers that want insert-only semantics.
	ErrDuplicate = errors.New("trie: key already exists")
)
