// Package trie implements an ordered associative container backed by a
// double-array trie (DAT) with tail-pool suffix compression.
//
// The structure maps byte-string keys, drawn from a caller-supplied
// AlphabetMap of at most 255 symbols plus a terminator, to opaque values.
// It supports point Insert/Replace/Find/Delete and prefix enumeration via
// TrieIterator.
//
// Internally, a trie state is an index into two parallel integer arrays,
// base and check (DoubleArray). An edge labelled by symbol c out of state s
// lives at base[s]+c, and is confirmed by check[base[s]+c] == s. Any path
// through the trie that currently has no branching is not stored edge by
// edge; instead its remaining suffix is pulled into a side table (TailPool)
// and the DA state holds a negative base pointing at the tail slot.
//
// The engine is not safe for concurrent use: it is designed to run inside a
// single-threaded event loop, such as a RAFT apply loop or a local command
// dispatcher, one goroutine at a time. Callers that need concurrent access
// must serialize at a higher layer.
package trie
