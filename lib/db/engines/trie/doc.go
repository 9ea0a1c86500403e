// Package trie implements db.KVDB on top of lib/trie's double-array trie,
// adding TTL semantics, prefix enumeration, persistence, and garbage
// collection around the engine's ordered, single-threaded core.
//
// trieImpl serializes every access behind a single sync.RWMutex: lib/trie's
// Trie is not safe for concurrent use on its own, so this is the boundary
// that turns it into a normal db.KVDB. This trades the sibling maple
// engine's per-shard concurrency for the trie's ordering and prefix-search
// capability, which sharding would destroy (an ordered key space can't be
// split across independently-hashed shards and still support enumeration).
//
// TTL metadata (ExpireAt, DeleteAt, Index) rides along inside each key's
// opaque trie value as an internal.Entry, the same shape maple uses for its
// own entries; Get, Has, and PrefixKeys all consult it the same way maple's
// equivalents consult their own Entry.
//
// Garbage collection here is a periodic full sweep via PrefixSearch("*")
// rather than maple's per-shard expiry/deletion heaps: with one writer and
// no sharding, there is no concurrent-heap-update problem to avoid, so the
// heap bookkeeping isn't worth its complexity. Persistence follows the same
// magic-number-plus-length-prefixed-entries shape as maple's Save/Load, with
// its own format identifier and version so the two engines' snapshot files
// are never mistaken for each other.
package trie
