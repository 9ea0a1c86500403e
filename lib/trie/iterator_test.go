package trie

import (
	"errors"
	"testing"
)

func drain(t *testing.T, it *TrieIterator) []string {
	t.Helper()
	var got []string
	for {
		entry, err := it.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if entry == nil {
			break
		}
		got = append(got, string(entry.Key))
	}
	return got
}

func TestPrefixSearchWildcardEnumeratesEverything(t *testing.T) {
	tr := newASCIITrie()
	keys := []string{"pool", "prize", "preview"}
	for _, k := range keys {
		if err := tr.Insert([]byte(k), nil); err != nil {
			t.Fatalf("Insert(%q) error = %v", k, err)
		}
	}

	it, err := tr.PrefixSearch([]byte("*"))
	if err != nil {
		t.Fatalf("PrefixSearch(\"*\") error = %v", err)
	}
	if it.Len() != len(keys) {
		t.Fatalf("Len() = %d, want %d", it.Len(), len(keys))
	}

	got := drain(t, it)
	if len(got) != len(keys) {
		t.Fatalf("drained %d entries, want %d", len(got), len(keys))
	}
	// Ascending lexicographic order of the encoded (here: ASCII-identity) key.
	want := []string{"pool", "preview", "prize"}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("got[%d] = %q, want %q", i, got[i], w)
		}
	}
}

func TestPrefixSearchLiteralPrefix(t *testing.T) {
	tr := newASCIITrie()
	for _, k := range []string{"pool", "prize", "preview", "cat"} {
		tr.Insert([]byte(k), nil)
	}

	it, err := tr.PrefixSearch([]byte("pr*"))
	if err != nil {
		t.Fatalf("PrefixSearch(\"pr*\") error = %v", err)
	}
	got := drain(t, it)
	want := []string{"preview", "prize"}
	if len(got) != len(want) {
		t.Fatalf("drained %v, want %v", got, want)
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("got[%d] = %q, want %q", i, got[i], w)
		}
	}
}

func TestPrefixSearchExactLiteralNoWildcard(t *testing.T) {
	tr := newASCIITrie()
	for _, k := range []string{"pool", "pools"} {
		tr.Insert([]byte(k), nil)
	}

	it, err := tr.PrefixSearch([]byte("pool"))
	if err != nil {
		t.Fatalf("PrefixSearch(\"pool\") error = %v", err)
	}
	got := drain(t, it)
	want := []string{"pool", "pools"}
	if len(got) != len(want) {
		t.Fatalf("drained %v, want %v", got, want)
	}
}

func TestPrefixSearchNoMatch(t *testing.T) {
	tr := newASCIITrie()
	tr.Insert([]byte("pool"), nil)

	it, err := tr.PrefixSearch([]byte("zzz*"))
	if err != nil {
		t.Fatalf("PrefixSearch error = %v", err)
	}
	if it.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 for a non-matching prefix", it.Len())
	}
	entry, err := it.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if entry != nil {
		t.Fatalf("Next() = %v, want nil for an empty iterator", entry)
	}
}

func TestPrefixSearchOnEmptyTrie(t *testing.T) {
	tr := newASCIITrie()
	it, err := tr.PrefixSearch([]byte("*"))
	if err != nil {
		t.Fatalf("PrefixSearch error = %v", err)
	}
	if it.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 for an empty trie", it.Len())
	}
}

func TestIteratorStaleAfterMutation(t *testing.T) {
	tr := newASCIITrie()
	tr.Insert([]byte("pool"), nil)
	tr.Insert([]byte("prize"), nil)

	it, err := tr.PrefixSearch([]byte("*"))
	if err != nil {
		t.Fatalf("PrefixSearch error = %v", err)
	}

	if err := tr.Insert([]byte("preview"), nil); err != nil {
		t.Fatalf("Insert error = %v", err)
	}

	if _, err := it.Next(); !errors.Is(err, ErrIteratorStale) {
		t.Fatalf("Next() after mutation error = %v, want ErrIteratorStale", err)
	}
}

func TestIteratorNotStaleWithoutMutation(t *testing.T) {
	tr := newASCIITrie()
	tr.Insert([]byte("a"), nil)

	it, err := tr.PrefixSearch([]byte("*"))
	if err != nil {
		t.Fatalf("PrefixSearch error = %v", err)
	}
	if _, err := it.Next(); err != nil {
		t.Fatalf("Next() error = %v, want nil", err)
	}
}
