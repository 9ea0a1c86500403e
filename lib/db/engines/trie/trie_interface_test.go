package trie

import (
	"sort"
	"testing"
	"time"

	"github.com/ValentinKolb/datrie/lib/db"
	dbtesting "github.com/ValentinKolb/datrie/lib/db/testing"
	libtrie "github.com/ValentinKolb/datrie/lib/trie"
)

func newTestDB() db.KVDB {
	opts := DefaultOptions()
	opts.Alphabet = libtrie.NewByteAlphabet()
	return NewTrieDB(opts)
}

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "TrieDB", newTestDB)
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "TrieDB", newTestDB)
}

func TestPrefixKeysEnumeratesInOrder(t *testing.T) {
	database := newTestDB()
	defer database.Close()

	enumerator, ok := database.(db.PrefixEnumerator)
	if !ok {
		t.Fatal("TrieDB must implement db.PrefixEnumerator")
	}

	keys := []string{"pool", "prize", "preview", "cat"}
	for _, k := range keys {
		database.Set(k, []byte(k), 0)
	}

	got, err := enumerator.PrefixKeys("pr*")
	if err != nil {
		t.Fatalf("PrefixKeys returned error: %v", err)
	}

	want := []string{"preview", "prize"}
	if len(got) != len(want) {
		t.Fatalf("PrefixKeys(\"pr*\") = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PrefixKeys(\"pr*\")[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestPrefixKeysStarEnumeratesEverything(t *testing.T) {
	database := newTestDB()
	defer database.Close()

	enumerator := database.(db.PrefixEnumerator)

	keys := []string{"a", "b", "c"}
	for _, k := range keys {
		database.Set(k, []byte(k), 0)
	}

	got, err := enumerator.PrefixKeys("*")
	if err != nil {
		t.Fatalf("PrefixKeys returned error: %v", err)
	}
	sort.Strings(got)
	sort.Strings(keys)
	if len(got) != len(keys) {
		t.Fatalf("PrefixKeys(\"*\") returned %d keys, want %d", len(got), len(keys))
	}
	for i := range keys {
		if got[i] != keys[i] {
			t.Errorf("PrefixKeys(\"*\")[%d] = %s, want %s", i, got[i], keys[i])
		}
	}
}

func TestPrefixKeysExcludesDeletedKeepsExpired(t *testing.T) {
	database := newTestDB()
	defer database.Close()

	enumerator := database.(db.PrefixEnumerator)

	database.Set("keep", []byte("v"), 0)
	database.SetE("gone-expired", []byte("v"), 0, 5, 0)
	database.Set("gone-deleted", []byte("v"), 0)
	database.Delete("gone-deleted", 1)

	database.SetWriteIdx(10)

	got, err := enumerator.PrefixKeys("*")
	if err != nil {
		t.Fatalf("PrefixKeys returned error: %v", err)
	}

	for _, k := range got {
		if k == "gone-deleted" {
			t.Errorf("PrefixKeys returned deleted key %q", k)
		}
	}
	found := false
	for _, k := range got {
		if k == "keep" {
			found = true
		}
	}
	if !found {
		t.Error("PrefixKeys did not return live key \"keep\"")
	}
	foundExpired := false
	for _, k := range got {
		if k == "gone-expired" {
			foundExpired = true
		}
	}
	if !foundExpired {
		t.Error("PrefixKeys should still enumerate expired-but-not-deleted keys, matching Has's retention contract")
	}
}

func TestPrefixKeysUnknownPrefixReturnsEmpty(t *testing.T) {
	database := newTestDB()
	defer database.Close()

	enumerator := database.(db.PrefixEnumerator)

	database.Set("hello", []byte("v"), 0)

	got, err := enumerator.PrefixKeys("zzz*")
	if err != nil {
		t.Fatalf("PrefixKeys returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("PrefixKeys(\"zzz*\") = %v, want empty", got)
	}
}

func TestGCReclaimsDeletedEntries(t *testing.T) {
	opts := DefaultOptions()
	opts.Alphabet = libtrie.NewByteAlphabet()
	opts.GCInterval = time.Hour // keep the background sweeper from racing the explicit sweep() call below
	database := NewTrieDB(opts).(*trieImpl)
	defer database.Close()

	database.SetE("a", []byte("v"), 0, 0, 5)
	database.SetWriteIdx(10)

	database.sweep()

	info := database.GetInfo()
	meta := info.Metadata.(*struct {
		CurrentWriteIndex uint64           `json:"current_write_index"`
		LiveEntries       int              `json:"live_entries"`
		ExpiredBacklog    float64          `json:"expired_backlog"`
		Counters          map[string]int64 `json:"counters"`
		Info              string           `json:"info"`
	})
	if meta.Counters["gc_reclaimed"] != 1 {
		t.Errorf("gc_reclaimed = %d, want 1", meta.Counters["gc_reclaimed"])
	}
}
