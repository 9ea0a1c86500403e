package trie

import (
	"errors"
	"fmt"
	"testing"
)

func newASCIITrie() *Trie {
	return NewTrie(NewASCIIAlphabet(), EntryOptions{})
}

func mustFind(t *testing.T, tr *Trie, key string) *TailEntry {
	t.Helper()
	entry, err := tr.Find([]byte(key))
	if err != nil {
		t.Fatalf("Find(%q) error = %v", key, err)
	}
	return entry
}

func TestInsertFindThreeKeys(t *testing.T) {
	tr := newASCIITrie()
	keys := map[string]int{"pool": 1, "prize": 2, "preview": 3}
	for k, v := range keys {
		if err := tr.Insert([]byte(k), v); err != nil {
			t.Fatalf("Insert(%q) error = %v", k, err)
		}
	}
	if tr.Used() != 3 {
		t.Fatalf("Used() = %d, want 3", tr.Used())
	}
	for k, v := range keys {
		entry := mustFind(t, tr, k)
		if entry.Val != v {
			t.Errorf("Find(%q).Val = %v, want %v", k, entry.Val, v)
		}
	}
}

func TestInsertDuplicateFails(t *testing.T) {
	tr := newASCIITrie()
	if err := tr.Insert([]byte("a"), 1); err != nil {
		t.Fatalf("first Insert error = %v", err)
	}
	err := tr.Insert([]byte("a"), 2)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second Insert(\"a\") error = %v, want ErrDuplicate", err)
	}
	entry := mustFind(t, tr, "a")
	if entry.Val != 1 {
		t.Errorf("Find(\"a\").Val = %v after rejected duplicate insert, want 1 (unchanged)", entry.Val)
	}
}

func TestSetOverwritesExistingValue(t *testing.T) {
	tr := newASCIITrie()
	existed, err := tr.Set([]byte("a"), 1)
	if err != nil || existed {
		t.Fatalf("first Set: existed=%v err=%v, want false, nil", existed, err)
	}
	existed, err = tr.Set([]byte("a"), 2)
	if err != nil || !existed {
		t.Fatalf("second Set: existed=%v err=%v, want true, nil", existed, err)
	}
	if entry := mustFind(t, tr, "a"); entry.Val != 2 {
		t.Errorf("Find(\"a\").Val = %v, want 2", entry.Val)
	}
}

func TestSingleKeyLifecycle(t *testing.T) {
	tr := newASCIITrie()
	if err := tr.Insert([]byte("a"), "v"); err != nil {
		t.Fatalf("Insert error = %v", err)
	}
	if tr.Used() != 1 {
		t.Fatalf("Used() = %d, want 1", tr.Used())
	}

	if err := tr.Delete([]byte("a")); err != nil {
		t.Fatalf("Delete error = %v", err)
	}
	if tr.Used() != 0 {
		t.Fatalf("Used() = %d after Delete, want 0", tr.Used())
	}
	if _, err := tr.Find([]byte("a")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Find after Delete error = %v, want ErrNotFound", err)
	}

	// Root should be left with no children: re-inserting must not collide
	// with leftover structure from the deleted key.
	if err := tr.Insert([]byte("b"), "w"); err != nil {
		t.Fatalf("Insert after Delete error = %v", err)
	}
}

func TestDeleteNotFound(t *testing.T) {
	tr := newASCIITrie()
	if err := tr.Delete([]byte("missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete(missing key) error = %v, want ErrNotFound", err)
	}
}

func TestFindOnEmptyTrie(t *testing.T) {
	tr := newASCIITrie()
	if _, err := tr.Find([]byte("anything")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Find on empty trie error = %v, want ErrNotFound", err)
	}
}

func TestTailSplitDivergingSuffixes(t *testing.T) {
	tr := newASCIITrie()
	if err := tr.Insert([]byte("abcdef"), "first"); err != nil {
		t.Fatalf("Insert(abcdef) error = %v", err)
	}
	if err := tr.Insert([]byte("abcxyz"), "second"); err != nil {
		t.Fatalf("Insert(abcxyz) error = %v", err)
	}

	if entry := mustFind(t, tr, "abcdef"); entry.Val != "first" {
		t.Errorf("Find(abcdef).Val = %v, want first", entry.Val)
	}
	if entry := mustFind(t, tr, "abcxyz"); entry.Val != "second" {
		t.Errorf("Find(abcxyz).Val = %v, want second", entry.Val)
	}
	if _, err := tr.Find([]byte("abc")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find(abc) error = %v, want ErrNotFound (no such key was inserted)", err)
	}
	if tr.Used() != 2 {
		t.Fatalf("Used() = %d, want 2", tr.Used())
	}
}

func TestReplaceRunsDestructorAfterAssigningNewValue(t *testing.T) {
	var destroyedDuringReplace bool
	tr := NewTrie(NewASCIIAlphabet(), EntryOptions{
		ValDestructor: func(interface{}) { destroyedDuringReplace = true },
	})
	if err := tr.Insert([]byte("a"), "old"); err != nil {
		t.Fatalf("Insert error = %v", err)
	}
	entry := mustFind(t, tr, "a")
	if err := tr.Replace(entry, "new"); err != nil {
		t.Fatalf("Replace error = %v", err)
	}
	if entry.Val != "new" {
		t.Fatalf("entry.Val after Replace = %v, want new", entry.Val)
	}
	if !destroyedDuringReplace {
		t.Error("ValDestructor was never invoked by Replace")
	}
}

func TestThousandKeysInsertAndReplace(t *testing.T) {
	var destroyedCount int
	tr := NewTrie(NewASCIIAlphabet(), EntryOptions{
		ValDestructor: func(interface{}) { destroyedCount++ },
	})

	const n = 1000
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%04d", i)
		if err := tr.Insert([]byte(key), i); err != nil {
			t.Fatalf("Insert(%q) error = %v", key, err)
		}
	}
	if tr.Used() != n {
		t.Fatalf("Used() = %d, want %d", tr.Used(), n)
	}

	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%04d", i)
		entry := mustFind(t, tr, key)
		if entry.Val != i {
			t.Fatalf("Find(%q).Val = %v, want %d", key, entry.Val, i)
		}
		if err := tr.Replace(entry, i*2); err != nil {
			t.Fatalf("Replace(%q) error = %v", key, err)
		}
	}
	if destroyedCount != n {
		t.Fatalf("ValDestructor invoked %d times across all replaces, want %d (once per key)", destroyedCount, n)
	}

	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%04d", i)
		entry := mustFind(t, tr, key)
		if entry.Val != i*2 {
			t.Fatalf("Find(%q).Val = %v after Replace, want %d", key, entry.Val, i*2)
		}
	}
}

func TestGrowthAcrossPowerOfTwoBoundaries(t *testing.T) {
	tr := newASCIITrie()
	// 4, 8, 16, 32, ... boundaries for the tail pool; insert enough keys to
	// cross several of them and confirm every key remains reachable.
	const n = 40
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("k%02d", i)
		if err := tr.Insert([]byte(key), i); err != nil {
			t.Fatalf("Insert(%q) error = %v", key, err)
		}
	}
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("k%02d", i)
		entry := mustFind(t, tr, key)
		if entry.Val != i {
			t.Errorf("Find(%q).Val = %v, want %d", key, entry.Val, i)
		}
	}
}

func TestEmptyDestroysEveryEntry(t *testing.T) {
	var destroyed [][]byte
	tr := NewTrie(NewASCIIAlphabet(), EntryOptions{
		KeyDestructor: func(key []byte) { destroyed = append(destroyed, key) },
	})
	keys := []string{"a", "ab", "abc", "b"}
	for _, k := range keys {
		if err := tr.Insert([]byte(k), nil); err != nil {
			t.Fatalf("Insert(%q) error = %v", k, err)
		}
	}

	var callbackCalls int
	tr.Empty(func() { callbackCalls++ })

	if len(destroyed) != len(keys) {
		t.Fatalf("KeyDestructor invoked %d times, want %d", len(destroyed), len(keys))
	}
	if tr.Used() != 0 {
		t.Fatalf("Used() = %d after Empty, want 0", tr.Used())
	}

	// The trie should be fully usable again after Empty.
	if err := tr.Insert([]byte("fresh"), 1); err != nil {
		t.Fatalf("Insert after Empty error = %v", err)
	}
}
