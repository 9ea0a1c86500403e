package trie

import "testing"

func TestIntStackPushPop(t *testing.T) {
	s := NewIntStack()
	if !s.Empty() {
		t.Fatal("new stack should be empty")
	}
	s.Push(1)
	s.Push(2)
	s.Push(3)
	if s.Empty() {
		t.Fatal("stack should not be empty after pushes")
	}

	want := []int{3, 2, 1}
	for _, w := range want {
		v, ok := s.Pop()
		if !ok {
			t.Fatalf("Pop() returned ok=false, want value %d", w)
		}
		if v != w {
			t.Errorf("Pop() = %d, want %d", v, w)
		}
	}
	if !s.Empty() {
		t.Fatal("stack should be empty after popping everything")
	}
}

func TestIntStackPopEmpty(t *testing.T) {
	s := NewIntStack()
	if _, ok := s.Pop(); ok {
		t.Fatal("Pop() on empty stack should report ok=false")
	}
}
