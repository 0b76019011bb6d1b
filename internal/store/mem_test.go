package store_test

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"testing"

	"github.com/sednafx/memwell/internal/store"
	"github.com/sednafx/memwell/pkg/turn"
)

func TestMemoryStore_AppendAndAll(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore(0)

	turns := []turn.Turn{
		turn.User("first"),
		turn.Assistant("second"),
		turn.User("third"),
	}
	for _, tn := range turns {
		if err := s.Append("conv", tn); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}

	got, err := s.All("conv")
	if err != nil {
		t.Fatalf("All returned error: %v", err)
	}
	if !reflect.DeepEqual(got, turns) {
		t.Errorf("All() = %+v, want %+v", got, turns)
	}
}

func TestMemoryStore_All_UntouchedConversation(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore(0)
	got, err := s.All("never-touched")
	if err != nil {
		t.Fatalf("All returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("All() on untouched conversation = %+v, want empty", got)
	}
}

func TestMemoryStore_MaxMessagesEviction(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore(3)
	for i := 1; i <= 5; i++ {
		if err := s.Append("conv", turn.User(fmt.Sprintf("msg %d", i))); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}

	got, err := s.All("conv")
	if err != nil {
		t.Fatalf("All returned error: %v", err)
	}
	want := []turn.Turn{
		turn.User("msg 3"),
		turn.User("msg 4"),
		turn.User("msg 5"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("All() after eviction = %+v, want %+v", got, want)
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore(0)
	if err := s.Append("conv", turn.User("hello")); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	// Clear twice in a row: idempotent, including on never-touched ids.
	for i := 0; i < 2; i++ {
		if err := s.Clear("conv"); err != nil {
			t.Fatalf("Clear #%d returned error: %v", i+1, err)
		}
	}
	if err := s.Clear("never-touched"); err != nil {
		t.Fatalf("Clear on untouched conversation returned error: %v", err)
	}

	n, err := s.Len("conv")
	if err != nil {
		t.Fatalf("Len returned error: %v", err)
	}
	if n != 0 {
		t.Errorf("Len after Clear = %d, want 0", n)
	}
}

func TestMemoryStore_Conversations(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore(0)
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Append(id, turn.User("x")); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}
	if err := s.Clear("b"); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}

	ids, err := s.Conversations()
	if err != nil {
		t.Fatalf("Conversations returned error: %v", err)
	}
	sort.Strings(ids)
	want := []string{"a", "c"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("Conversations() = %v, want %v", ids, want)
	}
}

func TestMemoryStore_ConcurrentIsolation(t *testing.T) {
	t.Parallel()

	const perConv = 50
	s := store.NewMemoryStore(0)

	var wg sync.WaitGroup
	for _, id := range []string{"conv-a", "conv-b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < perConv; i++ {
				if err := s.Append(id, turn.User(id)); err != nil {
					t.Errorf("Append(%s) returned error: %v", id, err)
					return
				}
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []string{"conv-a", "conv-b"} {
		turns, err := s.All(id)
		if err != nil {
			t.Fatalf("All returned error: %v", err)
		}
		if len(turns) != perConv {
			t.Errorf("conversation %s has %d turns, want %d", id, len(turns), perConv)
		}
		for _, tn := range turns {
			if tn.Text != id {
				t.Fatalf("conversation %s contains foreign turn %+v", id, tn)
			}
		}
	}
}

func TestMemoryStore_AllReturnsCopy(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore(0)
	if err := s.Append("conv", turn.User("original")); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	first, _ := s.All("conv")
	first[0].Text = "mutated"

	second, _ := s.All("conv")
	if second[0].Text != "original" {
		t.Error("mutating a returned slice leaked into the store")
	}
}
