package dispatch

import (
	"sync"
	"testing"
	"time"
)

func TestQueue_EmptyDrainIsNoop(t *testing.T) {
	q := NewQueue()
	if got := q.Drain(); got != nil {
		t.Fatalf("Drain on empty queue = %#v, want nil", got)
	}
	if q.Len() != 0 {
		t.Fatalf("Len = %d, want 0", q.Len())
	}
}

func TestQueue_PreservesFIFO(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 5; i++ {
		q.Post(Envelope{Scope: ScopeSearch, Epoch: uint64(i), Result: Error{Message: "m"}})
	}
	if q.Len() != 5 {
		t.Fatalf("Len = %d, want 5", q.Len())
	}
	got := q.Drain()
	for i, env := range got {
		if env.Epoch != uint64(i) {
			t.Fatalf("envelope %d has epoch %d, want FIFO order", i, env.Epoch)
		}
	}
	if q.Drain() != nil {
		t.Fatalf("second Drain should be empty")
	}
}

func TestQueue_ConcurrentWriters(t *testing.T) {
	q := NewQueue()
	const writers, perWriter = 16, 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				q.Post(Envelope{Scope: ScopeAchievements, Result: ImageReady{Target: IconTarget(w, "x")}})
			}
		}(w)
	}

	seen := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		seen += len(q.Drain())
		select {
		case <-done:
			seen += len(q.Drain())
			if seen != writers*perWriter {
				t.Fatalf("drained %d envelopes, want %d", seen, writers*perWriter)
			}
			return
		case <-ticker.C:
		}
	}
}

func TestQueue_RequeueGoesAheadOfNewPosts(t *testing.T) {
	q := NewQueue()
	q.Post(Envelope{Epoch: 1})
	q.Post(Envelope{Epoch: 2})
	batch := q.Drain()
	q.Post(Envelope{Epoch: 3})

	q.Requeue(batch[1:])
	q.Requeue(nil)

	got := q.Drain()
	if len(got) != 2 || got[0].Epoch != 2 || got[1].Epoch != 3 {
		t.Fatalf("Drain after Requeue = %v, want epochs [2 3]", got)
	}
	select {
	case <-q.Ready():
	default:
		t.Fatalf("Ready did not fire after Requeue")
	}
}

func TestQueue_ReadySignalsAfterPost(t *testing.T) {
	q := NewQueue()
	select {
	case <-q.Ready():
		t.Fatalf("Ready fired before any Post")
	default:
	}

	q.Post(Envelope{Result: Error{Message: "a"}})
	q.Post(Envelope{Result: Error{Message: "b"}})

	select {
	case <-q.Ready():
	case <-time.After(time.Second):
		t.Fatalf("Ready did not fire after Post")
	}
	if got := q.Drain(); len(got) != 2 {
		t.Fatalf("Drain returned %d envelopes, want 2", len(got))
	}
}

func TestTargetAndScopeStrings(t *testing.T) {
	if BoxArtTarget(440).String() != "boxart:440" {
		t.Fatalf("BoxArtTarget string = %q", BoxArtTarget(440).String())
	}
	if IconTarget(440, "WIN").String() != "icon:440:WIN" {
		t.Fatalf("IconTarget string = %q", IconTarget(440, "WIN").String())
	}
	if ScopeSearch.String() != "search" || ScopeAchievements.String() != "achievements" {
		t.Fatalf("scope strings = %q/%q", ScopeSearch, ScopeAchievements)
	}
	kinds := []Result{SearchResult{}, AchievementsResult{}, ImageReady{}, Error{}}
	want := []string{"search_result", "achievements_result", "image_ready", "error"}
	for i, r := range kinds {
		if r.Kind() != want[i] {
			t.Fatalf("Kind() = %q, want %q", r.Kind(), want[i])
		}
	}
}
