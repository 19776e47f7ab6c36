package session

import (
	"sync"
	"testing"
	"time"
)

func TestStateDerivedFromSlots(t *testing.T) {
	s := &Session{UserID: 1}
	if got := s.State(); got != AwaitingContent {
		t.Fatalf("empty session state = %v, want AwaitingContent", got)
	}

	s.Content = []byte("content")
	if got := s.State(); got != AwaitingStyle {
		t.Fatalf("content-only state = %v, want AwaitingStyle", got)
	}

	s.Style = []byte("style")
	if got := s.State(); got != AwaitingStyle {
		t.Fatalf("both-slots state = %v, want AwaitingStyle", got)
	}

	s.Reset()
	if s.Content != nil || s.Style != nil {
		t.Fatalf("reset left slots populated")
	}
	if got := s.State(); got != AwaitingContent {
		t.Fatalf("state after reset = %v, want AwaitingContent", got)
	}
}

func TestDoCreatesAndReuses(t *testing.T) {
	st := NewStore()

	st.Do(7, 100, func(s *Session) {
		s.Content = []byte("c")
	})
	if st.Len() != 1 {
		t.Fatalf("Len = %d, want 1", st.Len())
	}

	st.Do(7, 200, func(s *Session) {
		if s.Content == nil {
			t.Fatalf("session content lost between calls")
		}
		if s.ChatID != 200 {
			t.Fatalf("ChatID = %d, want refreshed to 200", s.ChatID)
		}
	})
	if st.Len() != 1 {
		t.Fatalf("Len = %d after reuse, want 1", st.Len())
	}
}

func TestRemove(t *testing.T) {
	st := NewStore()
	if st.Remove(5) {
		t.Fatalf("Remove on missing session reported true")
	}

	st.Do(5, 1, func(s *Session) {})
	if !st.Remove(5) {
		t.Fatalf("Remove on live session reported false")
	}
	if st.Len() != 0 {
		t.Fatalf("Len = %d after remove, want 0", st.Len())
	}

	// A fresh session after removal starts empty.
	st.Do(5, 1, func(s *Session) {
		if s.State() != AwaitingContent {
			t.Fatalf("recreated session state = %v, want AwaitingContent", s.State())
		}
	})
}

func TestDoSerializesPerUser(t *testing.T) {
	st := NewStore()

	entered := make(chan struct{})
	release := make(chan struct{})
	second := make(chan struct{})

	go st.Do(1, 1, func(s *Session) {
		close(entered)
		<-release
		s.Content = []byte("first")
	})

	<-entered
	go func() {
		st.Do(1, 1, func(s *Session) {
			if s.Content == nil {
				t.Errorf("second callback ran before first finished")
			}
		})
		close(second)
	}()

	select {
	case <-second:
		t.Fatalf("second Do completed while first held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatalf("second Do never ran after release")
	}
}

func TestUsersAreIndependent(t *testing.T) {
	st := NewStore()

	blocked := make(chan struct{})
	release := make(chan struct{})
	go st.Do(1, 1, func(s *Session) {
		close(blocked)
		<-release
	})
	<-blocked

	done := make(chan struct{})
	go st.Do(2, 2, func(s *Session) {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("user 2 blocked behind user 1")
	}
	close(release)
}

func TestConcurrentDistinctUsers(t *testing.T) {
	st := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			st.Do(id, id, func(s *Session) {
				s.Content = []byte{byte(id)}
			})
		}(int64(i))
	}
	wg.Wait()

	if st.Len() != 50 {
		t.Fatalf("Len = %d, want 50", st.Len())
	}
}
