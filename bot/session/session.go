// Package session keeps per-user style transfer sessions in memory.
//
// A session holds at most two images, the content slot and the style
// slot. The conversational state is derived from slot occupancy rather
// than stored, so the two can never disagree.
package session

import "sync"

// State describes which image the user is expected to send next.
type State int

const (
	// AwaitingContent means the content slot is empty.
	AwaitingContent State = iota
	// AwaitingStyle means the content slot is filled and the style
	// slot is empty.
	AwaitingStyle
)

func (s State) String() string {
	switch s {
	case AwaitingContent:
		return "awaiting_content"
	case AwaitingStyle:
		return "awaiting_style"
	default:
		return "unknown"
	}
}

// Session is the per-user conversation record. Access it only from
// inside Store.Do, which serializes all work for a given user.
type Session struct {
	UserID int64
	ChatID int64

	Content []byte
	Style   []byte
}

// State derives the conversational state from slot occupancy.
func (s *Session) State() State {
	if s.Content == nil {
		return AwaitingContent
	}
	return AwaitingStyle
}

// Reset clears both image slots, returning the session to its initial
// state without discarding the record itself.
func (s *Session) Reset() {
	s.Content = nil
	s.Style = nil
}

// Store maps user IDs to sessions and serializes per-user access.
//
// Each user gets a dedicated lock that is held for the whole duration
// of Do, including any slow work the callback performs. Events for one
// user therefore never interleave, while different users proceed in
// parallel. Locks are never removed once created so a goroutine parked
// on a user's lock can never observe it vanish. The locks map therefore
// grows by one mutex per distinct user id ever seen and stays for the
// process lifetime; at a few dozen bytes per entry that bound is small
// enough to forgo eviction.
type Store struct {
	mu       sync.Mutex
	locks    map[int64]*sync.Mutex
	sessions map[int64]*Session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{
		locks:    make(map[int64]*sync.Mutex),
		sessions: make(map[int64]*Session),
	}
}

func (st *Store) lockFor(userID int64) *sync.Mutex {
	st.mu.Lock()
	defer st.mu.Unlock()
	l, ok := st.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		st.locks[userID] = l
	}
	return l
}

// Do runs fn with exclusive access to the user's session, creating the
// session on first use. chatID is refreshed on every call so replies
// always target the chat the latest event arrived from.
func (st *Store) Do(userID, chatID int64, fn func(s *Session)) {
	l := st.lockFor(userID)
	l.Lock()
	defer l.Unlock()

	st.mu.Lock()
	s, ok := st.sessions[userID]
	if !ok {
		s = &Session{UserID: userID}
		st.sessions[userID] = s
	}
	s.ChatID = chatID
	st.mu.Unlock()

	fn(s)
}

// Remove deletes the user's session entirely. It reports whether a
// session existed. The per-user lock stays behind so concurrent Do
// calls remain serialized across the removal.
func (st *Store) Remove(userID int64) bool {
	l := st.lockFor(userID)
	l.Lock()
	defer l.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[userID]
	if ok {
		delete(st.sessions, userID)
	}
	return ok
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
