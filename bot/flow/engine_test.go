package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/artfuse/stylebot/bot/session"
	"github.com/artfuse/stylebot/bot/styler"

	tele "gopkg.in/telebot.v4"
)

type sentItem struct {
	kind   string
	chatID int64
	text   string
}

type fakeResponder struct {
	mu    sync.Mutex
	items []sentItem
}

func (f *fakeResponder) add(kind string, chatID int64, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, sentItem{kind, chatID, text})
}

func (f *fakeResponder) Text(ctx context.Context, chatID int64, text string) {
	f.add("text", chatID, text)
}
func (f *fakeResponder) Markdown(ctx context.Context, chatID int64, text string) {
	f.add("md", chatID, text)
}
func (f *fakeResponder) HTML(ctx context.Context, chatID int64, text string) {
	f.add("html", chatID, text)
}
func (f *fakeResponder) Photo(ctx context.Context, chatID int64, image []byte) {
	f.add("photo", chatID, string(image))
}

func (f *fakeResponder) sent() []sentItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentItem, len(f.items))
	copy(out, f.items)
	return out
}

type fakeFetcher struct {
	err error
}

func (f *fakeFetcher) Fetch(ctx context.Context, photo *tele.Photo) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte(photo.FileID), nil
}

type synthFunc func(ctx context.Context, content, style []byte) ([]byte, error)

func (fn synthFunc) Synthesize(ctx context.Context, content, style []byte) ([]byte, error) {
	return fn(ctx, content, style)
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (r *fakeRecorder) Record(ctx context.Context, o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func photoEvent(userID, chatID int64, fileID string) Event {
	return Event{
		Kind:   KindPhoto,
		UserID: userID,
		ChatID: chatID,
		Photo:  &tele.Photo{File: tele.File{FileID: fileID}},
	}
}

func commandEvent(userID, chatID int64, cmd string) Event {
	return Event{Kind: KindCommand, UserID: userID, ChatID: chatID, Command: cmd}
}

func newTestEngine(syn synthFunc, rec Recorder) (*Engine, *fakeResponder, *session.Store) {
	st := session.NewStore()
	out := &fakeResponder{}
	if syn == nil {
		syn = func(ctx context.Context, content, style []byte) ([]byte, error) {
			return []byte(fmt.Sprintf("styled(%s+%s)", content, style)), nil
		}
	}
	return NewEngine(st, &fakeFetcher{}, syn, out, rec), out, st
}

func TestStartGreetsByUsername(t *testing.T) {
	e, out, st := newTestEngine(nil, nil)

	ev := commandEvent(1, 10, "start")
	ev.Username = "alice"
	e.Handle(context.Background(), ev)

	sent := out.sent()
	if len(sent) != 1 || sent[0].kind != "md" {
		t.Fatalf("sent = %+v, want one markdown message", sent)
	}
	if !strings.Contains(sent[0].text, "Hello alice!") {
		t.Fatalf("greeting = %q, want username", sent[0].text)
	}
	if st.Len() != 1 {
		t.Fatalf("Len = %d after /start, want 1", st.Len())
	}
}

func TestStartFallsBackWithoutUsername(t *testing.T) {
	e, out, _ := newTestEngine(nil, nil)

	e.Handle(context.Background(), commandEvent(1, 10, "start"))

	sent := out.sent()
	if len(sent) != 1 || !strings.Contains(sent[0].text, "Hello there!") {
		t.Fatalf("greeting = %+v, want fallback name", sent)
	}
}

func TestStartResetsPendingContent(t *testing.T) {
	e, out, st := newTestEngine(nil, nil)
	ctx := context.Background()

	e.Handle(ctx, photoEvent(1, 10, "content"))
	e.Handle(ctx, commandEvent(1, 10, "start"))

	// The next photo must land in the content slot again.
	e.Handle(ctx, photoEvent(1, 10, "content2"))
	sent := out.sent()
	last := sent[len(sent)-1]
	if last.text != msgGotContent {
		t.Fatalf("after /start, photo reply = %q, want content prompt", last.text)
	}
	if st.Len() != 1 {
		t.Fatalf("Len = %d, want 1", st.Len())
	}
}

func TestHelpAndAbout(t *testing.T) {
	e, out, _ := newTestEngine(nil, nil)
	ctx := context.Background()

	e.Handle(ctx, commandEvent(1, 10, "help"))
	e.Handle(ctx, commandEvent(1, 10, "about"))

	sent := out.sent()
	if len(sent) != 2 {
		t.Fatalf("sent = %+v, want 2 messages", sent)
	}
	if sent[0].kind != "md" || sent[0].text != msgHelp {
		t.Fatalf("help reply = %+v", sent[0])
	}
	if sent[1].kind != "html" || sent[1].text != msgAbout {
		t.Fatalf("about reply = %+v", sent[1])
	}
}

func TestCancel(t *testing.T) {
	e, out, st := newTestEngine(nil, nil)
	ctx := context.Background()

	e.Handle(ctx, commandEvent(1, 10, "cancel"))
	e.Handle(ctx, photoEvent(1, 10, "content"))
	e.Handle(ctx, commandEvent(1, 10, "cancel"))

	sent := out.sent()
	if sent[0].text != msgNothingCancel {
		t.Fatalf("cancel with no session = %q", sent[0].text)
	}
	if sent[2].text != msgCanceled {
		t.Fatalf("cancel with session = %q", sent[2].text)
	}
	if st.Len() != 0 {
		t.Fatalf("Len = %d after cancel, want 0", st.Len())
	}
}

func TestHappyPathOrdering(t *testing.T) {
	rec := &fakeRecorder{}
	e, out, _ := newTestEngine(nil, rec)
	ctx := context.Background()

	e.Handle(ctx, photoEvent(1, 10, "C"))
	e.Handle(ctx, photoEvent(1, 10, "S"))

	sent := out.sent()
	want := []sentItem{
		{"md", 10, msgGotContent},
		{"text", 10, msgProcessing},
		{"photo", 10, "styled(C+S)"},
		{"md", 10, msgDone},
	}
	if len(sent) != len(want) {
		t.Fatalf("sent %d messages, want %d: %+v", len(sent), len(want), sent)
	}
	for i := range want {
		if sent[i] != want[i] {
			t.Fatalf("message %d = %+v, want %+v", i, sent[i], want[i])
		}
	}

	if len(rec.outcomes) != 1 || rec.outcomes[0].Status != StatusOK {
		t.Fatalf("outcomes = %+v, want single ok", rec.outcomes)
	}

	// A third photo starts a fresh round as content.
	e.Handle(ctx, photoEvent(1, 10, "C2"))
	sent = out.sent()
	if sent[len(sent)-1].text != msgGotContent {
		t.Fatalf("post-synthesis photo reply = %q, want content prompt", sent[len(sent)-1].text)
	}
}

func TestDomainErrorReportedVerbatim(t *testing.T) {
	rec := &fakeRecorder{}
	syn := synthFunc(func(ctx context.Context, content, style []byte) ([]byte, error) {
		return nil, &styler.DomainError{Reason: "Could not decode content image."}
	})
	e, out, _ := newTestEngine(syn, rec)
	ctx := context.Background()

	e.Handle(ctx, photoEvent(1, 10, "C"))
	e.Handle(ctx, photoEvent(1, 10, "S"))

	sent := out.sent()
	last := sent[len(sent)-1]
	if last.kind != "text" || !strings.Contains(last.text, "Could not decode content image.") {
		t.Fatalf("domain error reply = %+v", last)
	}
	for _, item := range sent {
		if item.kind == "photo" {
			t.Fatalf("photo sent despite domain error")
		}
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0].Status != StatusDomainError {
		t.Fatalf("outcomes = %+v, want domain_error", rec.outcomes)
	}

	// The session was reset, so a new photo is content again.
	e.Handle(ctx, photoEvent(1, 10, "C2"))
	sent = out.sent()
	if sent[len(sent)-1].text != msgGotContent {
		t.Fatalf("post-failure photo reply = %q, want content prompt", sent[len(sent)-1].text)
	}
}

func TestUnexpectedSynthesisError(t *testing.T) {
	rec := &fakeRecorder{}
	syn := synthFunc(func(ctx context.Context, content, style []byte) ([]byte, error) {
		return nil, errors.New("connection refused")
	})
	e, out, _ := newTestEngine(syn, rec)
	ctx := context.Background()

	e.Handle(ctx, photoEvent(1, 10, "C"))
	e.Handle(ctx, photoEvent(1, 10, "S"))

	sent := out.sent()
	last := sent[len(sent)-1]
	if !strings.Contains(last.text, "Error processing image") {
		t.Fatalf("reply = %q, want processing error text", last.text)
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0].Status != StatusError {
		t.Fatalf("outcomes = %+v, want error", rec.outcomes)
	}
}

func TestFetchFailureResetsSession(t *testing.T) {
	st := session.NewStore()
	out := &fakeResponder{}
	e := NewEngine(st, &fakeFetcher{err: errors.New("file unavailable")}, synthFunc(func(ctx context.Context, content, style []byte) ([]byte, error) {
		t.Fatal("synthesizer called on fetch failure")
		return nil, nil
	}), out, nil)

	e.Handle(context.Background(), photoEvent(1, 10, "C"))

	sent := out.sent()
	if len(sent) != 1 || !strings.Contains(sent[0].text, "Error handling image") {
		t.Fatalf("fetch failure reply = %+v", sent)
	}
}

func TestBothSlotsFullTreatedAsNewContent(t *testing.T) {
	e, out, st := newTestEngine(nil, nil)
	ctx := context.Background()

	st.Do(1, 10, func(s *session.Session) {
		s.Content = []byte("old-c")
		s.Style = []byte("old-s")
	})

	e.Handle(ctx, photoEvent(1, 10, "new-c"))

	sent := out.sent()
	if len(sent) != 1 || sent[0].text != msgReplacedBoth {
		t.Fatalf("both-full reply = %+v", sent)
	}
	st.Do(1, 10, func(s *session.Session) {
		if string(s.Content) != "new-c" || s.Style != nil {
			t.Fatalf("slots = %q/%q, want new content and empty style", s.Content, s.Style)
		}
	})
}

func TestPhotoDuringSynthesisWaits(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	syn := synthFunc(func(ctx context.Context, content, style []byte) ([]byte, error) {
		close(started)
		<-release
		return []byte("styled"), nil
	})
	e, out, _ := newTestEngine(syn, nil)
	ctx := context.Background()

	e.Handle(ctx, photoEvent(1, 10, "C"))

	synthDone := make(chan struct{})
	go func() {
		e.Handle(ctx, photoEvent(1, 10, "S"))
		close(synthDone)
	}()
	<-started

	lateDone := make(chan struct{})
	go func() {
		e.Handle(ctx, photoEvent(1, 10, "C2"))
		close(lateDone)
	}()

	select {
	case <-lateDone:
		t.Fatalf("photo processed while synthesis held the session")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-synthDone
	<-lateDone

	sent := out.sent()
	// The late photo must come after the full synthesis exchange and
	// start a fresh round.
	if sent[len(sent)-1].text != msgGotContent {
		t.Fatalf("late photo reply = %q, want content prompt", sent[len(sent)-1].text)
	}
	if sent[len(sent)-2].text != msgDone {
		t.Fatalf("message before late reply = %q, want done text", sent[len(sent)-2].text)
	}
}

type slowFetcher struct {
	delay map[string]time.Duration
}

func (f *slowFetcher) Fetch(ctx context.Context, photo *tele.Photo) ([]byte, error) {
	if d := f.delay[photo.FileID]; d > 0 {
		time.Sleep(d)
	}
	return []byte(photo.FileID), nil
}

func TestPhotosProcessedInArrivalOrder(t *testing.T) {
	var mu sync.Mutex
	var pairs [][2]string
	syn := synthFunc(func(ctx context.Context, content, style []byte) ([]byte, error) {
		mu.Lock()
		pairs = append(pairs, [2]string{string(content), string(style)})
		mu.Unlock()
		return []byte("styled"), nil
	})

	st := session.NewStore()
	out := &fakeResponder{}
	// The first photo's file downloads much slower than the second's.
	fetch := &slowFetcher{delay: map[string]time.Duration{"C": 100 * time.Millisecond}}
	e := NewEngine(st, fetch, syn, out, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.Handle(ctx, photoEvent(1, 10, "C"))
	}()
	time.Sleep(20 * time.Millisecond)
	go func() {
		defer wg.Done()
		e.Handle(ctx, photoEvent(1, 10, "S"))
	}()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(pairs) != 1 {
		t.Fatalf("synthesis ran %d times, want 1: %v", len(pairs), pairs)
	}
	if pairs[0] != [2]string{"C", "S"} {
		t.Fatalf("synthesized (content=%s, style=%s), want slot roles to follow arrival order", pairs[0][0], pairs[0][1])
	}
}

func TestUsersDoNotShareSessions(t *testing.T) {
	e, out, _ := newTestEngine(nil, nil)
	ctx := context.Background()

	e.Handle(ctx, photoEvent(1, 10, "C"))
	e.Handle(ctx, photoEvent(2, 20, "X"))

	sent := out.sent()
	if len(sent) != 2 {
		t.Fatalf("sent = %+v, want 2 messages", sent)
	}
	for _, item := range sent {
		if item.text != msgGotContent {
			t.Fatalf("second user's photo reply = %q, want content prompt", item.text)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		kind Kind
		cmd  string
	}{
		{"/start", KindCommand, "start"},
		{"/START", KindCommand, "start"},
		{"/cancel@stylebot payload", KindCommand, "cancel"},
		{"  /help  ", KindCommand, "help"},
		{"hello", KindOther, ""},
		{"", KindOther, ""},
		{"/", KindOther, ""},
	}

	for _, tt := range tests {
		cmd, ok := parseCommand(tt.text)
		wantOK := tt.kind == KindCommand
		if ok != wantOK || cmd != tt.cmd {
			t.Errorf("parseCommand(%q) = %q/%v, want %q/%v", tt.text, cmd, ok, tt.cmd, wantOK)
		}
	}
}
