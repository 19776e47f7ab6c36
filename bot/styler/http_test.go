package styler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	coreconfig "github.com/artfuse/stylebot/core/config"
)

func newTestClient(url string) *HTTPClient {
	return NewHTTPClient(coreconfig.StylerConfig{URL: url})
}

func TestSynthesizeOK(t *testing.T) {
	var gotContent, gotStyle []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		for field, dst := range map[string]*[]byte{"content": &gotContent, "style": &gotStyle} {
			f, _, err := r.FormFile(field)
			if err != nil {
				t.Errorf("missing %q part: %v", field, err)
				http.Error(w, "missing part", http.StatusBadRequest)
				return
			}
			*dst, _ = io.ReadAll(f)
			f.Close()
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("result-image"))
	}))
	defer srv.Close()

	image, err := newTestClient(srv.URL).Synthesize(context.Background(), []byte("C"), []byte("S"))
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(image) != "result-image" {
		t.Fatalf("image = %q, want %q", image, "result-image")
	}
	if string(gotContent) != "C" || string(gotStyle) != "S" {
		t.Fatalf("parts = %q/%q, want C/S", gotContent, gotStyle)
	}
}

func TestSynthesizeDomainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Could not decode style image.", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Synthesize(context.Background(), []byte("C"), []byte("S"))
	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want DomainError", err)
	}
	if de.Reason != "Could not decode style image." {
		t.Fatalf("reason = %q", de.Reason)
	}
}

func TestSynthesizeDomainErrorEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Synthesize(context.Background(), nil, nil)
	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want DomainError", err)
	}
	if de.Reason == "" {
		t.Fatalf("empty reason for blank 4xx body")
	}
}

func TestSynthesizeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Synthesize(context.Background(), []byte("C"), []byte("S"))
	if err == nil {
		t.Fatalf("expected error for 5xx")
	}
	var de *DomainError
	if errors.As(err, &de) {
		t.Fatalf("5xx classified as DomainError: %v", err)
	}
}

func TestSynthesizeContextCancel(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := newTestClient(srv.URL).Synthesize(ctx, []byte("C"), []byte("S"))
		errCh <- err
	}()

	<-started
	cancel()
	if err := <-errCh; err == nil {
		t.Fatalf("expected error after cancellation")
	}
}
