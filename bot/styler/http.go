package styler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	coreconfig "github.com/artfuse/stylebot/core/config"
)

const maxReasonBytes = 1024

// HTTPClient talks to the synthesis service over HTTP multipart.
//
// A 4xx response is treated as a domain rejection and its body becomes
// the DomainError reason. Anything else that is not a 200 is an
// unexpected failure.
type HTTPClient struct {
	url    string
	client *http.Client
}

// NewHTTPClient builds a client from configuration. A zero timeout
// means requests run until the context cancels, since synthesis time
// is bounded by the service, not by us.
func NewHTTPClient(cfg coreconfig.StylerConfig) *HTTPClient {
	client := &http.Client{}
	if cfg.TimeoutSeconds > 0 {
		client.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &HTTPClient{
		url:    cfg.URL,
		client: client,
	}
}

func (c *HTTPClient) Synthesize(ctx context.Context, content, style []byte) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for _, part := range []struct {
		field string
		data  []byte
	}{
		{"content", content},
		{"style", style},
	} {
		fw, err := mw.CreateFormFile(part.field, part.field+".jpg")
		if err != nil {
			return nil, fmt.Errorf("styler: build request: %w", err)
		}
		if _, err := fw.Write(part.data); err != nil {
			return nil, fmt.Errorf("styler: build request: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("styler: build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, fmt.Errorf("styler: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("styler: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		image, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("styler: read response: %w", err)
		}
		if len(image) == 0 {
			return nil, fmt.Errorf("styler: empty response body")
		}
		return image, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, &DomainError{Reason: readReason(resp.Body)}
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("styler: unexpected status: %s", resp.Status)
	}
}

func readReason(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxReasonBytes))
	reason := strings.TrimSpace(string(raw))
	if err != nil || reason == "" {
		return "The image could not be processed."
	}
	return reason
}
