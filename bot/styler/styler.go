// Package styler calls the external image synthesis service that
// combines a content image with a style image.
package styler

import "context"

// Synthesizer produces a stylized image from a content and a style image.
type Synthesizer interface {
	// Synthesize blocks until the service returns a result image or an
	// error. Cancellation is driven by ctx; the implementation imposes
	// no deadline of its own.
	Synthesize(ctx context.Context, content, style []byte) ([]byte, error)
}

// DomainError is a rejection the service explains in user terms, such
// as an unreadable or unsupported image. Its reason is shown to the
// user verbatim.
type DomainError struct {
	Reason string
}

func (e *DomainError) Error() string {
	return e.Reason
}
