package middleware

import (
	tele "gopkg.in/telebot.v4"
)

// metricsContext wraps tele.Context to count sent messages and detect photo replies.
type metricsContext struct{ tele.Context }

func (m metricsContext) incMessages(isPhoto bool) {
	n := 0
	if v := m.Get("messages"); v != nil {
		if nv, ok := v.(int); ok {
			n = nv
		}
	}
	m.Set("messages", n+1)
	if isPhoto {
		m.Set("photo", true)
	}
}

func isPhotoPayload(what interface{}) bool {
	switch what.(type) {
	case *tele.Photo, tele.Photo:
		return true
	}
	return false
}

// Send proxies tele.Context.Send while updating message counters.
func (m metricsContext) Send(what interface{}, opts ...interface{}) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		m.incMessages(isPhotoPayload(what))
	}
	return err
}

// Reply proxies tele.Context.Reply while updating message counters.
func (m metricsContext) Reply(what interface{}, opts ...interface{}) error {
	err := m.Context.Reply(what, opts...)
	if err == nil {
		m.incMessages(isPhotoPayload(what))
	}
	return err
}

// MessageMetricsMiddleware instruments context to track messages count and photo replies.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		// Initialize counters
		c.Set("messages", 0)
		c.Set("photo", false)
		// Wrap context
		return next(metricsContext{Context: c})
	}
}

// GetCounters reads message count and photo presence flags from context.
func GetCounters(c tele.Context) (int, bool) {
	msgs := 0
	if v := c.Get("messages"); v != nil {
		if n, ok := v.(int); ok {
			msgs = n
		}
	}
	photo := false
	if v := c.Get("photo"); v != nil {
		if b, ok := v.(bool); ok {
			photo = b
		}
	}
	return msgs, photo
}
